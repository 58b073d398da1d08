package response

import (
	"time"

	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/services/session"
)

// Player represents an identity in API responses. The password hash never leaves the server.
type Player struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// PlayerFromModel converts a model.Identity to a response Player
func PlayerFromModel(i model.Identity) Player {
	return Player{
		ID:        int64(i.ID),
		Username:  i.Username,
		FirstName: i.FirstName,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Remember     bool      `json:"remember"`
}

// AuthResponseFromSession creates an AuthResponse from an issued token
func AuthResponseFromSession(identity model.Identity, token *session.Token) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(identity),
		SessionToken: token.Value,
		ExpiresAt:    token.ExpiresAt,
		Remember:     token.Remember,
	}
}

// Game describes a game kind
type Game struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// GameFromModel converts a model.GameKind
func GameFromModel(g model.GameKind) Game {
	return Game{Slug: string(g), Name: g.DisplayName()}
}

// GamesResponse lists every game kind
type GamesResponse struct {
	Games []Game `json:"games"`
}

// Score is one identity's current score in a game
type Score struct {
	Game  string `json:"game"`
	Score int    `json:"score"`
}

// ScoreFromModel converts a model.ScoreRecord
func ScoreFromModel(r *model.ScoreRecord) Score {
	return Score{Game: string(r.Game), Score: r.Score}
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Score     int    `json:"score"`
}

// Leaderboard is the ranked scores of one game
type Leaderboard struct {
	Game    Game               `json:"game"`
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromModel converts ranked scores
func LeaderboardFromModel(game model.GameKind, ranked []model.RankedScore) Leaderboard {
	entries := make([]LeaderboardEntry, len(ranked))
	for i, r := range ranked {
		entries[i] = LeaderboardEntry{
			Rank:      r.Rank,
			Username:  r.Username,
			FirstName: r.FirstName,
			Score:     r.Score,
		}
	}
	return Leaderboard{Game: GameFromModel(game), Entries: entries}
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
