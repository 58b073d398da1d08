package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case GamesResult:
		o.printGames(v)
	case ScoreResult:
		o.printScore(v)
	case LeaderboardResult:
		o.printLeaderboard(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Remember     bool      `json:"remember"`
}

// Game response type
type Game struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// GamesResult lists game kinds
type GamesResult struct {
	Games []Game `json:"games"`
}

// ScoreResult is one current score
type ScoreResult struct {
	Game  string `json:"game"`
	Score int    `json:"score"`
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Score     int    `json:"score"`
}

// LeaderboardResult is a game's ranking
type LeaderboardResult struct {
	Game    Game               `json:"game"`
	Entries []LeaderboardEntry `json:"entries"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	_, _ = fmt.Fprintf(o.w, "Player: %s (%s)\n", p.FirstName, p.Username)
	_, _ = fmt.Fprintf(o.w, "ID: %d\n", p.ID)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	_, _ = fmt.Fprintf(o.w, "Session expires: %s\n", a.ExpiresAt.Local().Format(time.RFC1123))
}

func (o *Output) printGames(g GamesResult) {
	for _, game := range g.Games {
		_, _ = fmt.Fprintf(o.w, "%s\t%s\n", game.Slug, game.Name)
	}
}

func (o *Output) printScore(s ScoreResult) {
	_, _ = fmt.Fprintf(o.w, "%s: %d\n", s.Game, s.Score)
}

func (o *Output) printLeaderboard(l LeaderboardResult) {
	_, _ = fmt.Fprintf(o.w, "%s leaderboard\n", l.Game.Name)
	if len(l.Entries) == 0 {
		_, _ = fmt.Fprintln(o.w, "No scores yet")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RANK\tPLAYER\tSCORE")
	for _, e := range l.Entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s (%s)\t%d\n", e.Rank, e.FirstName, e.Username, e.Score)
	}
	_ = tw.Flush()
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
