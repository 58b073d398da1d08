package model

import "strings"

// GameKind identifies one of the portal's games
type GameKind string

const (
	GameTicTacToe    GameKind = "tictactoe"
	GameSnake        GameKind = "snake"
	GameBrickBreaker GameKind = "brickbreaker"
)

// AllGames returns every game kind in display order
func AllGames() []GameKind {
	return []GameKind{GameTicTacToe, GameSnake, GameBrickBreaker}
}

// DisplayName returns the human-readable game name
func (g GameKind) DisplayName() string {
	switch g {
	case GameTicTacToe:
		return "TicTacToe"
	case GameSnake:
		return "Snake"
	case GameBrickBreaker:
		return "BrickBreaker"
	default:
		return string(g)
	}
}

// Valid reports whether g is a known game kind
func (g GameKind) Valid() bool {
	switch g {
	case GameTicTacToe, GameSnake, GameBrickBreaker:
		return true
	}
	return false
}

// ParseGameKind accepts a slug ("snake") or display name ("Snake"), case-insensitively
func ParseGameKind(s string) (GameKind, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, g := range AllGames() {
		if needle == string(g) || needle == strings.ToLower(g.DisplayName()) {
			return g, nil
		}
	}
	return "", ErrUnknownGame
}
