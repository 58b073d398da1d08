package pages

import (
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/web/templates/layout"
)

// HomeData holds data for the home page
type HomeData struct {
	layout.PageData
}

// LoginData holds data for the login page
type LoginData struct {
	layout.PageData
	Username string
	Error    string
	Next     string
}

// SignupData holds data for the signup page
type SignupData struct {
	layout.PageData
	Username    string
	FirstName   string
	Error       string
	FieldErrors map[string]string
}

// GameData holds data for a game page
type GameData struct {
	layout.PageData
	Game       model.GameKind
	Score      int
	ScoreError string
}

// LeaderboardData holds data for a leaderboard page
type LeaderboardData struct {
	layout.PageData
	Game   model.GameKind
	Ranked []model.RankedScore
}

// ErrorData holds data for an error page
type ErrorData struct {
	layout.PageData
	Message string
}
