package request

import (
	"encoding/json"
	"errors"
	"strings"
)

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// SubmitScoreRequest is the request body for submitting a score.
// Score is accepted as a JSON string or number and validated as text.
type SubmitScoreRequest struct {
	Score RawScore `json:"score"`
}

// RawScore holds the literal score text from the request body
type RawScore string

// UnmarshalJSON accepts "50" and 50 alike
func (s *RawScore) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return errors.New("score must not be null")
	}
	if strings.HasPrefix(trimmed, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = RawScore(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = RawScore(num.String())
	return nil
}
