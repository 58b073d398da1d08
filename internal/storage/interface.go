package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcoot/gameportal/internal/model"
)

// ErrDuplicateGame is returned by CreateIdentity when a game kind is listed twice
var ErrDuplicateGame = errors.New("duplicate game kind")

// CheckGames reports ErrDuplicateGame if games repeats a kind
func CheckGames(games []model.GameKind) error {
	seen := make(map[model.GameKind]struct{}, len(games))
	for _, game := range games {
		if _, ok := seen[game]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateGame, game)
		}
		seen[game] = struct{}{}
	}
	return nil
}

// Storage defines the interface for data persistence
type Storage interface {
	// Identity operations

	// CreateIdentity persists the identity together with one zero score record per game
	// as a single atomic unit, and assigns identity.ID. Returns model.ErrDuplicateUsername
	// if the username is taken and ErrDuplicateGame if games repeats a kind; on any
	// error nothing is persisted.
	CreateIdentity(ctx context.Context, identity *model.Identity, games []model.GameKind) error
	GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error)
	GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error)

	// Score operations
	GetScore(ctx context.Context, id model.IdentityID, game model.GameKind) (*model.ScoreRecord, error)
	// UpdateScore overwrites the score of an existing record
	UpdateScore(ctx context.Context, id model.IdentityID, game model.GameKind, score int) error
	// ListScores returns every record of a game in insertion order
	ListScores(ctx context.Context, game model.GameKind) ([]model.ScoreEntry, error)

	// Session revocation operations

	// RevokeSession records tokenID as revoked for ttl. A non-positive ttl records nothing.
	RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)

	Close() error
}
