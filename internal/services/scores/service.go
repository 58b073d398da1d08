package scores

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage"
)

// Service reads and records per-game scores
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new scores Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// GetScore returns the identity's record for a game
func (s *Service) GetScore(ctx context.Context, id model.IdentityID, game model.GameKind) (*model.ScoreRecord, error) {
	if !game.Valid() {
		return nil, model.ErrUnknownGame
	}

	record, err := s.storage.GetScore(ctx, id, game)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, model.ErrScoreNotFound) {
		return nil, err
	}

	// Every identity has a record per game, so a miss normally means no such identity
	if _, idErr := s.storage.GetIdentity(ctx, id); idErr != nil {
		return nil, idErr
	}
	s.logger.Error("identity missing score record", "identity_id", id, "game", game)
	return nil, err
}

// SubmitScore parses rawScore and overwrites the stored score with it
func (s *Service) SubmitScore(ctx context.Context, id model.IdentityID, game model.GameKind, rawScore string) error {
	if !game.Valid() {
		return model.ErrUnknownGame
	}

	score, err := ParseScore(rawScore)
	if err != nil {
		return err
	}

	if err := s.storage.UpdateScore(ctx, id, game, score); err != nil {
		if errors.Is(err, model.ErrScoreNotFound) {
			if _, idErr := s.storage.GetIdentity(ctx, id); idErr != nil {
				return idErr
			}
		}
		return err
	}

	s.logger.Info("score submitted", "identity_id", id, "game", game, "score", score)
	return nil
}

// ParseScore parses a base-10 non-negative integer no larger than 2^31-1,
// ignoring surrounding whitespace
func ParseScore(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, model.NewValidationError("score", "is required")
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, model.NewValidationError("score", "must be a non-negative whole number")
		}
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || n > math.MaxInt32 {
		return 0, model.NewValidationError("score", "is too large")
	}
	return int(n), nil
}
