package leaderboard

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage"
)

// Service builds ranked views over a game's score records
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new leaderboard Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// RankedScores returns every record of the game, highest score first. Ties keep
// record insertion order and share a competition rank (1, 1, 3).
func (s *Service) RankedScores(ctx context.Context, game model.GameKind) ([]model.RankedScore, error) {
	if !game.Valid() {
		return nil, model.ErrUnknownGame
	}

	entries, err := s.storage.ListScores(ctx, game)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b model.ScoreEntry) int {
		if c := cmp.Compare(b.Record.Score, a.Record.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ID, b.Record.ID)
	})

	ranked := make([]model.RankedScore, len(entries))
	for i, entry := range entries {
		rank := i + 1
		if i > 0 && entry.Record.Score == entries[i-1].Record.Score {
			rank = ranked[i-1].Rank
		}
		ranked[i] = model.RankedScore{
			Rank:       rank,
			IdentityID: entry.Record.IdentityID,
			Username:   entry.Username,
			FirstName:  entry.FirstName,
			Score:      entry.Record.Score,
		}
	}
	return ranked, nil
}
