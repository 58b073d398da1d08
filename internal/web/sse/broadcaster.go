package sse

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/web/templates/components"
)

// LeaderboardUpdateEvent is the SSE event name carrying a re-rendered table
const LeaderboardUpdateEvent = "leaderboard-update"

// LeaderboardSource supplies ranked scores for re-rendering
type LeaderboardSource interface {
	RankedScores(ctx context.Context, game model.GameKind) ([]model.RankedScore, error)
}

// Broadcaster pushes leaderboard changes to SSE subscribers
type Broadcaster struct {
	hubManager  *HubManager
	leaderboard LeaderboardSource
	logger      *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, leaderboard LeaderboardSource, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager:  hubManager,
		leaderboard: leaderboard,
		logger:      logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// BroadcastLeaderboardUpdate re-renders a game's leaderboard table and sends it
// to everyone watching. Nothing happens if the game has no hub.
func (b *Broadcaster) BroadcastLeaderboardUpdate(ctx context.Context, game model.GameKind) {
	if b == nil {
		return
	}
	hub := b.hubManager.GetHub(game)
	if hub == nil {
		return
	}

	ranked, err := b.leaderboard.RankedScores(ctx, game)
	if err != nil {
		b.logger.Error("sse failed to load leaderboard",
			slog.String("game", string(game)),
			slog.Any("error", err))
		return
	}

	var buf bytes.Buffer
	if err := components.LeaderboardTable(game, ranked).Render(ctx, &buf); err != nil {
		b.logger.Error("sse failed to render leaderboard",
			slog.String("game", string(game)),
			slog.Any("error", err))
		return
	}

	hub.BroadcastEvent(LeaderboardUpdateEvent, buf.String())
}
