package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/gameportal/internal/dependencies/clock"
	"github.com/mcoot/gameportal/internal/metrics"
	"github.com/mcoot/gameportal/internal/services/auth"
	"github.com/mcoot/gameportal/internal/services/leaderboard"
	"github.com/mcoot/gameportal/internal/services/scores"
	"github.com/mcoot/gameportal/internal/services/session"
	"github.com/mcoot/gameportal/internal/storage"
	"github.com/mcoot/gameportal/internal/storage/memory"
	pgstorage "github.com/mcoot/gameportal/internal/storage/postgres"
	redisstorage "github.com/mcoot/gameportal/internal/storage/redis"
	"github.com/mcoot/gameportal/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	AuthService        *auth.Service
	SessionService     *session.Service
	ScoreService       *scores.Service
	LeaderboardService *leaderboard.Service

	// Live leaderboard streaming
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// SessionConfig holds token settings. Secret is required.
	SessionConfig session.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *pgstorage.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if len(cfg.SessionConfig.Secret) == 0 {
		return nil, errors.New("SessionConfig.Secret is required")
	}

	clk := clock.New()
	store, err := newStorage(ctx, cfg, clk)
	if err != nil {
		return nil, err
	}
	logger.Info("storage ready", slog.String("type", storageTypeOrDefault(cfg.StorageType)))

	return newWithDependencies(store, clk, cfg.AuthConfig, cfg.SessionConfig, logger), nil
}

func storageTypeOrDefault(t string) string {
	if t == "" {
		return StorageTypeMemory
	}
	return t
}

func newStorage(ctx context.Context, cfg Config, clk clock.Clock) (storage.Storage, error) {
	switch storageTypeOrDefault(cfg.StorageType) {
	case StorageTypeMemory:
		return memory.New(clk), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, nil
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		return pgstorage.New(ctx, *cfg.PostgresConfig, clk)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, authCfg auth.Config, sessionCfg session.Config, logger *slog.Logger) *App {
	hubManager := sse.NewHubManager(logger)
	leaderboardService := leaderboard.New(store, logger)

	return &App{
		Storage:            store,
		Clock:              clk,
		AuthService:        auth.New(store, clk, authCfg, logger),
		SessionService:     session.New(store, clk, sessionCfg, logger),
		ScoreService:       scores.New(store, logger),
		LeaderboardService: leaderboardService,
		HubManager:         hubManager,
		Broadcaster:        sse.NewBroadcaster(hubManager, leaderboardService, logger),
		Metrics:            metrics.New(),
		Logger:             logger,
	}
}

// Close releases the storage backend and stops every SSE hub
func (a *App) Close() error {
	a.HubManager.Close()
	return a.Storage.Close()
}
