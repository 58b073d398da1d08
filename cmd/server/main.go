package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mcoot/gameportal/internal/api"
	"github.com/mcoot/gameportal/internal/config"
	"github.com/mcoot/gameportal/internal/dependencies/random"
	"github.com/mcoot/gameportal/internal/factory"
	gamemw "github.com/mcoot/gameportal/internal/middleware"
	"github.com/mcoot/gameportal/internal/services/auth"
	"github.com/mcoot/gameportal/internal/services/session"
	pgstorage "github.com/mcoot/gameportal/internal/storage/postgres"
	redisstorage "github.com/mcoot/gameportal/internal/storage/redis"
	"github.com/mcoot/gameportal/internal/web"
)

func main() {
	cfg, err := config.Load(random.New())
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.SecretGenerated {
		logger.Warn("SESSION_SECRET not set, generated a per-process secret; sessions will not survive a restart")
	}

	// Create application factory
	app, err := factory.New(context.Background(), factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close application", slog.String("error", err.Error()))
		}
	}()

	ipResolver, err := gamemw.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	loginLimiter := gamemw.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst).KeyBy(ipResolver.ClientIP)

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		SessionService:     app.SessionService,
		ScoreService:       app.ScoreService,
		LeaderboardService: app.LeaderboardService,
		Broadcaster:        app.Broadcaster,
		Metrics:            app.Metrics,
		LoginLimiter:       loginLimiter,
	})

	// Create web router
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		SessionService:     app.SessionService,
		ScoreService:       app.ScoreService,
		LeaderboardService: app.LeaderboardService,
		HubManager:         app.HubManager,
		Broadcaster:        app.Broadcaster,
		Metrics:            app.Metrics,
		LoginLimiter:       loginLimiter,
		CookieSecure:       cfg.CookieSecure,
		StaticDir:          findStaticDir(),
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/metrics", apiRouter)
	mux.Handle("/", webRouter)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(mux, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Drop hubs whose last subscriber has gone
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				app.HubManager.CleanupEmptyHubs()
			}
		}
	}()

	logger.Info("server starting",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
	)

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return
	}

	logger.Info("server stopped")
}

func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	sessionCfg := session.DefaultConfig()
	sessionCfg.Secret = []byte(cfg.SessionSecret)
	sessionCfg.SessionDuration = cfg.SessionDuration
	sessionCfg.RememberDuration = cfg.RememberDuration

	fc := factory.Config{
		AuthConfig:    auth.Config{BcryptCost: cfg.BcryptCost},
		SessionConfig: sessionCfg,
		Logger:        logger,
		StorageType:   cfg.StorageType,
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	case factory.StorageTypePostgres:
		pgCfg := pgstorage.DefaultConfig()
		pgCfg.URL = cfg.DatabaseURL
		fc.PostgresConfig = &pgCfg
	}
	return fc
}

// findStaticDir looks for the static files directory
func findStaticDir() string {
	candidates := []string{
		"internal/web/static",
		filepath.Join(os.Getenv("PWD"), "internal/web/static"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	return ""
}
