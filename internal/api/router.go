package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameportal/internal/api/handler"
	"github.com/mcoot/gameportal/internal/api/middleware"
	"github.com/mcoot/gameportal/internal/api/response"
	"github.com/mcoot/gameportal/internal/metrics"
	gamemw "github.com/mcoot/gameportal/internal/middleware"
	"github.com/mcoot/gameportal/internal/services/auth"
	"github.com/mcoot/gameportal/internal/services/leaderboard"
	"github.com/mcoot/gameportal/internal/services/scores"
	"github.com/mcoot/gameportal/internal/services/session"
	"github.com/mcoot/gameportal/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	SessionService     *session.Service
	ScoreService       *scores.Service
	LeaderboardService *leaderboard.Service
	Broadcaster        *sse.Broadcaster    // optional, pushes leaderboard updates to web subscribers
	Metrics            *metrics.Metrics    // optional, also serves /metrics
	LoginLimiter       *gamemw.RateLimiter // optional, throttles login per client IP
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.SessionService, cfg.Metrics, cfg.Logger)
	gameHandler := handler.NewGameHandler(cfg.ScoreService, cfg.LeaderboardService, cfg.Broadcaster, cfg.Metrics, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.SessionService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.SessionService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(cfg.Metrics.Middleware("api"))

	// Player routes (no auth required for registering/logging in)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)

	var login http.Handler = http.HandlerFunc(playerHandler.Login)
	if cfg.LoginLimiter != nil {
		login = cfg.LoginLimiter.Middleware(playerHandler.LoginRateLimited)(login)
	}
	api.Handle("/players/login", login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Game routes
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)

	publicGames := api.PathPrefix("/games").Subrouter()
	publicGames.Use(optionalAuthMiddleware)
	publicGames.HandleFunc("/{game}/leaderboard", gameHandler.Leaderboard).Methods(http.MethodGet)

	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("/{game}/score", gameHandler.GetScore).Methods(http.MethodGet)
	games.HandleFunc("/{game}/score", gameHandler.SubmitScore).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
