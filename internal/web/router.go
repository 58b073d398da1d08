package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameportal/internal/metrics"
	gamemw "github.com/mcoot/gameportal/internal/middleware"
	"github.com/mcoot/gameportal/internal/services/auth"
	"github.com/mcoot/gameportal/internal/services/leaderboard"
	"github.com/mcoot/gameportal/internal/services/scores"
	"github.com/mcoot/gameportal/internal/services/session"
	"github.com/mcoot/gameportal/internal/web/handler"
	"github.com/mcoot/gameportal/internal/web/middleware"
	"github.com/mcoot/gameportal/internal/web/sse"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	SessionService     *session.Service
	ScoreService       *scores.Service
	LeaderboardService *leaderboard.Service
	HubManager         *sse.HubManager
	Broadcaster        *sse.Broadcaster
	Metrics            *metrics.Metrics    // optional
	LoginLimiter       *gamemw.RateLimiter // optional, throttles POST /login per client IP
	CookieSecure       bool                // mark session cookies Secure
	StaticDir          string              // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	authMiddleware := middleware.Auth(cfg.SessionService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.SessionService)

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cfg.Metrics.Middleware("web"))

	// Create handlers
	cookies := handler.CookieConfig{Secure: cfg.CookieSecure}
	homeHandler := handler.NewHomeHandler()
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.SessionService, cfg.Metrics, cookies, cfg.Logger)
	gameHandler := handler.NewGameHandler(
		cfg.ScoreService,
		cfg.LeaderboardService,
		cfg.HubManager,
		cfg.Broadcaster,
		cfg.Metrics,
		cfg.Logger,
	)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	// Public routes (optional auth for the greeting and nav)
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	public.HandleFunc("/signup", authHandler.SignupPage).Methods(http.MethodGet)
	public.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	public.HandleFunc("/games/{game}/leaderboard", gameHandler.Leaderboard).Methods(http.MethodGet)
	public.HandleFunc("/games/{game}/leaderboard/events", gameHandler.Events).Methods(http.MethodGet)

	var login http.Handler = http.HandlerFunc(authHandler.Login)
	if cfg.LoginLimiter != nil {
		login = cfg.LoginLimiter.Middleware(authHandler.LoginRateLimited)(login)
	}
	public.Handle("/login", login).Methods(http.MethodPost)

	// Protected routes (require auth)
	protected := r.NewRoute().Subrouter()
	protected.Use(flashMiddleware)
	protected.Use(authMiddleware)
	protected.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/games/{game}", gameHandler.View).Methods(http.MethodGet)
	protected.HandleFunc("/games/{game}/score", gameHandler.SubmitScore).Methods(http.MethodPost)

	return r
}
