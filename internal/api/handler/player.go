package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/gameportal/internal/api/middleware"
	"github.com/mcoot/gameportal/internal/api/request"
	"github.com/mcoot/gameportal/internal/api/response"
	"github.com/mcoot/gameportal/internal/metrics"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/services/auth"
	"github.com/mcoot/gameportal/internal/services/session"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	authService    *auth.Service
	sessionService *session.Service
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, sessionService *session.Service, m *metrics.Metrics, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		authService:    authService,
		sessionService: sessionService,
		metrics:        m,
		logger:         logger,
	}
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	identity, err := h.authService.Register(r.Context(), req.Username, req.Password, req.FirstName)
	if err != nil {
		writeLoggedError(w, r, h.logger, err)
		return
	}
	h.metrics.Registered()

	token, err := h.sessionService.StartSession(r.Context(), identity, false)
	if err != nil {
		writeLoggedError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(*identity, token))
}

// Login handles POST /api/v1/players/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	identity, err := h.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			h.metrics.Login(metrics.LoginInvalid)
		}
		writeLoggedError(w, r, h.logger, err)
		return
	}

	token, err := h.sessionService.StartSession(r.Context(), identity, req.Remember)
	if err != nil {
		writeLoggedError(w, r, h.logger, err)
		return
	}
	h.metrics.Login(metrics.LoginSuccess)

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(*identity, token))
}

// LoginRateLimited answers a throttled login attempt
func (h *PlayerHandler) LoginRateLimited(w http.ResponseWriter, r *http.Request) {
	h.metrics.Login(metrics.LoginRateLimited)
	WriteError(w, NewRateLimitedError())
}

// Logout handles POST /api/v1/players/logout
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionService.EndSession(r.Context(), middleware.GetSessionToken(r.Context())); err != nil {
		writeLoggedError(w, r, h.logger, err)
		return
	}
	response.NoContent(w)
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(identity))
}
