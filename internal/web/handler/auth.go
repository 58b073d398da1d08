package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/gameportal/internal/metrics"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/services/auth"
	"github.com/mcoot/gameportal/internal/services/session"
	"github.com/mcoot/gameportal/internal/web/middleware"
	"github.com/mcoot/gameportal/internal/web/templates/layout"
	"github.com/mcoot/gameportal/internal/web/templates/pages"
)

// AuthHandler handles login, signup and logout
type AuthHandler struct {
	authService    *auth.Service
	sessionService *session.Service
	metrics        *metrics.Metrics
	cookies        CookieConfig
	logger         *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service, sessionService *session.Service, m *metrics.Metrics, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		sessionService: sessionService,
		metrics:        m,
		cookies:        cookies,
		logger:         logger,
	}
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if !middleware.GetIdentity(r.Context()).IsGuest() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, pages.LoginData{Next: r.URL.Query().Get("next")})
}

// Login authenticates the form credentials and starts a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, pages.LoginData{Error: "Invalid form data"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	remember := r.FormValue("remember") == "on"
	next := r.FormValue("next")

	if username == "" || password == "" {
		h.renderLogin(w, r, http.StatusUnprocessableEntity, pages.LoginData{
			Username: username, Next: next, Error: "Username and password are required",
		})
		return
	}

	identity, err := h.authService.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			h.metrics.Login(metrics.LoginInvalid)
			h.renderLogin(w, r, http.StatusUnauthorized, pages.LoginData{
				Username: username, Next: next, Error: "Invalid username or password",
			})
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		h.renderLogin(w, r, http.StatusInternalServerError, pages.LoginData{
			Username: username, Next: next, Error: "Login failed, please try again",
		})
		return
	}

	token, err := h.sessionService.StartSession(r.Context(), identity, remember)
	if err != nil {
		h.logger.Error("failed to start session", slog.Any("error", err))
		h.renderLogin(w, r, http.StatusInternalServerError, pages.LoginData{
			Username: username, Next: next, Error: "Login failed, please try again",
		})
		return
	}

	h.metrics.Login(metrics.LoginSuccess)
	h.cookies.setSessionCookie(w, token)
	middleware.SetFlash(w, "success", "Welcome back, "+identity.FirstName+"!")
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// LoginRateLimited answers a throttled login attempt
func (h *AuthHandler) LoginRateLimited(w http.ResponseWriter, r *http.Request) {
	h.metrics.Login(metrics.LoginRateLimited)
	h.renderLogin(w, r, http.StatusTooManyRequests, pages.LoginData{
		Username: r.FormValue("username"),
		Next:     r.FormValue("next"),
		Error:    "Too many login attempts, please wait and try again",
	})
}

// SignupPage renders the registration form
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if !middleware.GetIdentity(r.Context()).IsGuest() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderSignup(w, r, http.StatusOK, pages.SignupData{})
}

// Signup registers a new identity and signs it in
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignup(w, r, http.StatusBadRequest, pages.SignupData{Error: "Invalid form data"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	firstName := strings.TrimSpace(r.FormValue("first_name"))
	password := r.FormValue("password")
	data := pages.SignupData{Username: username, FirstName: firstName}

	if password != r.FormValue("password_confirm") {
		data.FieldErrors = map[string]string{"password_confirm": "Passwords do not match"}
		h.renderSignup(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	identity, err := h.authService.Register(r.Context(), username, password, firstName)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			data.FieldErrors = map[string]string{verr.Field: fieldLabel(verr.Field) + " " + verr.Message}
			h.renderSignup(w, r, http.StatusUnprocessableEntity, data)
		case errors.Is(err, model.ErrDuplicateUsername):
			data.FieldErrors = map[string]string{"username": "Username already taken"}
			h.renderSignup(w, r, http.StatusConflict, data)
		default:
			h.logger.Error("registration failed", slog.Any("error", err))
			data.Error = "Registration failed, please try again"
			h.renderSignup(w, r, http.StatusInternalServerError, data)
		}
		return
	}
	h.metrics.Registered()

	token, err := h.sessionService.StartSession(r.Context(), identity, false)
	if err != nil {
		h.logger.Error("failed to start session", slog.Any("error", err))
		middleware.SetFlash(w, "info", "Account created, please log in")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.cookies.setSessionCookie(w, token)
	middleware.SetFlash(w, "success", "Account created! Welcome, "+identity.FirstName+"!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionService.EndSession(r.Context(), middleware.GetSessionToken(r.Context())); err != nil {
		h.logger.Error("failed to end session", slog.Any("error", err))
	}
	h.cookies.clearSessionCookie(w)
	middleware.SetFlash(w, "info", "You have been logged out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data pages.LoginData) {
	data.PageData = layout.PageData{
		Title:    "Log in",
		Identity: middleware.GetIdentity(r.Context()),
		Flash:    middleware.GetFlash(r.Context()),
	}
	renderHTML(w, status, func() error {
		return pages.Login(data).Render(r.Context(), w)
	})
}

func (h *AuthHandler) renderSignup(w http.ResponseWriter, r *http.Request, status int, data pages.SignupData) {
	data.PageData = layout.PageData{
		Title:    "Sign up",
		Identity: middleware.GetIdentity(r.Context()),
		Flash:    middleware.GetFlash(r.Context()),
	}
	renderHTML(w, status, func() error {
		return pages.Signup(data).Render(r.Context(), w)
	})
}

func fieldLabel(field string) string {
	switch field {
	case "username":
		return "Username"
	case "password":
		return "Password"
	case "first_name":
		return "First name"
	default:
		return field
	}
}
