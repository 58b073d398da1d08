package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/gameportal/internal/api/apierr"
	"github.com/mcoot/gameportal/internal/model"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	tokenContextKey    contextKey = "session_token"

	sessionCookieName = "session"
)

// SessionResolver resolves a session token to an identity, Guest if unresolvable
type SessionResolver interface {
	CurrentIdentity(ctx context.Context, token string) model.Identity
}

// Auth creates authentication middleware
func Auth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			identity := sessions.CurrentIdentity(r.Context(), token)
			if identity.IsGuest() {
				apierr.WriteError(w, model.ErrAuthRequired)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), identity, token)))
		})
	}
}

// OptionalAuth extracts session if present but doesn't require it
func OptionalAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			identity := sessions.CurrentIdentity(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), identity, token)))
		})
	}
}

func withSession(ctx context.Context, identity model.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityContextKey, identity)
	return context.WithValue(ctx, tokenContextKey, token)
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	// Fall back to cookie
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetIdentity returns the identity resolved for this request, Guest if none
func GetIdentity(ctx context.Context) model.Identity {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok {
		return model.Guest
	}
	return identity
}

// GetSessionToken returns the token the request authenticated with
func GetSessionToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// MustGetIdentity returns the signed-in identity or panics
func MustGetIdentity(ctx context.Context) model.Identity {
	identity := GetIdentity(ctx)
	if identity.IsGuest() {
		panic("no identity in context - auth middleware not applied?")
	}
	return identity
}
