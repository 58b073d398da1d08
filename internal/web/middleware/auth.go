package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mcoot/gameportal/internal/model"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	tokenContextKey    contextKey = "session_token"

	// SessionCookieName holds the session token
	SessionCookieName = "session"
)

// SessionResolver resolves a session token to an identity, Guest if unresolvable
type SessionResolver interface {
	CurrentIdentity(ctx context.Context, token string) model.Identity
}

// GetIdentity returns the identity resolved for this request, Guest if none
func GetIdentity(ctx context.Context) model.Identity {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok {
		return model.Guest
	}
	return identity
}

// GetSessionToken returns the raw session token sent with this request
func GetSessionToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// Auth returns middleware that requires a signed-in identity.
// Guests are redirected to the login page with the original path in next.
func Auth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := resolve(r, sessions)
			if GetIdentity(ctx).IsGuest() {
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the session if present; guests pass through
func OptionalAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(resolve(r, sessions)))
		})
	}
}

func resolve(r *http.Request, sessions SessionResolver) context.Context {
	token := ""
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		token = cookie.Value
	}
	identity := sessions.CurrentIdentity(r.Context(), token)
	ctx := context.WithValue(r.Context(), identityContextKey, identity)
	return context.WithValue(ctx, tokenContextKey, token)
}
