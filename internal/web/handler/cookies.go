package handler

import (
	"net/http"
	"time"

	"github.com/mcoot/gameportal/internal/services/session"
	"github.com/mcoot/gameportal/internal/web/middleware"
)

// CookieConfig controls how session cookies are issued
type CookieConfig struct {
	Secure bool
}

// setSessionCookie issues the token. Remembered sessions persist until the
// token expires; others are browser-session cookies.
func (c CookieConfig) setSessionCookie(w http.ResponseWriter, token *session.Token) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token.Value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token.Remember {
		cookie.Expires = token.ExpiresAt
		cookie.MaxAge = int(token.Lifetime.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (c CookieConfig) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext only allows same-site relative redirects
func safeNext(next string) string {
	if len(next) > 0 && next[0] == '/' && (len(next) == 1 || (next[1] != '/' && next[1] != '\\')) {
		return next
	}
	return "/"
}

func renderHTML(w http.ResponseWriter, status int, render func() error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render(); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
