package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gameportal/internal/middleware"
	"github.com/mcoot/gameportal/internal/web/templates/layout"
	"github.com/mcoot/gameportal/internal/web/templates/pages"
)

// Recovery renders the portal's error page when a handler panics
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	data := pages.ErrorData{
		PageData: layout.PageData{Title: "Error", Identity: GetIdentity(r.Context())},
		Message:  "Something went wrong. Please try again later.",
	}
	_ = pages.Error(data).Render(r.Context(), w)
}
