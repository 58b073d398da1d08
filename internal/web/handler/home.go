package handler

import (
	"net/http"

	"github.com/mcoot/gameportal/internal/web/middleware"
	"github.com/mcoot/gameportal/internal/web/templates/layout"
	"github.com/mcoot/gameportal/internal/web/templates/pages"
)

// HomeHandler handles the home page
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Home greets the current identity, or Guest
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := pages.HomeData{
		PageData: layout.PageData{
			Title:    "Home",
			Identity: middleware.GetIdentity(r.Context()),
			Flash:    middleware.GetFlash(r.Context()),
		},
	}
	renderHTML(w, http.StatusOK, func() error {
		return pages.Home(data).Render(r.Context(), w)
	})
}
