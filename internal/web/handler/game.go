package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameportal/internal/metrics"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/services/leaderboard"
	"github.com/mcoot/gameportal/internal/services/scores"
	"github.com/mcoot/gameportal/internal/web/middleware"
	"github.com/mcoot/gameportal/internal/web/sse"
	"github.com/mcoot/gameportal/internal/web/templates/layout"
	"github.com/mcoot/gameportal/internal/web/templates/pages"
)

// GameHandler serves game pages, score submission and leaderboards
type GameHandler struct {
	scoreService       *scores.Service
	leaderboardService *leaderboard.Service
	hubManager         *sse.HubManager
	broadcaster        *sse.Broadcaster
	metrics            *metrics.Metrics
	logger             *slog.Logger
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(
	scoreService *scores.Service,
	leaderboardService *leaderboard.Service,
	hubManager *sse.HubManager,
	broadcaster *sse.Broadcaster,
	m *metrics.Metrics,
	logger *slog.Logger,
) *GameHandler {
	return &GameHandler{
		scoreService:       scoreService,
		leaderboardService: leaderboardService,
		hubManager:         hubManager,
		broadcaster:        broadcaster,
		metrics:            m,
		logger:             logger,
	}
}

// View renders the game page with the player's current score
func (h *GameHandler) View(w http.ResponseWriter, r *http.Request) {
	game, ok := h.gameFromPath(w, r)
	if !ok {
		return
	}
	h.renderGame(w, r, http.StatusOK, game, "")
}

// SubmitScore records a score from the form and notifies leaderboard watchers
func (h *GameHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	game, ok := h.gameFromPath(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderGame(w, r, http.StatusBadRequest, game, "Invalid form data")
		return
	}

	identity := middleware.GetIdentity(r.Context())
	err := h.scoreService.SubmitScore(r.Context(), identity.ID, game, r.FormValue("score"))
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			h.renderGame(w, r, http.StatusUnprocessableEntity, game, "Score "+verr.Message)
			return
		}
		h.renderError(w, r, err)
		return
	}

	h.metrics.ScoreSubmitted(game)
	h.broadcaster.BroadcastLeaderboardUpdate(r.Context(), game)
	middleware.SetFlash(w, "success", "Score saved")
	http.Redirect(w, r, "/games/"+string(game), http.StatusSeeOther)
}

// Leaderboard renders the ranked scores of a game
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	game, ok := h.gameFromPath(w, r)
	if !ok {
		return
	}

	ranked, err := h.leaderboardService.RankedScores(r.Context(), game)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := pages.LeaderboardData{
		PageData: h.pageData(r, game.DisplayName()+" leaderboard"),
		Game:     game,
		Ranked:   ranked,
	}
	renderHTML(w, http.StatusOK, func() error {
		return pages.Leaderboard(data).Render(r.Context(), w)
	})
}

// Events streams leaderboard updates for a game
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	game, ok := h.gameFromPath(w, r)
	if !ok {
		return
	}
	hub := h.hubManager.GetOrCreateHub(game)
	sse.ServeSSE(w, r, hub, middleware.GetIdentity(r.Context()).ID)
}

func (h *GameHandler) gameFromPath(w http.ResponseWriter, r *http.Request) (model.GameKind, bool) {
	game, err := model.ParseGameKind(mux.Vars(r)["game"])
	if err != nil {
		h.renderError(w, r, err)
		return "", false
	}
	return game, true
}

func (h *GameHandler) renderGame(w http.ResponseWriter, r *http.Request, status int, game model.GameKind, scoreError string) {
	identity := middleware.GetIdentity(r.Context())
	record, err := h.scoreService.GetScore(r.Context(), identity.ID, game)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := pages.GameData{
		PageData:   h.pageData(r, game.DisplayName()),
		Game:       game,
		Score:      record.Score,
		ScoreError: scoreError,
	}
	renderHTML(w, status, func() error {
		return pages.Game(data).Render(r.Context(), w)
	})
}

func (h *GameHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."
	switch {
	case errors.Is(err, model.ErrUnknownGame):
		status = http.StatusNotFound
		message = "No such game."
	case errors.Is(err, model.ErrIdentityNotFound):
		status = http.StatusNotFound
		message = "Player not found."
	default:
		h.logger.Error("game request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}

	data := pages.ErrorData{PageData: h.pageData(r, "Error"), Message: message}
	renderHTML(w, status, func() error {
		return pages.Error(data).Render(r.Context(), w)
	})
}

func (h *GameHandler) pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title:    title,
		Identity: middleware.GetIdentity(r.Context()),
		Flash:    middleware.GetFlash(r.Context()),
	}
}
