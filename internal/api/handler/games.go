package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameportal/internal/api/middleware"
	"github.com/mcoot/gameportal/internal/api/request"
	"github.com/mcoot/gameportal/internal/api/response"
	"github.com/mcoot/gameportal/internal/metrics"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/services/leaderboard"
	"github.com/mcoot/gameportal/internal/services/scores"
	"github.com/mcoot/gameportal/internal/web/sse"
)

// GameHandler handles game listing, scores and leaderboards
type GameHandler struct {
	scoreService       *scores.Service
	leaderboardService *leaderboard.Service
	broadcaster        *sse.Broadcaster
	metrics            *metrics.Metrics
	logger             *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(
	scoreService *scores.Service,
	leaderboardService *leaderboard.Service,
	broadcaster *sse.Broadcaster,
	m *metrics.Metrics,
	logger *slog.Logger,
) *GameHandler {
	return &GameHandler{
		scoreService:       scoreService,
		leaderboardService: leaderboardService,
		broadcaster:        broadcaster,
		metrics:            m,
		logger:             logger,
	}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games := model.AllGames()
	resp := response.GamesResponse{Games: make([]response.Game, len(games))}
	for i, g := range games {
		resp.Games[i] = response.GameFromModel(g)
	}
	response.JSON(w, http.StatusOK, resp)
}

// GetScore handles GET /api/v1/games/{game}/score
func (h *GameHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	game, err := model.ParseGameKind(mux.Vars(r)["game"])
	if err != nil {
		WriteError(w, err)
		return
	}

	identity := middleware.MustGetIdentity(r.Context())
	record, err := h.scoreService.GetScore(r.Context(), identity.ID, game)
	if err != nil {
		writeLoggedError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreFromModel(record))
}

// SubmitScore handles POST /api/v1/games/{game}/score
func (h *GameHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	game, err := model.ParseGameKind(mux.Vars(r)["game"])
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.SubmitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	identity := middleware.MustGetIdentity(r.Context())
	if err := h.scoreService.SubmitScore(r.Context(), identity.ID, game, string(req.Score)); err != nil {
		writeLoggedError(w, r, h.logger, err)
		return
	}
	h.metrics.ScoreSubmitted(game)
	h.broadcaster.BroadcastLeaderboardUpdate(r.Context(), game)

	// Read back so the caller sees the stored value
	record, err := h.scoreService.GetScore(r.Context(), identity.ID, game)
	if err != nil {
		writeLoggedError(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ScoreFromModel(record))
}

// Leaderboard handles GET /api/v1/games/{game}/leaderboard
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	game, err := model.ParseGameKind(mux.Vars(r)["game"])
	if err != nil {
		WriteError(w, err)
		return
	}

	ranked, err := h.leaderboardService.RankedScores(r.Context(), game)
	if err != nil {
		writeLoggedError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(game, ranked))
}
