package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"webquiz/internal/app"
)

// LeaderboardHandler serves the per-quiz standings as JSON.
type LeaderboardHandler struct {
	service *app.AttemptService
	log     *slog.Logger
}

func NewLeaderboardHandler(service *app.AttemptService, log *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, log: log}
}

func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	leaderboard, err := h.service.Leaderboard(r.Context(), quizID)
	if err != nil {
		h.log.Error("leaderboard lookup failed", "quiz", quizID, "err", err)
		http.Error(w, "could not load leaderboard", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(leaderboard); err != nil {
		h.log.Warn("leaderboard encode failed", "err", err)
	}
}
