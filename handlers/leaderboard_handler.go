package handlers

import (
	"net/http"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/services"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboardHandler godoc
// @Summary Global leaderboard, all-time or monthly
// @Tags leaderboard
// @Produce json
// @Param period query string false "all_time (default) or YYYY-MM"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = models.PeriodAllTime
	}
	limit, _ := queryInt(r, "limit")

	entries, err := h.leaderboardService.Top(r.Context(), models.ScopeGlobal, period, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"period": period, "entries": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
