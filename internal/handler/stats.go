package handler

import (
	"net/http"

	"github.com/noteghar/noteghar/internal/ctxkeys"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

type publicStats struct {
	ApprovalRate    float64              `json:"approval_rate"`
	TopContributors []*model.Contributor `json:"top_contributors"`
}

// Public is the anonymous summary shown on the landing page.
func (h *StatsHandler) Public(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		RenderError(w, r, err)
		return
	}

	rate, err := h.statsService.ApprovalRate(r.Context())
	if err != nil {
		RenderError(w, r, err)
		return
	}
	top, err := h.statsService.TopContributors(r.Context(), limit)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	Render(w, http.StatusOK, publicStats{ApprovalRate: rate, TopContributors: top})
}

func (h *StatsHandler) ModeratorDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.statsService.ModeratorDashboard(r.Context(), ctxkeys.User(r.Context()))
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, d)
}

func (h *StatsHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.statsService.UserDashboard(r.Context(), ctxkeys.User(r.Context()))
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, d)
}
