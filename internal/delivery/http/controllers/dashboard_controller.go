package controllers

import (
	"log/slog"
	"net/http"

	h "academicevents/internal/delivery/http/helpers"
	"academicevents/internal/domain"
)

const (
	defaultDashboardLimit = 5
	maxDashboardLimit     = 20
)

type DashboardController struct {
	Logger  *slog.Logger
	Service domain.DashboardService
}

func NewDashboardController(logger *slog.Logger, svc domain.DashboardService) *DashboardController {
	return &DashboardController{
		Logger:  logger,
		Service: svc,
	}
}

// Stats godoc
// @Summary Organizer dashboard statistics
// @Description Event, registration, attendance and certificate counters for the caller's events. Admins see all events.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the organizer stats"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /dashboard/stats [get]
func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.OrganizerStats(r.Context(), actor)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, stats)
}

// UpcomingEvents godoc
// @Summary Upcoming events for the dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows (default 5, max 20)"
// @Success 200 {object} helpers.APIResponse "data contains upcoming events with hours_until and status"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /dashboard/upcoming-events [get]
func (c *DashboardController) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	events, err := c.Service.UpcomingEvents(r.Context(), actor, dashboardLimit(r))
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, events)
}

// RecentActivity godoc
// @Summary Recent activity on the caller's events
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows (default 5, max 20)"
// @Success 200 {object} helpers.APIResponse "data contains activity rows"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /dashboard/recent-activity [get]
func (c *DashboardController) RecentActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	items, err := c.Service.RecentActivity(r.Context(), actor, dashboardLimit(r))
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, items)
}

func dashboardLimit(r *http.Request) int {
	n := h.QueryInt(r, "limit", defaultDashboardLimit)
	if n < 1 {
		return defaultDashboardLimit
	}
	return min(n, maxDashboardLimit)
}
