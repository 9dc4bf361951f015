package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	h "academicevents/internal/delivery/http/helpers"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthController struct {
	Logger  *slog.Logger
	DB      Pinger
	Timeout time.Duration
}

func NewHealthController(logger *slog.Logger, db Pinger) *HealthController {
	return &HealthController{Logger: logger, DB: db, Timeout: 2 * time.Second}
}

// Health godoc
// @Summary Health check
// @Description Reports whether the database is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status is ok"
// @Failure 503 {object} helpers.APIResponse "database unreachable"
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.Timeout)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		c.Logger.ErrorContext(ctx, "health check failed", "error", err)
		h.WriteJSONError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
