package controllers

import (
	"log/slog"
	"net/http"

	h "academicevents/internal/delivery/http/helpers"
	"academicevents/internal/domain"
)

// NotificationListResponse is the data payload of GET /notifications.
type NotificationListResponse struct {
	Items       []*domain.Notification `json:"items"`
	UnreadCount int                    `json:"unread_count"`
	Pagination  h.PaginationMeta       `json:"pagination"`
}

type NotificationController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

func NewNotificationController(logger *slog.Logger, svc domain.NotificationService) *NotificationController {
	return &NotificationController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List the caller's notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "Only unread notifications"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items, unread_count and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /notifications [get]
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	unreadOnly := false
	if b := h.QueryBool(r, "unread_only"); b != nil {
		unreadOnly = *b
	}
	params := h.ParsePagination(r)
	page, err := c.Service.List(r.Context(), actor, unreadOnly, params)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, NotificationListResponse{
		Items:       page.Items,
		UnreadCount: page.UnreadCount,
		Pagination:  h.NewPaginationMeta(params.Page, params.PageSize, page.Total),
	})
}

// MarkAsRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the notification"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /notifications/{id}/read [post]
func (c *NotificationController) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	n, err := c.Service.MarkAsRead(r.Context(), actor, id)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, n)
}
