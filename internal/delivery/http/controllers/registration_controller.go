package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	h "academicevents/internal/delivery/http/helpers"
	"academicevents/internal/domain"
)

// RegisterRequest is the optional request body for POST /events/{id}/registrations.
type RegisterRequest struct {
	SessionIDs []string `json:"session_ids" validate:"max=10,unique,dive,uuid"`
	Notes      *string  `json:"notes" validate:"omitempty,max=500"`
}

// CancelRegistrationRequest is the optional request body for DELETE /registrations/{id}.
type CancelRegistrationRequest struct {
	Reason *string `json:"reason" validate:"omitempty,min=5,max=500"`
}

// BulkCheckInRequest is the request body for POST /registrations/bulk-check-in.
type BulkCheckInRequest struct {
	QRCodes []string `json:"qr_codes" validate:"required,min=1,max=100,dive,required"`
}

// EventRegistrationsResponse is the data payload of GET /events/{id}/registrations.
type EventRegistrationsResponse struct {
	Items      []*domain.RegistrationWithUser `json:"items"`
	Stats      domain.RegistrationStats       `json:"stats"`
	Pagination h.PaginationMeta               `json:"pagination"`
}

// UserRegistrationsResponse is the data payload of GET /users/{userID}/registrations.
type UserRegistrationsResponse = h.Page[*domain.RegistrationWithEvent]

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Registers the caller for the event and, optionally, for sessions that require registration. The body may be omitted.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param body body RegisterRequest false "Sessions and notes"
// @Success 201 {object} helpers.APIResponse "data contains registration, event, sessions and available_slots"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (event full, started, invalid or full session)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Router /events/{id}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req RegisterRequest
	if !h.DecodeOptional(w, r, &req) {
		return
	}
	result, err := c.Service.Register(r.Context(), actor, eventID, req.SessionIDs, req.Notes)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, result)
}

// ListEventRegistrations godoc
// @Summary List an event's registrations
// @Description Owner or admin. Includes per-status statistics for the whole event.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param status query string false "registered, cancelled, attended or no-show"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items, stats and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/registrations [get]
func (c *RegistrationController) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	params := h.ParsePagination(r)
	status := domain.RegistrationStatus(r.URL.Query().Get("status"))
	items, total, stats, err := c.Service.ListEventRegistrations(r.Context(), actor, eventID, status, params)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, EventRegistrationsResponse{
		Items:      items,
		Stats:      stats,
		Pagination: h.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// ListUserRegistrations godoc
// @Summary List a user's registrations
// @Description The user themself or an admin.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID (UUID)"
// @Param status query string false "registered, cancelled, attended or no-show"
// @Param event_status query string false "upcoming, ongoing or finished"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /users/{userID}/registrations [get]
func (c *RegistrationController) ListUserRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	userID, ok := h.PathUUID(w, r, "userID")
	if !ok {
		return
	}
	params := h.ParsePagination(r)
	filter := domain.RegistrationListFilter{
		Status:      domain.RegistrationStatus(r.URL.Query().Get("status")),
		EventStatus: r.URL.Query().Get("event_status"),
	}
	items, total, err := c.Service.ListUserRegistrations(r.Context(), actor, userID, filter, params)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, h.NewPage(items, params, total))
}

// GetRegistration godoc
// @Summary Get a registration
// @Description Visible to the registrant, the event organizer or an admin.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains registration, event, sessions and certificate"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /registrations/{id} [get]
func (c *RegistrationController) GetRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	regID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	details, err := c.Service.GetRegistration(r.Context(), actor, regID)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, details)
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Registrant only, at least 24 hours before the event starts. Frees the event and session seats.
// @Tags registrations
// @Accept json
// @Security BearerAuth
// @Param id path string true "Registration ID (UUID)"
// @Param body body CancelRegistrationRequest false "Cancellation reason"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /registrations/{id} [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	regID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req CancelRegistrationRequest
	if !h.DecodeOptional(w, r, &req) {
		return
	}
	if err := c.Service.Cancel(r.Context(), actor, regID, req.Reason); err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckIn godoc
// @Summary Check in an attendee
// @Description Organizer or admin, while the event is in progress. A repeated check-in returns 409 with the stored timestamp in data.
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the attendance result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /registrations/{id}/check-in [post]
func (c *RegistrationController) CheckIn(w http.ResponseWriter, r *http.Request) {
	c.attendance(w, r, c.Service.CheckIn)
}

// CheckOut godoc
// @Summary Check out an attendee
// @Description Organizer or admin, after check-in. Issues the certificate when the event requires one. A repeated check-out returns 409 with the stored timestamps in data.
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the attendance result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /registrations/{id}/check-out [post]
func (c *RegistrationController) CheckOut(w http.ResponseWriter, r *http.Request) {
	c.attendance(w, r, c.Service.CheckOut)
}

type attendanceFunc func(ctx context.Context, actor domain.Principal, registrationID string) (*domain.AttendanceResult, error)

func (c *RegistrationController) attendance(w http.ResponseWriter, r *http.Request, fn attendanceFunc) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	regID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := fn(r.Context(), actor, regID)
	if err != nil {
		if result != nil && errors.Is(err, domain.ErrConflict) {
			h.WriteJSONErrorWithData(w, http.StatusConflict, h.ErrCodeConflict, err.Error(), result)
			return
		}
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// BulkCheckIn godoc
// @Summary Check in attendees by QR code
// @Description Organizer or admin. Each code is processed independently; the response lists per-code results and totals.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BulkCheckInRequest true "QR codes (1 to 100)"
// @Success 200 {object} helpers.APIResponse "data contains results, total, successful and failed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /registrations/bulk-check-in [post]
func (c *RegistrationController) BulkCheckIn(w http.ResponseWriter, r *http.Request) {
	var req BulkCheckInRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	result, err := c.Service.BulkCheckIn(r.Context(), actor, req.QRCodes)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}
