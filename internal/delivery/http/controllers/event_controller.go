package controllers

import (
	"log/slog"
	"net/http"
	"time"

	h "academicevents/internal/delivery/http/helpers"
	"academicevents/internal/delivery/http/middleware"
	"academicevents/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	CategoryID          string    `json:"category_id" validate:"required,uuid"`
	Title               string    `json:"title" validate:"required,min=3,max=200"`
	Description         string    `json:"description" validate:"required,min=10"`
	ShortDescription    *string   `json:"short_description" validate:"omitempty,max=300"`
	Location            string    `json:"location" validate:"required,max=200"`
	Address             *string   `json:"address" validate:"omitempty,max=300"`
	ImageURL            *string   `json:"image_url" validate:"omitempty,url"`
	StartDate           time.Time `json:"start_date" validate:"required"`
	EndDate             time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	MaxCapacity         int       `json:"max_capacity" validate:"required,min=1,max=10000"`
	IsFeatured          bool      `json:"is_featured"`
	RequiresCertificate bool      `json:"requires_certificate"`
	Tags                []string  `json:"tags" validate:"max=20,dive,required,max=50"`
}

func (req *CreateEventRequest) event() *domain.Event {
	e := domain.NewEvent("", req.CategoryID, req.Title, req.Description, req.Location, req.StartDate, req.EndDate, req.MaxCapacity, time.Time{}, time.Time{})
	e.ShortDescription = req.ShortDescription
	e.Address = req.Address
	e.ImageURL = req.ImageURL
	e.IsFeatured = req.IsFeatured
	e.RequiresCertificate = req.RequiresCertificate
	if req.Tags != nil {
		e.Tags = req.Tags
	}
	return e
}

// UpdateEventRequest is the request body for PUT /events/{id}. Omitted fields are left unchanged.
type UpdateEventRequest struct {
	CategoryID          *string    `json:"category_id" validate:"omitempty,uuid"`
	Title               *string    `json:"title" validate:"omitempty,min=3,max=200"`
	Description         *string    `json:"description" validate:"omitempty,min=10"`
	ShortDescription    *string    `json:"short_description" validate:"omitempty,max=300"`
	Location            *string    `json:"location" validate:"omitempty,max=200"`
	Address             *string    `json:"address" validate:"omitempty,max=300"`
	ImageURL            *string    `json:"image_url" validate:"omitempty,url"`
	StartDate           *time.Time `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
	MaxCapacity         *int       `json:"max_capacity" validate:"omitempty,min=1,max=10000"`
	IsFeatured          *bool      `json:"is_featured"`
	RequiresCertificate *bool      `json:"requires_certificate"`
	Tags                []string   `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
}

// Validate checks the date range when both ends are supplied.
func (req UpdateEventRequest) Validate() []string {
	if req.StartDate != nil && req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
		return []string{"end_date must be after start_date"}
	}
	return nil
}

func (req *UpdateEventRequest) update() domain.EventUpdate {
	return domain.EventUpdate{
		CategoryID:          req.CategoryID,
		Title:               req.Title,
		Description:         req.Description,
		ShortDescription:    req.ShortDescription,
		Location:            req.Location,
		Address:             req.Address,
		ImageURL:            req.ImageURL,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		MaxCapacity:         req.MaxCapacity,
		IsFeatured:          req.IsFeatured,
		RequiresCertificate: req.RequiresCertificate,
		Tags:                req.Tags,
	}
}

// AddSessionRequest is the request body for POST /events/{id}/sessions.
type AddSessionRequest struct {
	Title                string    `json:"title" validate:"required,max=200"`
	Description          *string   `json:"description"`
	Speaker              *string   `json:"speaker" validate:"omitempty,max=200"`
	StartTime            time.Time `json:"start_time" validate:"required"`
	EndTime              time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	MaxCapacity          *int      `json:"max_capacity" validate:"omitempty,min=1"`
	RequiresRegistration bool      `json:"requires_registration"`
}

// EventListResponse is the data payload of GET /events.
type EventListResponse = h.Page[*domain.EventSummary]

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Active events that have not finished, featured first and then by start date. Each item includes available_slots and registration_status.
// @Tags events
// @Produce json
// @Param category_id query string false "Category ID (UUID)"
// @Param search query string false "Matches title, description, location or tag"
// @Param featured query bool false "Only featured events"
// @Param from query string false "Start date lower bound (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "Start date upper bound (RFC 3339 or YYYY-MM-DD)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		CategoryID: q.Get("category_id"),
		Search:     q.Get("search"),
		Featured:   h.QueryBool(r, "featured"),
	}
	var ok bool
	if filter.From, ok = queryTime(r, "from"); !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "from must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return
	}
	if filter.To, ok = queryTime(r, "to"); !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "to must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return
	}
	params := h.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), filter, params)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, h.NewPage(events, params, total))
}

// ListFeatured godoc
// @Summary List featured events
// @Description Up to five upcoming featured events.
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains featured events"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/featured [get]
func (c *EventController) ListFeatured(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListFeatured(r.Context())
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get event details
// @Description Event with category, sessions and tags. When a valid token is sent the caller's registration is included.
// @Tags events
// @Produce json
// @Param id path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the event details"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var viewer *domain.Principal
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		viewer = &p
	}
	details, err := c.Service.GetEvent(r.Context(), eventID, viewer)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, details)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Organizers and admins only. The caller becomes the organizer.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	event := req.event()
	if err := c.Service.CreateEvent(r.Context(), actor, event); err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Owner or admin. Only supplied fields change; max_capacity cannot drop below current registrations.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), actor, eventID, req.update())
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Soft delete. Refused while the event has registrations.
// @Tags events
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), actor, eventID); err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSession godoc
// @Summary Add a session to an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param body body AddSessionRequest true "Session data"
// @Success 201 {object} helpers.APIResponse "data contains the created session"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/sessions [post]
func (c *EventController) AddSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req AddSessionRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	session := domain.NewEventSession(eventID, req.Title, req.StartTime, req.EndTime, req.MaxCapacity, req.RequiresRegistration, time.Time{}, time.Time{})
	session.Description = req.Description
	session.Speaker = req.Speaker
	if err := c.Service.AddSession(r.Context(), actor, session); err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, session)
}

// ListCategories godoc
// @Summary List event categories
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains categories ordered by name"
// @Router /categories [get]
func (c *EventController) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.Service.ListCategories(r.Context())
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, categories)
}
