package controllers

import (
	"log/slog"
	"net/http"
	"time"

	h "academicevents/internal/delivery/http/helpers"
	"academicevents/internal/domain"
)

// UpdateProfileRequest is the request body for PUT /profile.
type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,max=100"`
	Phone           *string `json:"phone" validate:"omitempty,max=30"`
	Institution     *string `json:"institution" validate:"omitempty,max=200"`
	Occupation      *string `json:"occupation" validate:"omitempty,max=100"`
	Biography       *string `json:"biography" validate:"omitempty,max=1000"`
	Country         *string `json:"country" validate:"omitempty,max=100"`
	City            *string `json:"city" validate:"omitempty,max=100"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url"`
	// DateOfBirth is YYYY-MM-DD.
	DateOfBirth *string `json:"date_of_birth"`
}

// Validate checks the date_of_birth format.
func (req UpdateProfileRequest) Validate() []string {
	if req.DateOfBirth == nil || *req.DateOfBirth == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, *req.DateOfBirth); err != nil {
		return []string{"date_of_birth must be a date in YYYY-MM-DD format"}
	}
	return nil
}

func (req *UpdateProfileRequest) profile() *domain.UserProfile {
	p := &domain.UserProfile{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Institution:     req.Institution,
		Occupation:      req.Occupation,
		Biography:       req.Biography,
		Country:         req.Country,
		City:            req.City,
		ProfileImageURL: req.ProfileImageURL,
	}
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		if dob, err := time.Parse(time.DateOnly, *req.DateOfBirth); err == nil {
			p.DateOfBirth = &dob
		}
	}
	return p
}

// ChangePasswordRequest is the request body for PUT /profile/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ChangeEmailRequest is the request body for PUT /profile/email.
type ChangeEmailRequest struct {
	NewEmail string `json:"new_email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// NotificationPreferencesRequest is the request body for PUT /profile/notification-preferences.
type NotificationPreferencesRequest struct {
	EmailNotifications bool `json:"email_notifications"`
	EventReminders     bool `json:"event_reminders"`
	EventUpdates       bool `json:"event_updates"`
	CertificateReady   bool `json:"certificate_ready"`
	MarketingEmails    bool `json:"marketing_emails"`
}

// ActivityListResponse is the data payload of GET /profile/activity.
type ActivityListResponse = h.Page[*domain.UserActivity]

type ProfileController struct {
	Logger  *slog.Logger
	Service domain.ProfileService
}

func NewProfileController(logger *slog.Logger, svc domain.ProfileService) *ProfileController {
	return &ProfileController{
		Logger:  logger,
		Service: svc,
	}
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Description User with roles, personal data, notification preferences (defaults when never saved) and participation statistics.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the profile view"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /profile [get]
func (c *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	view, err := c.Service.GetProfile(r.Context(), actor)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, view)
}

// UpdateProfile godoc
// @Summary Update personal data
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Personal data"
// @Success 200 {object} helpers.APIResponse "data contains the saved profile"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile [put]
func (c *ProfileController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	profile, err := c.Service.UpdatePersonalData(r.Context(), actor, req.profile())
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, profile)
}

// ChangePassword godoc
// @Summary Change password
// @Description Requires the current password; the new password must differ.
// @Tags profile
// @Accept json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Current and new password"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/password [put]
func (c *ProfileController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ChangePassword(r.Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeEmail godoc
// @Summary Change email
// @Description Requires the password. Returns 409 when the address is taken.
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangeEmailRequest true "New email and password"
// @Success 200 {object} helpers.APIResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /profile/email [put]
func (c *ProfileController) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req ChangeEmailRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.ChangeEmail(r.Context(), actor, req.NewEmail, req.Password)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateNotificationPreferences godoc
// @Summary Update notification preferences
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NotificationPreferencesRequest true "Preferences"
// @Success 200 {object} helpers.APIResponse "data contains the saved preferences"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/notification-preferences [put]
func (c *ProfileController) UpdateNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req NotificationPreferencesRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	prefs, err := c.Service.UpdateNotificationPreferences(r.Context(), actor, &domain.NotificationPreferences{
		EmailNotifications: req.EmailNotifications,
		EventReminders:     req.EventReminders,
		EventUpdates:       req.EventUpdates,
		CertificateReady:   req.CertificateReady,
		MarketingEmails:    req.MarketingEmails,
	})
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, prefs)
}

// ListActivity godoc
// @Summary List the caller's activity
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/activity [get]
func (c *ProfileController) ListActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	params := h.ParsePagination(r)
	items, total, err := c.Service.ListActivity(r.Context(), actor, params)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, h.NewPage(items, params, total))
}
