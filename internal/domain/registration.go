package domain

import (
	"context"
	"time"
)

// RegistrationStatus is the lifecycle state of an EventRegistration.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusCancelled  RegistrationStatus = "cancelled"
	StatusAttended   RegistrationStatus = "attended"
	// StatusNoShow is accepted as a list filter; no workflow assigns it.
	StatusNoShow RegistrationStatus = "no-show"
)

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusCancelled, StatusAttended, StatusNoShow:
		return true
	}
	return false
}

// MinCancellationNotice is how long before the event start a registration may still be cancelled.
const MinCancellationNotice = 24 * time.Hour

// MaxSessionsPerRegistration caps the sessions selectable in one registration.
const MaxSessionsPerRegistration = 10

// EventRegistration represents an attendee's registration for an event.
// swagger:model EventRegistration
type EventRegistration struct {
	ID                 string             `json:"id"`
	EventID            string             `json:"event_id"`
	UserID             string             `json:"user_id"`
	Status             RegistrationStatus `json:"status"`
	RegistrationDate   time.Time          `json:"registration_date"`
	QRCode             string             `json:"qr_code"`
	Notes              *string            `json:"notes,omitempty"`
	CancellationReason *string            `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CheckedInAt        *time.Time         `json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time         `json:"checked_out_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewEventRegistration creates a registration in the registered state. ID is typically set by the repository on create.
func NewEventRegistration(eventID, userID, qrCode string, notes *string, now time.Time) *EventRegistration {
	return &EventRegistration{
		EventID:          eventID,
		UserID:           userID,
		Status:           StatusRegistered,
		RegistrationDate: now,
		QRCode:           qrCode,
		Notes:            notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// RegistrationWithEvent bundles a registration with its event and the event status at read time.
// swagger:model RegistrationWithEvent
type RegistrationWithEvent struct {
	Registration *EventRegistration `json:"registration"`
	Event        *Event             `json:"event"`
	EventStatus  string             `json:"event_status"`
}

// RegistrationWithUser bundles a registration with the registrant for organizer views.
// swagger:model RegistrationWithUser
type RegistrationWithUser struct {
	Registration *EventRegistration `json:"registration"`
	UserName     string             `json:"user_name"`
	UserEmail    string             `json:"user_email"`
}

// RegistrationDetails is a single registration with its event and sessions.
// swagger:model RegistrationDetails
type RegistrationDetails struct {
	Registration *EventRegistration `json:"registration"`
	Event        *Event             `json:"event"`
	Sessions     []*EventSession    `json:"sessions"`
	Certificate  *Certificate       `json:"certificate,omitempty"`
}

// RegistrationResult is returned by a successful registration.
// swagger:model RegistrationResult
type RegistrationResult struct {
	Registration   *EventRegistration `json:"registration"`
	Event          *Event             `json:"event"`
	Sessions       []*EventSession    `json:"sessions"`
	AvailableSlots int                `json:"available_slots"`
}

// RegistrationStats counts an event's registrations by status.
// swagger:model RegistrationStats
type RegistrationStats struct {
	Total      int `json:"total"`
	Registered int `json:"registered"`
	Attended   int `json:"attended"`
	Cancelled  int `json:"cancelled"`
}

// RegistrationListFilter narrows a user's registration listing.
type RegistrationListFilter struct {
	Status      RegistrationStatus
	EventStatus string
	Now         time.Time
}

// AttendanceResult is the outcome of a check-in or check-out. On
// ErrAlreadyCheckedIn/ErrAlreadyCheckedOut it still carries the stored timestamp.
// swagger:model AttendanceResult
type AttendanceResult struct {
	RegistrationID             string     `json:"registration_id"`
	CheckedInAt                *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt               *time.Time `json:"checked_out_at,omitempty"`
	CertificateWillBeGenerated bool       `json:"certificate_will_be_generated"`
}

// BulkCheckInItem is the per-code outcome of a bulk check-in.
// swagger:model BulkCheckInItem
type BulkCheckInItem struct {
	QRCode         string     `json:"qr_code"`
	Success        bool       `json:"success"`
	RegistrationID string     `json:"registration_id,omitempty"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// BulkCheckInResult summarizes a bulk check-in.
// swagger:model BulkCheckInResult
type BulkCheckInResult struct {
	Results    []BulkCheckInItem `json:"results"`
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
}

// RegistrationRepository defines storage for registrations. Register, Cancel,
// CheckIn and CheckOut each run as a single transaction that also appends
// the given activity row.
type RegistrationRepository interface {
	GetByID(ctx context.Context, id string) (*EventRegistration, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*EventRegistration, error)
	GetByQRCode(ctx context.Context, qrCode string) (*EventRegistration, error)
	ListByUser(ctx context.Context, userID string, filter RegistrationListFilter, params PaginationParams) ([]*RegistrationWithEvent, int, error)
	ListByEvent(ctx context.Context, eventID string, status RegistrationStatus, params PaginationParams) ([]*RegistrationWithUser, int, error)
	StatsByEvent(ctx context.Context, eventID string) (RegistrationStats, error)

	// Register inserts reg and its session links, increments the event and
	// session counters under capacity guards and returns the event counter
	// after the increment.
	Register(ctx context.Context, reg *EventRegistration, sessionIDs []string, activity *UserActivity) (eventCount int, err error)
	// Cancel marks a registered row cancelled, removes its session links and
	// decrements the counters.
	Cancel(ctx context.Context, registrationID, reason string, at time.Time, activity *UserActivity) error
	// CheckIn sets checked_in_at once and moves the status to attended.
	CheckIn(ctx context.Context, registrationID string, at time.Time, activity *UserActivity) error
	// CheckOut sets checked_out_at once after check-in. A non-nil cert is
	// inserted in the same transaction.
	CheckOut(ctx context.Context, registrationID string, at time.Time, cert *Certificate, activity *UserActivity) error
}

// RegistrationService is the registration and attendance workflow.
type RegistrationService interface {
	Register(ctx context.Context, actor Principal, eventID string, sessionIDs []string, notes *string) (*RegistrationResult, error)
	Cancel(ctx context.Context, actor Principal, registrationID string, reason *string) error
	GetRegistration(ctx context.Context, actor Principal, registrationID string) (*RegistrationDetails, error)
	ListUserRegistrations(ctx context.Context, actor Principal, userID string, filter RegistrationListFilter, params PaginationParams) ([]*RegistrationWithEvent, int, error)
	ListEventRegistrations(ctx context.Context, actor Principal, eventID string, status RegistrationStatus, params PaginationParams) ([]*RegistrationWithUser, int, RegistrationStats, error)

	CheckIn(ctx context.Context, actor Principal, registrationID string) (*AttendanceResult, error)
	CheckOut(ctx context.Context, actor Principal, registrationID string) (*AttendanceResult, error)
	BulkCheckIn(ctx context.Context, actor Principal, qrCodes []string) (*BulkCheckInResult, error)
}
