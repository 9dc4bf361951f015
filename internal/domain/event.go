package domain

import (
	"context"
	"time"
)

// Availability values reported for an event.
const (
	AvailabilityAvailable = "available"
	AvailabilityFull      = "full"
)

// Event lifecycle relative to a point in time.
const (
	EventStatusUpcoming = "upcoming"
	EventStatusOngoing  = "ongoing"
	EventStatusFinished = "finished"
)

// Event represents an academic event organized by a user.
// swagger:model Event
type Event struct {
	ID                   string    `json:"id"`
	OrganizerID          string    `json:"organizer_id"`
	CategoryID           string    `json:"category_id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	ShortDescription     *string   `json:"short_description,omitempty"`
	Location             string    `json:"location"`
	Address              *string   `json:"address,omitempty"`
	ImageURL             *string   `json:"image_url,omitempty"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	MaxCapacity          int       `json:"max_capacity"`
	CurrentRegistrations int       `json:"current_registrations"`
	IsActive             bool      `json:"is_active"`
	IsFeatured           bool      `json:"is_featured"`
	RequiresCertificate  bool      `json:"requires_certificate"`
	Tags                 []string  `json:"tags"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewEvent returns a new active Event. ID is typically set by the repository on create.
func NewEvent(organizerID, categoryID, title, description, location string, start, end time.Time, maxCapacity int, createdAt, updatedAt time.Time) *Event {
	return &Event{
		OrganizerID: organizerID,
		CategoryID:  categoryID,
		Title:       title,
		Description: description,
		Location:    location,
		StartDate:   start,
		EndDate:     end,
		MaxCapacity: maxCapacity,
		IsActive:    true,
		Tags:        []string{},
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// AvailableSlots is the declared capacity minus current registrations, never negative.
func (e *Event) AvailableSlots() int {
	if n := e.MaxCapacity - e.CurrentRegistrations; n > 0 {
		return n
	}
	return 0
}

// IsFull reports whether the registration counter reached capacity.
func (e *Event) IsFull() bool { return e.CurrentRegistrations >= e.MaxCapacity }

// Availability returns AvailabilityFull or AvailabilityAvailable.
func (e *Event) Availability() string {
	if e.IsFull() {
		return AvailabilityFull
	}
	return AvailabilityAvailable
}

// StatusAt classifies the event relative to now.
func (e *Event) StatusAt(now time.Time) string {
	switch {
	case now.Before(e.StartDate):
		return EventStatusUpcoming
	case now.After(e.EndDate):
		return EventStatusFinished
	default:
		return EventStatusOngoing
	}
}

// InProgress reports whether now falls within [StartDate, EndDate].
func (e *Event) InProgress(now time.Time) bool {
	return !now.Before(e.StartDate) && !now.After(e.EndDate)
}

// Category groups events (e.g. conference, workshop, seminar).
// swagger:model Category
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// EventFilter narrows event listings. Zero values mean "no filter".
type EventFilter struct {
	CategoryID string
	Search     string
	Featured   *bool
	From       *time.Time
	To         *time.Time
	// EndsAfter hides events that already finished.
	EndsAfter *time.Time
}

// EventSummary is an event with its computed availability for list views.
// swagger:model EventSummary
type EventSummary struct {
	*Event
	CategoryName       string `json:"category_name"`
	AvailableSlots     int    `json:"available_slots"`
	RegistrationStatus string `json:"registration_status"`
}

// NewEventSummary computes the availability fields for e.
func NewEventSummary(e *Event, categoryName string) *EventSummary {
	return &EventSummary{
		Event:              e,
		CategoryName:       categoryName,
		AvailableSlots:     e.AvailableSlots(),
		RegistrationStatus: e.Availability(),
	}
}

// EventDetails is the full view of one event.
// swagger:model EventDetails
type EventDetails struct {
	EventSummary
	Category         *Category          `json:"category,omitempty"`
	Sessions         []*EventSession    `json:"sessions"`
	UserRegistration *EventRegistration `json:"user_registration,omitempty"`
}

// EventUpdate holds optional changes to an event; nil fields are unchanged.
type EventUpdate struct {
	CategoryID          *string
	Title               *string
	Description         *string
	ShortDescription    *string
	Location            *string
	Address             *string
	ImageURL            *string
	StartDate           *time.Time
	EndDate             *time.Time
	MaxCapacity         *int
	IsFeatured          *bool
	RequiresCertificate *bool
	Tags                []string
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	// Create inserts the event and links its Tags in one transaction.
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*EventSummary, int, error)
	ListFeatured(ctx context.Context, now time.Time, limit int) ([]*EventSummary, error)
	ListUpcomingByOrganizer(ctx context.Context, organizerID string, now time.Time, limit int) ([]*Event, error)
	// Update writes the editable columns; with replaceTags the tag links are
	// swapped for event.Tags in the same transaction.
	Update(ctx context.Context, event *Event, replaceTags bool) error
	SoftDelete(ctx context.Context, id string, updatedAt time.Time) error
}

// CategoryRepository reads event categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
}

// EventService defines event management and catalogue reads.
type EventService interface {
	CreateEvent(ctx context.Context, actor Principal, event *Event) error
	GetEvent(ctx context.Context, eventID string, viewer *Principal) (*EventDetails, error)
	ListEvents(ctx context.Context, filter EventFilter, params PaginationParams) ([]*EventSummary, int, error)
	ListFeatured(ctx context.Context) ([]*EventSummary, error)
	UpdateEvent(ctx context.Context, actor Principal, eventID string, update EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, actor Principal, eventID string) error
	AddSession(ctx context.Context, actor Principal, session *EventSession) error
	ListCategories(ctx context.Context) ([]*Category, error)
}
