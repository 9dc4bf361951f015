package domain

import (
	"context"
	"time"
)

// EventSession is a sub-unit of an event with its own schedule and optional capacity.
// swagger:model EventSession
type EventSession struct {
	ID                   string    `json:"id"`
	EventID              string    `json:"event_id"`
	Title                string    `json:"title"`
	Description          *string   `json:"description,omitempty"`
	Speaker              *string   `json:"speaker,omitempty"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	MaxCapacity          *int      `json:"max_capacity,omitempty"`
	CurrentRegistrations int       `json:"current_registrations"`
	IsActive             bool      `json:"is_active"`
	RequiresRegistration bool      `json:"requires_registration"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewEventSession returns an active session. ID is typically set by the repository on create.
func NewEventSession(eventID, title string, start, end time.Time, maxCapacity *int, requiresRegistration bool, createdAt, updatedAt time.Time) *EventSession {
	return &EventSession{
		EventID:              eventID,
		Title:                title,
		StartTime:            start,
		EndTime:              end,
		MaxCapacity:          maxCapacity,
		IsActive:             true,
		RequiresRegistration: requiresRegistration,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}
}

// IsFull reports whether a capped session has no seats left. Uncapped sessions are never full.
func (s *EventSession) IsFull() bool {
	return s.MaxCapacity != nil && s.CurrentRegistrations >= *s.MaxCapacity
}

// SessionRepository defines storage for event sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *EventSession) error
	ListByEventID(ctx context.Context, eventID string) ([]*EventSession, error)
	// ListRegistrable returns the sessions among ids that belong to eventID and
	// are active and registration-required.
	ListRegistrable(ctx context.Context, eventID string, ids []string) ([]*EventSession, error)
	ListByRegistrationID(ctx context.Context, registrationID string) ([]*EventSession, error)
}
