package domain

import (
	"context"
	"time"
)

// Activity types appended to the audit log.
const (
	ActivityEventRegistered = "event_registered"
	ActivityEventCancelled  = "event_cancelled"
	ActivityEventAttended   = "event_attended"
	ActivityEventCheckedOut = "event_checked_out"
	ActivityEventCreated    = "event_created"
	ActivityEventUpdated    = "event_updated"
	ActivityEventDeleted    = "event_deleted"
	ActivityProfileUpdated  = "profile_updated"
	ActivityPasswordChanged = "password_changed"
	ActivityEmailChanged    = "email_changed"
	ActivityUserRegistered  = "user_registered"
	ActivityRoleAssigned    = "role_assigned"
)

// UserActivity is an append-only audit row.
// swagger:model UserActivity
type UserActivity struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	ActivityType      string         `json:"activity_type"`
	Description       string         `json:"description"`
	RelatedEntityType *string        `json:"related_entity_type,omitempty"`
	RelatedEntityID   *string        `json:"related_entity_id,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// NewUserActivity builds an activity row about the given entity.
func NewUserActivity(userID, activityType, description, entityType, entityID string, metadata map[string]any, at time.Time) *UserActivity {
	a := &UserActivity{
		UserID:       userID,
		ActivityType: activityType,
		Description:  description,
		Metadata:     metadata,
		CreatedAt:    at,
	}
	if entityType != "" {
		a.RelatedEntityType = &entityType
	}
	if entityID != "" {
		a.RelatedEntityID = &entityID
	}
	return a
}

// ActivityRepository stores audit rows written outside registration transactions.
type ActivityRepository interface {
	Create(ctx context.Context, a *UserActivity) error
	ListByUser(ctx context.Context, userID string, params PaginationParams) ([]*UserActivity, int, error)
	// ListByOrganizer returns recent activity on events organized by organizerID.
	ListByOrganizer(ctx context.Context, organizerID string, limit int) ([]*UserActivity, error)
}

// ActivityLogger appends audit rows; failures are logged, never returned.
type ActivityLogger interface {
	Log(ctx context.Context, a *UserActivity)
}
