package domain

import (
	"context"
	"time"
)

// Notification types.
const (
	NotificationEvent       = "event"
	NotificationCertificate = "certificate"
	NotificationSecurity    = "security"
	NotificationSystem      = "system"
)

// Related entity types referenced by notifications and activity rows.
const (
	EntityEvent        = "event"
	EntityRegistration = "registration"
	EntityCertificate  = "certificate"
	EntityUser         = "user"
)

// Notification is an in-app message for a user.
// swagger:model Notification
type Notification struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Type              string     `json:"type"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	RelatedEntityType *string    `json:"related_entity_type,omitempty"`
	RelatedEntityID   *string    `json:"related_entity_id,omitempty"`
	IsRead            bool       `json:"is_read"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NotificationRepository defines storage for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, params PaginationParams) ([]*Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkAsRead returns ErrNotFound when the notification does not belong to userID.
	MarkAsRead(ctx context.Context, id, userID string, at time.Time) (*Notification, error)
}

// NotificationPage is a page of notifications with the unread total.
type NotificationPage struct {
	Items       []*Notification
	Total       int
	UnreadCount int
}

// NotificationService creates and reads notifications.
type NotificationService interface {
	Notify(ctx context.Context, userID, kind, title, message string, relatedType, relatedID *string) (*Notification, error)
	List(ctx context.Context, actor Principal, unreadOnly bool, params PaginationParams) (*NotificationPage, error)
	MarkAsRead(ctx context.Context, actor Principal, notificationID string) (*Notification, error)
}
