package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"academicevents/internal/domain"
)

const notificationColumns = `id, user_id, type, title, message, related_entity_type, related_entity_id, is_read, read_at, created_at`

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

func scanNotification(s rowScanner) (*domain.Notification, error) {
	n := &domain.Notification{}
	var relType, relID sql.NullString
	var readAt sql.NullTime
	if err := s.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &relType, &relID, &n.IsRead, &readAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.RelatedEntityType = stringPtr(relType)
	n.RelatedEntityID = stringPtr(relID)
	n.ReadAt = timePtr(readAt)
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, related_entity_type, related_entity_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, n.UserID, n.Type, n.Title, n.Message,
		n.RelatedEntityType, n.RelatedEntityID, n.IsRead, n.CreatedAt).Scan(&n.ID)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND (NOT $2 OR NOT is_read)`
	if err := r.DB.QueryRowContext(ctx, countQuery, userID, unreadOnly).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, unreadOnly, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID string, at time.Time) (*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns
	n, err := scanNotification(r.DB.QueryRowContext(ctx, query, id, userID, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}
