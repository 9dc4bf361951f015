package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"academicevents/internal/domain"
)

const activityColumns = `a.id, a.user_id, a.activity_type, a.description, a.related_entity_type, a.related_entity_id, a.metadata, a.created_at`

type activityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(db *sql.DB) domain.ActivityRepository {
	return &activityRepository{DB: db}
}

func (r *activityRepository) Create(ctx context.Context, a *domain.UserActivity) error {
	return insertActivity(ctx, r.DB, a)
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.UserActivity, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_activities WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + activityColumns + `
		FROM user_activities a
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`
	items, err := r.list(ctx, query, userID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByOrganizer returns activity attached to events owned by organizerID,
// or to any event when organizerID is empty.
func (r *activityRepository) ListByOrganizer(ctx context.Context, organizerID string, limit int) ([]*domain.UserActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM user_activities a
		INNER JOIN events e ON a.related_entity_type = 'event' AND a.related_entity_id = e.id::text
		WHERE $1 = '' OR e.organizer_id::text = $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, organizerID, limit)
}

func (r *activityRepository) list(ctx context.Context, query string, args ...any) ([]*domain.UserActivity, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.UserActivity, 0)
	for rows.Next() {
		a := &domain.UserActivity{}
		var relType, relID sql.NullString
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.Description, &relType, &relID, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.RelatedEntityType = stringPtr(relType)
		a.RelatedEntityID = stringPtr(relID)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("decode activity metadata: %w", err)
			}
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
