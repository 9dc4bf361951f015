package postgres

import (
	"context"
	"database/sql"

	"academicevents/internal/domain"

	"github.com/lib/pq"
)

const sessionColumns = `s.id, s.event_id, s.title, s.description, s.speaker, s.start_time, s.end_time,
	s.max_capacity, s.current_registrations, s.is_active, s.requires_registration, s.created_at, s.updated_at`

type SessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) domain.SessionRepository {
	return &SessionRepository{
		DB: db,
	}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.EventSession) error {
	query := `
		INSERT INTO event_sessions (event_id, title, description, speaker, start_time, end_time, max_capacity,
			current_registrations, is_active, requires_registration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		s.EventID, s.Title, s.Description, s.Speaker, s.StartTime, s.EndTime, s.MaxCapacity,
		s.CurrentRegistrations, s.IsActive, s.RequiresRegistration, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
}

func (r *SessionRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM event_sessions s
		WHERE s.event_id = $1 AND s.is_active
		ORDER BY s.start_time
	`
	return r.list(ctx, query, eventID)
}

func (r *SessionRepository) ListRegistrable(ctx context.Context, eventID string, ids []string) ([]*domain.EventSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM event_sessions s
		WHERE s.event_id = $1 AND s.id::text = ANY($2) AND s.is_active AND s.requires_registration
		ORDER BY s.start_time
	`
	return r.list(ctx, query, eventID, pq.Array(ids))
}

func (r *SessionRepository) ListByRegistrationID(ctx context.Context, registrationID string) ([]*domain.EventSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM event_sessions s
		INNER JOIN session_registrations sr ON sr.session_id = s.id
		WHERE sr.event_registration_id = $1
		ORDER BY s.start_time
	`
	return r.list(ctx, query, registrationID)
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.EventSession, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*domain.EventSession, 0)
	for rows.Next() {
		s := &domain.EventSession{}
		var desc, speaker sql.NullString
		var maxCap sql.NullInt64
		if err := rows.Scan(&s.ID, &s.EventID, &s.Title, &desc, &speaker, &s.StartTime, &s.EndTime,
			&maxCap, &s.CurrentRegistrations, &s.IsActive, &s.RequiresRegistration, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Description = stringPtr(desc)
		s.Speaker = stringPtr(speaker)
		s.MaxCapacity = intPtr(maxCap)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
