package postgres

import (
	"context"
	"database/sql"
	"time"

	"academicevents/internal/domain"
)

// Every query below treats an empty organizerID as "all organizers".
const organizerScope = `($1 = '' OR e.organizer_id::text = $1)`

type statsRepository struct {
	DB *sql.DB
}

func NewStatsRepository(db *sql.DB) domain.StatsRepository {
	return &statsRepository{DB: db}
}

func (r *statsRepository) CountEvents(ctx context.Context, organizerID string, now time.Time) (domain.EventStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE e.is_active),
			COUNT(*) FILTER (WHERE e.is_active AND e.start_date > $2),
			COUNT(*) FILTER (WHERE e.is_active AND e.end_date < $2)
		FROM events e
		WHERE ` + organizerScope
	var s domain.EventStats
	err := r.DB.QueryRowContext(ctx, query, organizerID, now).Scan(&s.Total, &s.Active, &s.Upcoming, &s.Completed)
	return s, err
}

func (r *statsRepository) CountEventsCreated(ctx context.Context, organizerID string, tr domain.TimeRange) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM events e
		WHERE ` + organizerScope + ` AND e.created_at >= $2 AND e.created_at < $3
	`
	return r.count(ctx, query, organizerID, tr.From, tr.To)
}

func (r *statsRepository) CountRegistrations(ctx context.Context, organizerID string, tr *domain.TimeRange) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM event_registrations er
		INNER JOIN events e ON e.id = er.event_id
		WHERE ` + organizerScope + ` AND er.status IN ('registered', 'attended')
	`
	if tr == nil {
		return r.count(ctx, query, organizerID)
	}
	return r.count(ctx, query+` AND er.registration_date >= $2 AND er.registration_date < $3`, organizerID, tr.From, tr.To)
}

func (r *statsRepository) CountCheckIns(ctx context.Context, organizerID string, tr domain.TimeRange) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM event_registrations er
		INNER JOIN events e ON e.id = er.event_id
		WHERE ` + organizerScope + ` AND er.checked_in_at >= $2 AND er.checked_in_at < $3
	`
	return r.count(ctx, query, organizerID, tr.From, tr.To)
}

func (r *statsRepository) CountExpectedAttendees(ctx context.Context, organizerID string, tr domain.TimeRange) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM event_registrations er
		INNER JOIN events e ON e.id = er.event_id
		WHERE ` + organizerScope + ` AND e.is_active AND er.status IN ('registered', 'attended')
			AND e.start_date < $3 AND e.end_date >= $2
	`
	return r.count(ctx, query, organizerID, tr.From, tr.To)
}

func (r *statsRepository) CountCertificates(ctx context.Context, organizerID string, tr *domain.TimeRange) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM certificates c
		INNER JOIN events e ON e.id = c.event_id
		WHERE ` + organizerScope + ` AND c.status IN ('issued', 'downloaded')
	`
	if tr == nil {
		return r.count(ctx, query, organizerID)
	}
	return r.count(ctx, query+` AND c.issued_date >= $2 AND c.issued_date < $3`, organizerID, tr.From, tr.To)
}

func (r *statsRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
