package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"academicevents/internal/domain"

	"github.com/lib/pq"
)

const registrationColumns = `er.id, er.event_id, er.user_id, er.status, er.registration_date, er.qr_code, er.notes,
	er.cancellation_reason, er.cancelled_at, er.checked_in_at, er.checked_out_at, er.created_at, er.updated_at`

const registrationUserEventKey = "event_registrations_user_event_key"

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

// registrationRow holds the nullable scan targets for one registration.
type registrationRow struct {
	reg                      domain.EventRegistration
	notes, reason            sql.NullString
	cancelledAt, inAt, outAt sql.NullTime
}

func (row *registrationRow) dest() []any {
	return []any{
		&row.reg.ID, &row.reg.EventID, &row.reg.UserID, &row.reg.Status, &row.reg.RegistrationDate, &row.reg.QRCode,
		&row.notes, &row.reason, &row.cancelledAt, &row.inAt, &row.outAt, &row.reg.CreatedAt, &row.reg.UpdatedAt,
	}
}

func (row *registrationRow) registration() *domain.EventRegistration {
	reg := row.reg
	reg.Notes = stringPtr(row.notes)
	reg.CancellationReason = stringPtr(row.reason)
	reg.CancelledAt = timePtr(row.cancelledAt)
	reg.CheckedInAt = timePtr(row.inAt)
	reg.CheckedOutAt = timePtr(row.outAt)
	return &reg
}

func (r *registrationRepository) getOne(ctx context.Context, where string, arg string) (*domain.EventRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM event_registrations er WHERE ` + where
	var row registrationRow
	if err := r.DB.QueryRowContext(ctx, query, arg).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return row.registration(), nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.EventRegistration, error) {
	return r.getOne(ctx, `er.id = $1`, id)
}

func (r *registrationRepository) GetByQRCode(ctx context.Context, qrCode string) (*domain.EventRegistration, error) {
	return r.getOne(ctx, `er.qr_code = $1`, qrCode)
}

func (r *registrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM event_registrations er WHERE er.event_id = $1 AND er.user_id = $2`
	var row registrationRow
	if err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return row.registration(), nil
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID string, filter domain.RegistrationListFilter, params domain.PaginationParams) ([]*domain.RegistrationWithEvent, int, error) {
	conds := []string{"er.user_id = $1"}
	args := []any{userID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("er.status = $%d", len(args)))
	}
	switch filter.EventStatus {
	case domain.EventStatusUpcoming:
		args = append(args, filter.Now)
		conds = append(conds, fmt.Sprintf("e.start_date > $%d", len(args)))
	case domain.EventStatusOngoing:
		args = append(args, filter.Now)
		conds = append(conds, fmt.Sprintf("e.start_date <= $%[1]d AND e.end_date >= $%[1]d", len(args)))
	case domain.EventStatusFinished:
		args = append(args, filter.Now)
		conds = append(conds, fmt.Sprintf("e.end_date < $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conds, " AND ")
	from := `FROM event_registrations er INNER JOIN events e ON e.id = er.event_id `

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) `+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		%s%s
		ORDER BY e.start_date DESC, er.id
		LIMIT $%d OFFSET $%d
	`, eventColumns, registrationColumns, from, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit(), params.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*domain.RegistrationWithEvent, 0)
	for rows.Next() {
		var row registrationRow
		e, err := scanEvent(rows, row.dest()...)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, &domain.RegistrationWithEvent{Registration: row.registration(), Event: e})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID string, status domain.RegistrationStatus, params domain.PaginationParams) ([]*domain.RegistrationWithUser, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM event_registrations er WHERE er.event_id = $1 AND ($2 = '' OR er.status = $2)`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + registrationColumns + `, u.name, u.email
		FROM event_registrations er
		INNER JOIN users u ON u.id = er.user_id
		WHERE er.event_id = $1 AND ($2 = '' OR er.status = $2)
		ORDER BY er.registration_date ASC, er.id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, string(status), params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*domain.RegistrationWithUser, 0)
	for rows.Next() {
		var row registrationRow
		item := &domain.RegistrationWithUser{}
		if err := rows.Scan(append(row.dest(), &item.UserName, &item.UserEmail)...); err != nil {
			return nil, 0, err
		}
		item.Registration = row.registration()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *registrationRepository) StatsByEvent(ctx context.Context, eventID string) (domain.RegistrationStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'registered'),
			COUNT(*) FILTER (WHERE status = 'attended'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM event_registrations
		WHERE event_id = $1
	`
	var s domain.RegistrationStats
	err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&s.Total, &s.Registered, &s.Attended, &s.Cancelled)
	return s, err
}

func (r *registrationRepository) Register(ctx context.Context, reg *domain.EventRegistration, sessionIDs []string, activity *domain.UserActivity) (int, error) {
	var count int
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		insert := `
			INSERT INTO event_registrations (event_id, user_id, status, registration_date, qr_code, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		err := tx.QueryRowContext(ctx, insert, reg.EventID, reg.UserID, string(reg.Status), reg.RegistrationDate,
			reg.QRCode, reg.Notes, reg.CreatedAt, reg.UpdatedAt).Scan(&reg.ID)
		if err != nil {
			if isUniqueViolation(err, registrationUserEventKey) {
				return domain.ErrAlreadyRegistered
			}
			return fmt.Errorf("insert registration: %w", err)
		}

		increment := `
			UPDATE events
			SET current_registrations = current_registrations + 1, updated_at = $2
			WHERE id = $1 AND is_active AND current_registrations < max_capacity
			RETURNING current_registrations
		`
		if err := tx.QueryRowContext(ctx, increment, reg.EventID, reg.CreatedAt).Scan(&count); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrEventFull
			}
			return fmt.Errorf("increment event counter: %w", err)
		}

		for _, sessionID := range sessionIDs {
			if err := registerSession(ctx, tx, reg, sessionID); err != nil {
				return err
			}
		}
		return insertActivity(ctx, tx, activity)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func registerSession(ctx context.Context, tx *sql.Tx, reg *domain.EventRegistration, sessionID string) error {
	increment := `
		UPDATE event_sessions
		SET current_registrations = current_registrations + 1, updated_at = $3
		WHERE id = $1 AND event_id = $2 AND (max_capacity IS NULL OR current_registrations < max_capacity)
		RETURNING id
	`
	var id string
	err := tx.QueryRowContext(ctx, increment, sessionID, reg.EventID, reg.CreatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		var title string
		if err := tx.QueryRowContext(ctx, `SELECT title FROM event_sessions WHERE id = $1`, sessionID).Scan(&title); err != nil {
			return fmt.Errorf("load session title: %w", err)
		}
		return &domain.SessionFullError{SessionID: sessionID, Title: title}
	}
	if err != nil {
		return fmt.Errorf("increment session counter: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO session_registrations (event_registration_id, session_id, created_at) VALUES ($1, $2, $3)`,
		reg.ID, sessionID, reg.CreatedAt)
	return err
}

func (r *registrationRepository) Cancel(ctx context.Context, registrationID, reason string, at time.Time, activity *domain.UserActivity) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		update := `
			UPDATE event_registrations
			SET status = 'cancelled', cancellation_reason = $2, cancelled_at = $3, updated_at = $3
			WHERE id = $1 AND status = 'registered'
			RETURNING event_id
		`
		var eventID string
		err := tx.QueryRowContext(ctx, update, registrationID, sql.NullString{String: reason, Valid: reason != ""}, at).Scan(&eventID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("cancel registration: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `DELETE FROM session_registrations WHERE event_registration_id = $1 RETURNING session_id`, registrationID)
		if err != nil {
			return fmt.Errorf("release sessions: %w", err)
		}
		var sessionIDs []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			sessionIDs = append(sessionIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if len(sessionIDs) > 0 {
			_, err := tx.ExecContext(ctx, `
				UPDATE event_sessions
				SET current_registrations = GREATEST(current_registrations - 1, 0), updated_at = $2
				WHERE id::text = ANY($1)
			`, pq.Array(sessionIDs), at)
			if err != nil {
				return fmt.Errorf("decrement session counters: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE events
			SET current_registrations = GREATEST(current_registrations - 1, 0), updated_at = $2
			WHERE id = $1
		`, eventID, at)
		if err != nil {
			return fmt.Errorf("decrement event counter: %w", err)
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *registrationRepository) CheckIn(ctx context.Context, registrationID string, at time.Time, activity *domain.UserActivity) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		update := `
			UPDATE event_registrations
			SET checked_in_at = $2, status = 'attended', updated_at = $2
			WHERE id = $1 AND checked_in_at IS NULL AND status <> 'cancelled'
		`
		result, err := tx.ExecContext(ctx, update, registrationID, at)
		if err != nil {
			return fmt.Errorf("check in: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return attendanceConflict(ctx, tx, registrationID, domain.ErrAlreadyCheckedIn)
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *registrationRepository) CheckOut(ctx context.Context, registrationID string, at time.Time, cert *domain.Certificate, activity *domain.UserActivity) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		update := `
			UPDATE event_registrations
			SET checked_out_at = $2, updated_at = $2
			WHERE id = $1 AND checked_in_at IS NOT NULL AND checked_out_at IS NULL
		`
		result, err := tx.ExecContext(ctx, update, registrationID, at)
		if err != nil {
			return fmt.Errorf("check out: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return attendanceConflict(ctx, tx, registrationID, domain.ErrAlreadyCheckedOut)
		}
		if cert != nil {
			if err := insertCertificate(ctx, tx, cert); err != nil {
				return err
			}
		}
		return insertActivity(ctx, tx, activity)
	})
}

// attendanceConflict tells a missing registration apart from one whose
// attendance timestamp is already set.
func attendanceConflict(ctx context.Context, tx *sql.Tx, registrationID string, conflict error) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM event_registrations WHERE id = $1)`, registrationID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return conflict
}

// insertCertificate keeps at most one certificate per registration; an
// existing row is left untouched.
func insertCertificate(ctx context.Context, tx *sql.Tx, c *domain.Certificate) error {
	query := `
		INSERT INTO certificates (user_id, event_id, event_registration_id, certificate_number, title,
			participation_type, verification_code, status, issued_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_registration_id) DO NOTHING
		RETURNING id
	`
	err := tx.QueryRowContext(ctx, query, c.UserID, c.EventID, c.EventRegistrationID, c.CertificateNumber, c.Title,
		c.ParticipationType, c.VerificationCode, c.Status, c.IssuedDate, c.CreatedAt).Scan(&c.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}
