package postgres

import (
	"context"
	"database/sql"
	"errors"

	"academicevents/internal/domain"
)

const certificateColumns = `c.id, c.user_id, c.event_id, c.event_registration_id, c.certificate_number, c.title,
	c.participation_type, c.verification_code, c.status, c.issued_date, c.created_at`

type certificateRepository struct {
	DB *sql.DB
}

func NewCertificateRepository(db *sql.DB) domain.CertificateRepository {
	return &certificateRepository{DB: db}
}

func scanCertificate(s rowScanner, extra ...any) (*domain.Certificate, error) {
	c := &domain.Certificate{}
	var issued sql.NullTime
	dest := []any{&c.ID, &c.UserID, &c.EventID, &c.EventRegistrationID, &c.CertificateNumber, &c.Title,
		&c.ParticipationType, &c.VerificationCode, &c.Status, &issued, &c.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	c.IssuedDate = timePtr(issued)
	return c, nil
}

func (r *certificateRepository) GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates c WHERE c.event_registration_id = $1`
	c, err := scanCertificate(r.DB.QueryRowContext(ctx, query, registrationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

const certificateViewFrom = `
	FROM certificates c
	INNER JOIN events e ON e.id = c.event_id
	INNER JOIN users u ON u.id = c.user_id
`

func (r *certificateRepository) ListByUser(ctx context.Context, userID string) ([]*domain.CertificateView, error) {
	query := `SELECT ` + certificateColumns + `, e.title, e.start_date, u.name` + certificateViewFrom + `
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]*domain.CertificateView, 0)
	for rows.Next() {
		v := &domain.CertificateView{}
		c, err := scanCertificate(rows, &v.EventTitle, &v.EventDate, &v.UserName)
		if err != nil {
			return nil, err
		}
		v.Certificate = c
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *certificateRepository) GetByVerificationCode(ctx context.Context, code string) (*domain.CertificateView, error) {
	query := `SELECT ` + certificateColumns + `, e.title, e.start_date, u.name` + certificateViewFrom + `
		WHERE c.verification_code = $1
	`
	v := &domain.CertificateView{}
	c, err := scanCertificate(r.DB.QueryRowContext(ctx, query, code), &v.EventTitle, &v.EventDate, &v.UserName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	v.Certificate = c
	return v, nil
}
