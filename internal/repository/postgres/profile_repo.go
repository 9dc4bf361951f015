package postgres

import (
	"context"
	"database/sql"
	"errors"

	"academicevents/internal/domain"
)

type profileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) domain.ProfileRepository {
	return &profileRepository{DB: db}
}

func (r *profileRepository) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, first_name, last_name, phone, institution, occupation, biography,
			country, city, profile_image_url, date_of_birth, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`
	p := &domain.UserProfile{}
	var first, last, phone, institution, occupation, bio, country, city, image sql.NullString
	var dob sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &first, &last, &phone, &institution,
		&occupation, &bio, &country, &city, &image, &dob, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.FirstName = stringPtr(first)
	p.LastName = stringPtr(last)
	p.Phone = stringPtr(phone)
	p.Institution = stringPtr(institution)
	p.Occupation = stringPtr(occupation)
	p.Biography = stringPtr(bio)
	p.Country = stringPtr(country)
	p.City = stringPtr(city)
	p.ProfileImageURL = stringPtr(image)
	p.DateOfBirth = timePtr(dob)
	return p, nil
}

func (r *profileRepository) UpsertProfile(ctx context.Context, p *domain.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, first_name, last_name, phone, institution, occupation, biography,
			country, city, profile_image_url, date_of_birth, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE
		SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, phone = EXCLUDED.phone,
			institution = EXCLUDED.institution, occupation = EXCLUDED.occupation, biography = EXCLUDED.biography,
			country = EXCLUDED.country, city = EXCLUDED.city, profile_image_url = EXCLUDED.profile_image_url,
			date_of_birth = EXCLUDED.date_of_birth, updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, p.UserID, p.FirstName, p.LastName, p.Phone, p.Institution, p.Occupation,
		p.Biography, p.Country, p.City, p.ProfileImageURL, p.DateOfBirth, p.UpdatedAt)
	return err
}

func (r *profileRepository) GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	query := `
		SELECT user_id, email_notifications, event_reminders, event_updates, certificate_ready, marketing_emails, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`
	p := &domain.NotificationPreferences{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.EmailNotifications, &p.EventReminders,
		&p.EventUpdates, &p.CertificateReady, &p.MarketingEmails, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) UpsertPreferences(ctx context.Context, p *domain.NotificationPreferences) error {
	query := `
		INSERT INTO notification_preferences (user_id, email_notifications, event_reminders, event_updates,
			certificate_ready, marketing_emails, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET email_notifications = EXCLUDED.email_notifications, event_reminders = EXCLUDED.event_reminders,
			event_updates = EXCLUDED.event_updates, certificate_ready = EXCLUDED.certificate_ready,
			marketing_emails = EXCLUDED.marketing_emails, updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, p.UserID, p.EmailNotifications, p.EventReminders, p.EventUpdates,
		p.CertificateReady, p.MarketingEmails, p.UpdatedAt)
	return err
}

func (r *profileRepository) Statistics(ctx context.Context, userID string) (domain.ProfileStatistics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM event_registrations WHERE user_id = $1 AND status <> 'cancelled'),
			(SELECT COUNT(*) FROM event_registrations WHERE user_id = $1 AND status = 'attended'),
			(SELECT COUNT(*) FROM certificates WHERE user_id = $1)
	`
	var s domain.ProfileStatistics
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&s.Registered, &s.Attended, &s.Certificates)
	return s, err
}
