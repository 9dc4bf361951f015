package domain

import (
	"context"
	"time"
)

// UserProfile holds optional personal data for a user.
// swagger:model UserProfile
type UserProfile struct {
	UserID          string     `json:"user_id"`
	FirstName       *string    `json:"first_name,omitempty"`
	LastName        *string    `json:"last_name,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Institution     *string    `json:"institution,omitempty"`
	Occupation      *string    `json:"occupation,omitempty"`
	Biography       *string    `json:"biography,omitempty"`
	Country         *string    `json:"country,omitempty"`
	City            *string    `json:"city,omitempty"`
	ProfileImageURL *string    `json:"profile_image_url,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NotificationPreferences controls which notifications a user wants.
// swagger:model NotificationPreferences
type NotificationPreferences struct {
	UserID             string    `json:"user_id"`
	EmailNotifications bool      `json:"email_notifications"`
	EventReminders     bool      `json:"event_reminders"`
	EventUpdates       bool      `json:"event_updates"`
	CertificateReady   bool      `json:"certificate_ready"`
	MarketingEmails    bool      `json:"marketing_emails"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultNotificationPreferences is what a user gets before saving any preference.
func DefaultNotificationPreferences(userID string) *NotificationPreferences {
	return &NotificationPreferences{
		UserID:             userID,
		EmailNotifications: true,
		EventReminders:     true,
		EventUpdates:       true,
		CertificateReady:   true,
	}
}

// ProfileStatistics summarizes a user's participation.
type ProfileStatistics struct {
	Registered   int `json:"registered"`
	Attended     int `json:"attended"`
	Certificates int `json:"certificates"`
}

// ProfileView is the aggregate returned by GET /profile.
// swagger:model ProfileView
type ProfileView struct {
	User        *User                    `json:"user"`
	Profile     *UserProfile             `json:"profile"`
	Preferences *NotificationPreferences `json:"notification_preferences"`
	Statistics  ProfileStatistics        `json:"statistics"`
}

// ProfileRepository stores profiles and notification preferences.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	UpsertProfile(ctx context.Context, p *UserProfile) error
	GetPreferences(ctx context.Context, userID string) (*NotificationPreferences, error)
	UpsertPreferences(ctx context.Context, p *NotificationPreferences) error
	Statistics(ctx context.Context, userID string) (ProfileStatistics, error)
}

// ProfileService manages the caller's own account data.
type ProfileService interface {
	GetProfile(ctx context.Context, actor Principal) (*ProfileView, error)
	UpdatePersonalData(ctx context.Context, actor Principal, profile *UserProfile) (*UserProfile, error)
	ChangePassword(ctx context.Context, actor Principal, currentPassword, newPassword string) error
	ChangeEmail(ctx context.Context, actor Principal, newEmail, password string) (*User, error)
	UpdateNotificationPreferences(ctx context.Context, actor Principal, prefs *NotificationPreferences) (*NotificationPreferences, error)
	ListActivity(ctx context.Context, actor Principal, params PaginationParams) ([]*UserActivity, int, error)
}
