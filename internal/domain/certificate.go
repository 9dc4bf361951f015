package domain

import (
	"context"
	"time"
)

// Certificate statuses.
const (
	CertificatePending    = "pending"
	CertificateIssued     = "issued"
	CertificateDownloaded = "downloaded"
)

// ParticipationParticipant is the participation type recorded for attendees.
const ParticipationParticipant = "participant"

// Certificate is issued to an attendee who checked out of a certificate-bearing event.
// swagger:model Certificate
type Certificate struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	EventID             string     `json:"event_id"`
	EventRegistrationID string     `json:"event_registration_id"`
	CertificateNumber   string     `json:"certificate_number"`
	Title               string     `json:"title"`
	ParticipationType   string     `json:"participation_type"`
	VerificationCode    string     `json:"verification_code"`
	Status              string     `json:"status"`
	IssuedDate          *time.Time `json:"issued_date,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// CertificateView is a certificate with event context for listings and verification.
// swagger:model CertificateView
type CertificateView struct {
	*Certificate
	EventTitle string    `json:"event_title"`
	EventDate  time.Time `json:"event_date"`
	UserName   string    `json:"user_name"`
}

// CertificateRepository reads certificates. Creation happens inside
// RegistrationRepository.CheckOut.
type CertificateRepository interface {
	GetByRegistrationID(ctx context.Context, registrationID string) (*Certificate, error)
	ListByUser(ctx context.Context, userID string) ([]*CertificateView, error)
	GetByVerificationCode(ctx context.Context, code string) (*CertificateView, error)
}

// CertificateService exposes certificate reads.
type CertificateService interface {
	ListMine(ctx context.Context, actor Principal) ([]*CertificateView, error)
	Verify(ctx context.Context, code string) (*CertificateView, error)
}
