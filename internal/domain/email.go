package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// Email template names. Each maps to <name>_subject.txt, <name>.html and <name>.txt.
const (
	EmailWelcome                  = "welcome"
	EmailRegistrationConfirmation = "registration_confirmation"
	EmailCertificatePending       = "certificate_pending"
)

// WelcomeMessageEmailData holds data for the welcome email.
type WelcomeMessageEmailData struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionSummary is a session line in the confirmation email.
type SessionSummary struct {
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Speaker   string `json:"speaker,omitempty"`
}

// RegistrationConfirmationEmailData holds data for the registration confirmation email.
type RegistrationConfirmationEmailData struct {
	Email         string           `json:"email"`
	UserName      string           `json:"user_name"`
	EventTitle    string           `json:"event_title"`
	EventDate     string           `json:"event_date"`
	EventTime     string           `json:"event_time"`
	EventLocation string           `json:"event_location"`
	QRCode        string           `json:"qr_code"`
	Sessions      []SessionSummary `json:"sessions"`
}

// CertificatePendingEmailData holds data for the certificate pending email.
type CertificatePendingEmailData struct {
	Email             string `json:"email"`
	UserName          string `json:"user_name"`
	EventTitle        string `json:"event_title"`
	CertificateNumber string `json:"certificate_number"`
	VerificationCode  string `json:"verification_code"`
}

// EmailService renders and sends domain-level emails synchronously.
type EmailService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
	SendRegistrationConfirmation(ctx context.Context, data *RegistrationConfirmationEmailData) error
	SendCertificatePending(ctx context.Context, data *CertificatePendingEmailData) error
	// Handle sends the email described by a queued job.
	Handle(ctx context.Context, job EmailJob) error
}

// EmailJob is the serialized unit of work handed to an EmailDispatcher.
type EmailJob struct {
	Template string          `json:"template"`
	To       string          `json:"to"`
	Payload  json.RawMessage `json:"payload"`
}

// NewEmailJob marshals data into a job for the given template.
func NewEmailJob(template, to string, data any) (EmailJob, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return EmailJob{}, fmt.Errorf("marshal %s payload: %w", template, err)
	}
	return EmailJob{Template: template, To: to, Payload: payload}, nil
}

// EmailDispatcher hands email jobs off for asynchronous delivery. Dispatch
// must not block on the mail transport; delivery failures are logged by the
// dispatcher and never reported back to the caller.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, job EmailJob) error
}
