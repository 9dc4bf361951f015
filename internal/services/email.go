package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"academicevents/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

func (s *emailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	if data == nil {
		return fmt.Errorf("welcome message data is nil")
	}
	return s.send(ctx, domain.EmailWelcome, data.Email, data)
}

func (s *emailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationConfirmationEmailData) error {
	if data == nil {
		return fmt.Errorf("registration confirmation data is nil")
	}
	return s.send(ctx, domain.EmailRegistrationConfirmation, data.Email, data)
}

func (s *emailService) SendCertificatePending(ctx context.Context, data *domain.CertificatePendingEmailData) error {
	if data == nil {
		return fmt.Errorf("certificate pending data is nil")
	}
	return s.send(ctx, domain.EmailCertificatePending, data.Email, data)
}

// Handle decodes a queued job into the template's data type and sends it.
func (s *emailService) Handle(ctx context.Context, job domain.EmailJob) error {
	var data any
	switch job.Template {
	case domain.EmailWelcome:
		data = &domain.WelcomeMessageEmailData{}
	case domain.EmailRegistrationConfirmation:
		data = &domain.RegistrationConfirmationEmailData{}
	case domain.EmailCertificatePending:
		data = &domain.CertificatePendingEmailData{}
	default:
		return fmt.Errorf("unknown email template %q", job.Template)
	}
	if err := json.Unmarshal(job.Payload, data); err != nil {
		return fmt.Errorf("decode %s payload: %w", job.Template, err)
	}
	return s.send(ctx, job.Template, job.To, data)
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", to)
	return nil
}

// dispatchEmail builds a job and hands it to the dispatcher, logging any failure.
func dispatchEmail(ctx context.Context, d domain.EmailDispatcher, logger *slog.Logger, template, to string, data any) {
	if d == nil || to == "" {
		return
	}
	job, err := domain.NewEmailJob(template, to, data)
	if err == nil {
		err = d.Dispatch(context.WithoutCancel(ctx), job)
	}
	if err != nil {
		logger.WarnContext(ctx, "email dispatch failed", "template", template, "to", to, "err", err)
	}
}
