package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"academicevents/internal/domain"
)

type certificateService struct {
	repo           domain.CertificateRepository
	contextTimeout time.Duration
}

// NewCertificateService returns the CertificateService backed by repo.
func NewCertificateService(repo domain.CertificateRepository, timeout time.Duration) domain.CertificateService {
	return &certificateService{repo: repo, contextTimeout: timeout}
}

func (s *certificateService) ListMine(ctx context.Context, actor domain.Principal) ([]*domain.CertificateView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	certs, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	if certs == nil {
		certs = []*domain.CertificateView{}
	}
	return certs, nil
}

// Verify looks up a certificate by its public verification code.
func (s *certificateService) Verify(ctx context.Context, code string) (*domain.CertificateView, error) {
	if !ValidVerificationCode(code) {
		return nil, domain.InvalidInputError("malformed verification code")
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	cert, err := s.repo.GetByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("verify certificate: %w", err)
	}
	return cert, nil
}
