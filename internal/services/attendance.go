package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"academicevents/internal/domain"
)

// MaxBulkCheckIn caps the number of codes accepted by BulkCheckIn.
const MaxBulkCheckIn = 100

var errRegistrationCancelled = domain.InvalidInputError("registration was cancelled")

// CheckIn records attendance while the event is running. A repeated call
// returns the stored timestamp together with ErrAlreadyCheckedIn.
func (s *registrationService) CheckIn(ctx context.Context, actor domain.Principal, registrationID string) (*domain.AttendanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, event, err := s.loadRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.ActionManageAttendance, actor, event.OrganizerID); err != nil {
		return nil, err
	}
	return s.checkIn(ctx, actor, reg, event)
}

func (s *registrationService) checkIn(ctx context.Context, actor domain.Principal, reg *domain.EventRegistration, event *domain.Event) (*domain.AttendanceResult, error) {
	if reg.Status == domain.StatusCancelled {
		return nil, errRegistrationCancelled
	}
	now := s.now()
	if !event.InProgress(now) {
		return nil, domain.ErrNotInProgress
	}
	if reg.CheckedInAt != nil {
		return &domain.AttendanceResult{RegistrationID: reg.ID, CheckedInAt: reg.CheckedInAt}, domain.ErrAlreadyCheckedIn
	}

	activity := domain.NewUserActivity(reg.UserID, domain.ActivityEventAttended, "Checked in to event: "+event.Title,
		domain.EntityEvent, event.ID, map[string]any{"event_title": event.Title, "checked_in_by": actor.UserID}, now)
	if err := s.registrationRepo.CheckIn(ctx, reg.ID, now, activity); err != nil {
		if errors.Is(err, domain.ErrAlreadyCheckedIn) {
			// A concurrent check-in won; report its timestamp.
			return s.currentAttendance(ctx, reg.ID, err)
		}
		return nil, fmt.Errorf("check in: %w", err)
	}

	s.logger.InfoContext(ctx, "attendee checked in", "registration_id", reg.ID, "event_id", event.ID)
	return &domain.AttendanceResult{RegistrationID: reg.ID, CheckedInAt: &now}, nil
}

// CheckOut closes attendance after check-in. For certificate-bearing events it
// creates the single pending certificate in the same transaction.
func (s *registrationService) CheckOut(ctx context.Context, actor domain.Principal, registrationID string) (*domain.AttendanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, event, err := s.loadRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.ActionManageAttendance, actor, event.OrganizerID); err != nil {
		return nil, err
	}
	if reg.CheckedInAt == nil {
		return nil, domain.ErrNotCheckedIn
	}
	if reg.CheckedOutAt != nil {
		return &domain.AttendanceResult{
			RegistrationID: reg.ID,
			CheckedInAt:    reg.CheckedInAt,
			CheckedOutAt:   reg.CheckedOutAt,
		}, domain.ErrAlreadyCheckedOut
	}

	now := s.now()
	var cert *domain.Certificate
	if event.RequiresCertificate {
		code, err := generateVerificationCode()
		if err != nil {
			return nil, fmt.Errorf("generate verification code: %w", err)
		}
		cert = &domain.Certificate{
			UserID:              reg.UserID,
			EventID:             event.ID,
			EventRegistrationID: reg.ID,
			CertificateNumber:   certificateNumber(event.ID, reg.UserID, now),
			Title:               "Certificate of participation: " + event.Title,
			ParticipationType:   domain.ParticipationParticipant,
			VerificationCode:    code,
			Status:              domain.CertificatePending,
			CreatedAt:           now,
		}
	}

	activity := domain.NewUserActivity(reg.UserID, domain.ActivityEventCheckedOut, "Checked out of event: "+event.Title,
		domain.EntityEvent, event.ID, map[string]any{"event_title": event.Title, "checked_out_by": actor.UserID}, now)
	if err := s.registrationRepo.CheckOut(ctx, reg.ID, now, cert, activity); err != nil {
		if errors.Is(err, domain.ErrAlreadyCheckedOut) {
			return s.currentAttendance(ctx, reg.ID, err)
		}
		return nil, fmt.Errorf("check out: %w", err)
	}
	s.logger.InfoContext(ctx, "attendee checked out", "registration_id", reg.ID, "event_id", event.ID, "certificate", cert != nil)

	if cert != nil {
		notifyQuietly(ctx, s.notifications, s.logger, reg.UserID, domain.NotificationCertificate,
			"Certificate pending", fmt.Sprintf("Your certificate for %q is being prepared.", event.Title),
			domain.EntityCertificate, cert.ID)
		s.sendCertificatePending(ctx, reg.UserID, event, cert)
	}

	return &domain.AttendanceResult{
		RegistrationID:             reg.ID,
		CheckedInAt:                reg.CheckedInAt,
		CheckedOutAt:               &now,
		CertificateWillBeGenerated: cert != nil,
	}, nil
}

func (s *registrationService) sendCertificatePending(ctx context.Context, userID string, event *domain.Event, cert *domain.Certificate) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "certificate email skipped", "user_id", userID, "err", err)
		return
	}
	dispatchEmail(ctx, s.emails, s.logger, domain.EmailCertificatePending, user.Email, &domain.CertificatePendingEmailData{
		Email:             user.Email,
		UserName:          user.Name,
		EventTitle:        event.Title,
		CertificateNumber: cert.CertificateNumber,
		VerificationCode:  cert.VerificationCode,
	})
}

// BulkCheckIn checks in each attendance code independently and reports per-code outcomes.
func (s *registrationService) BulkCheckIn(ctx context.Context, actor domain.Principal, qrCodes []string) (*domain.BulkCheckInResult, error) {
	if len(qrCodes) == 0 {
		return nil, domain.InvalidInputError("at least one code is required")
	}
	if len(qrCodes) > MaxBulkCheckIn {
		return nil, domain.InvalidInputError("at most %d codes can be checked in at once", MaxBulkCheckIn)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	res := &domain.BulkCheckInResult{Results: make([]domain.BulkCheckInItem, 0, len(qrCodes)), Total: len(qrCodes)}
	events := make(map[string]*domain.Event)
	for _, code := range qrCodes {
		item := domain.BulkCheckInItem{QRCode: code}
		at, regID, err := s.checkInByCode(ctx, actor, code, events)
		item.RegistrationID = regID
		if err != nil {
			item.Error = err.Error()
			item.CheckedInAt = at
			res.Failed++
		} else {
			item.Success = true
			item.CheckedInAt = at
			res.Successful++
		}
		res.Results = append(res.Results, item)
	}
	return res, nil
}

func (s *registrationService) checkInByCode(ctx context.Context, actor domain.Principal, code string, events map[string]*domain.Event) (*time.Time, string, error) {
	if !ValidQRCode(code) {
		return nil, "", domain.InvalidInputError("malformed attendance code")
	}
	reg, err := s.registrationRepo.GetByQRCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get registration: %w", err)
	}
	event, ok := events[reg.EventID]
	if !ok {
		event, err = s.eventRepo.GetByID(ctx, reg.EventID)
		if err != nil {
			return nil, reg.ID, fmt.Errorf("get event: %w", err)
		}
		events[reg.EventID] = event
	}
	if err := domain.Authorize(domain.ActionManageAttendance, actor, event.OrganizerID); err != nil {
		return nil, reg.ID, err
	}
	res, err := s.checkIn(ctx, actor, reg, event)
	if res != nil {
		return res.CheckedInAt, reg.ID, err
	}
	return nil, reg.ID, err
}

// currentAttendance re-reads a registration after losing a concurrent update
// and returns its timestamps along with cause.
func (s *registrationService) currentAttendance(ctx context.Context, registrationID string, cause error) (*domain.AttendanceResult, error) {
	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("reload registration: %w", err)
	}
	return &domain.AttendanceResult{
		RegistrationID: reg.ID,
		CheckedInAt:    reg.CheckedInAt,
		CheckedOutAt:   reg.CheckedOutAt,
	}, cause
}
