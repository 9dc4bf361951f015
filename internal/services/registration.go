package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"academicevents/internal/domain"
)

const (
	emailDateLayout = "Monday, January 2, 2006"
	emailTimeLayout = "15:04"
)

type registrationService struct {
	registrationRepo domain.RegistrationRepository
	eventRepo        domain.EventRepository
	sessionRepo      domain.SessionRepository
	certificateRepo  domain.CertificateRepository
	userRepo         domain.UserRepository
	notifications    domain.NotificationService
	emails           domain.EmailDispatcher
	logger           *slog.Logger
	contextTimeout   time.Duration
	now              func() time.Time
}

// NewRegistrationService returns the RegistrationService covering registration,
// cancellation and attendance.
func NewRegistrationService(
	registrationRepo domain.RegistrationRepository,
	eventRepo domain.EventRepository,
	sessionRepo domain.SessionRepository,
	certificateRepo domain.CertificateRepository,
	userRepo domain.UserRepository,
	notifications domain.NotificationService,
	emails domain.EmailDispatcher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		sessionRepo:      sessionRepo,
		certificateRepo:  certificateRepo,
		userRepo:         userRepo,
		notifications:    notifications,
		emails:           emails,
		logger:           logger,
		contextTimeout:   timeout,
		now:              time.Now,
	}
}

// Register checks the preconditions in order (event, start time, capacity,
// duplicate, sessions) and commits the registration. The repository repeats
// the capacity checks as conditional updates inside its transaction, so the
// reads here only produce early, specific errors.
func (s *registrationService) Register(ctx context.Context, actor domain.Principal, eventID string, sessionIDs []string, notes *string) (*domain.RegistrationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor.UserID == "" {
		return nil, domain.ErrForbidden
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsActive {
		return nil, domain.ErrNotFound
	}
	now := s.now()
	if !now.Before(event.StartDate) {
		return nil, domain.ErrAlreadyStarted
	}
	if event.IsFull() {
		return nil, domain.ErrEventFull
	}

	existing, err := s.registrationRepo.GetByEventAndUser(ctx, eventID, actor.UserID)
	switch {
	case err == nil:
		if existing.Status == domain.StatusCancelled {
			return nil, domain.ErrRegistrationCancelled
		}
		return nil, domain.ErrAlreadyRegistered
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get registration: %w", err)
	}

	sessionIDs = dedupe(sessionIDs)
	sessions, err := s.selectSessions(ctx, eventID, sessionIDs)
	if err != nil {
		return nil, err
	}

	qr, err := generateQRCode(attendanceSeed(eventID, actor.UserID), now)
	if err != nil {
		return nil, fmt.Errorf("generate attendance code: %w", err)
	}
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		notes = &trimmed
		if trimmed == "" {
			notes = nil
		}
	}
	reg := domain.NewEventRegistration(eventID, actor.UserID, qr, notes, now)
	activity := domain.NewUserActivity(actor.UserID, domain.ActivityEventRegistered, "Registered for event: "+event.Title,
		domain.EntityEvent, eventID, map[string]any{"event_title": event.Title, "sessions_count": len(sessionIDs)}, now)

	count, err := s.registrationRepo.Register(ctx, reg, sessionIDs, activity)
	if err != nil {
		var full *domain.SessionFullError
		if errors.Is(err, domain.ErrEventFull) || errors.Is(err, domain.ErrAlreadyRegistered) || errors.As(err, &full) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	event.CurrentRegistrations = count
	for _, ss := range sessions {
		ss.CurrentRegistrations++
	}

	s.logger.InfoContext(ctx, "registration created", "registration_id", reg.ID, "event_id", eventID, "user_id", actor.UserID)
	notifyQuietly(ctx, s.notifications, s.logger, actor.UserID, domain.NotificationEvent,
		"Registration confirmed", fmt.Sprintf("You are registered for %q.", event.Title),
		domain.EntityRegistration, reg.ID)
	s.sendConfirmation(ctx, actor, event, reg, sessions)

	return &domain.RegistrationResult{
		Registration:   reg,
		Event:          event,
		Sessions:       sessions,
		AvailableSlots: event.AvailableSlots(),
	}, nil
}

// selectSessions resolves the requested sessions. Every id must be an active,
// registration-required session of the event, and capped sessions need a free seat.
func (s *registrationService) selectSessions(ctx context.Context, eventID string, ids []string) ([]*domain.EventSession, error) {
	if len(ids) == 0 {
		return []*domain.EventSession{}, nil
	}
	if len(ids) > domain.MaxSessionsPerRegistration {
		return nil, domain.InvalidInputError("at most %d sessions can be selected", domain.MaxSessionsPerRegistration)
	}
	sessions, err := s.sessionRepo.ListRegistrable(ctx, eventID, ids)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) != len(ids) {
		return nil, domain.ErrInvalidSession
	}
	for _, ss := range sessions {
		if ss.IsFull() {
			return nil, &domain.SessionFullError{SessionID: ss.ID, Title: ss.Title}
		}
	}
	return sessions, nil
}

func (s *registrationService) sendConfirmation(ctx context.Context, actor domain.Principal, event *domain.Event, reg *domain.EventRegistration, sessions []*domain.EventSession) {
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "confirmation email skipped", "user_id", actor.UserID, "err", err)
		return
	}
	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for _, ss := range sessions {
		sum := domain.SessionSummary{
			Title:     ss.Title,
			StartTime: ss.StartTime.Format(emailTimeLayout),
			EndTime:   ss.EndTime.Format(emailTimeLayout),
		}
		if ss.Speaker != nil {
			sum.Speaker = *ss.Speaker
		}
		summaries = append(summaries, sum)
	}
	dispatchEmail(ctx, s.emails, s.logger, domain.EmailRegistrationConfirmation, user.Email, &domain.RegistrationConfirmationEmailData{
		Email:         user.Email,
		UserName:      user.Name,
		EventTitle:    event.Title,
		EventDate:     event.StartDate.Format(emailDateLayout),
		EventTime:     event.StartDate.Format(emailTimeLayout),
		EventLocation: event.Location,
		QRCode:        reg.QRCode,
		Sessions:      summaries,
	})
}

// Cancel cancels the actor's own active registration. Registrations that are
// missing, foreign or already cancelled all report ErrNotFound.
func (s *registrationService) Cancel(ctx context.Context, actor domain.Principal, registrationID string, reason *string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get registration: %w", err)
	}
	if reg.UserID != actor.UserID || reg.Status != domain.StatusRegistered {
		return domain.ErrNotFound
	}
	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}

	now := s.now()
	if event.StartDate.Sub(now) < domain.MinCancellationNotice {
		return domain.ErrTooLateToCancel
	}

	reasonText := ""
	if reason != nil {
		reasonText = strings.TrimSpace(*reason)
	}
	activity := domain.NewUserActivity(actor.UserID, domain.ActivityEventCancelled, "Cancelled registration for event: "+event.Title,
		domain.EntityEvent, event.ID, map[string]any{"event_title": event.Title, "reason": reasonText}, now)
	if err := s.registrationRepo.Cancel(ctx, registrationID, reasonText, now, activity); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("cancel registration: %w", err)
	}

	s.logger.InfoContext(ctx, "registration cancelled", "registration_id", registrationID, "event_id", event.ID)
	notifyQuietly(ctx, s.notifications, s.logger, event.OrganizerID, domain.NotificationEvent,
		"Registration cancelled", fmt.Sprintf("An attendee cancelled their registration for %q.", event.Title),
		domain.EntityEvent, event.ID)
	notifyQuietly(ctx, s.notifications, s.logger, actor.UserID, domain.NotificationEvent,
		"Registration cancelled", fmt.Sprintf("Your registration for %q was cancelled.", event.Title),
		domain.EntityRegistration, registrationID)
	return nil
}

// GetRegistration is visible to the registrant, the event organizer and admins.
// Anyone else gets ErrNotFound.
func (s *registrationService) GetRegistration(ctx context.Context, actor domain.Principal, registrationID string) (*domain.RegistrationDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, event, err := s.loadRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !domain.Can(domain.ActionViewRegistration, actor, reg.UserID, event.OrganizerID) {
		return nil, domain.ErrNotFound
	}

	sessions, err := s.sessionRepo.ListByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("list registration sessions: %w", err)
	}
	if sessions == nil {
		sessions = []*domain.EventSession{}
	}
	details := &domain.RegistrationDetails{Registration: reg, Event: event, Sessions: sessions}

	cert, err := s.certificateRepo.GetByRegistrationID(ctx, registrationID)
	switch {
	case err == nil:
		details.Certificate = cert
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return details, nil
}

func (s *registrationService) ListUserRegistrations(ctx context.Context, actor domain.Principal, userID string, filter domain.RegistrationListFilter, params domain.PaginationParams) ([]*domain.RegistrationWithEvent, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.Authorize(domain.ActionViewUserRegistration, actor, userID); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.InvalidInputError("unknown registration status %q", filter.Status)
	}
	switch filter.EventStatus {
	case "", domain.EventStatusUpcoming, domain.EventStatusOngoing, domain.EventStatusFinished:
	default:
		return nil, 0, domain.InvalidInputError("unknown event status %q", filter.EventStatus)
	}
	filter.Now = s.now()

	items, total, err := s.registrationRepo.ListByUser(ctx, userID, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list user registrations: %w", err)
	}
	for _, it := range items {
		if it.Event != nil {
			it.EventStatus = it.Event.StatusAt(filter.Now)
		}
	}
	if items == nil {
		items = []*domain.RegistrationWithEvent{}
	}
	return items, total, nil
}

func (s *registrationService) ListEventRegistrations(ctx context.Context, actor domain.Principal, eventID string, status domain.RegistrationStatus, params domain.PaginationParams) ([]*domain.RegistrationWithUser, int, domain.RegistrationStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var stats domain.RegistrationStats
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, stats, domain.ErrNotFound
		}
		return nil, 0, stats, fmt.Errorf("get event: %w", err)
	}
	if err := domain.Authorize(domain.ActionManageAttendance, actor, event.OrganizerID); err != nil {
		return nil, 0, stats, err
	}
	if status != "" && !status.Valid() {
		return nil, 0, stats, domain.InvalidInputError("unknown registration status %q", status)
	}

	items, total, err := s.registrationRepo.ListByEvent(ctx, eventID, status, params)
	if err != nil {
		return nil, 0, stats, fmt.Errorf("list event registrations: %w", err)
	}
	stats, err = s.registrationRepo.StatsByEvent(ctx, eventID)
	if err != nil {
		return nil, 0, stats, fmt.Errorf("registration stats: %w", err)
	}
	if items == nil {
		items = []*domain.RegistrationWithUser{}
	}
	return items, total, stats, nil
}

func (s *registrationService) loadRegistration(ctx context.Context, registrationID string) (*domain.EventRegistration, *domain.Event, error) {
	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get registration: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	return reg, event, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
