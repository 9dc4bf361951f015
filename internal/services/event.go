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
	minEventCapacity   = 1
	maxEventCapacity   = 10000
	featuredEventLimit = 5
)

type eventService struct {
	eventRepo        domain.EventRepository
	sessionRepo      domain.SessionRepository
	categoryRepo     domain.CategoryRepository
	registrationRepo domain.RegistrationRepository
	activity         domain.ActivityLogger
	logger           *slog.Logger
	contextTimeout   time.Duration
	now              func() time.Time
}

// NewEventService returns the EventService for catalogue reads and organizer management.
func NewEventService(
	eventRepo domain.EventRepository,
	sessionRepo domain.SessionRepository,
	categoryRepo domain.CategoryRepository,
	registrationRepo domain.RegistrationRepository,
	activity domain.ActivityLogger,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:        eventRepo,
		sessionRepo:      sessionRepo,
		categoryRepo:     categoryRepo,
		registrationRepo: registrationRepo,
		activity:         activity,
		logger:           logger,
		contextTimeout:   timeout,
		now:              time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, actor domain.Principal, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.Authorize(domain.ActionCreateEvent, actor); err != nil {
		return err
	}
	now := s.now()
	if event.StartDate.Before(now) {
		return domain.InvalidInputError("start date cannot be in the past")
	}
	event.Tags = domain.NormalizeTags(event.Tags)
	if err := validateEventFields(event); err != nil {
		return err
	}
	if err := s.ensureCategory(ctx, event.CategoryID); err != nil {
		return err
	}

	event.OrganizerID = actor.UserID
	event.IsActive = true
	event.CurrentRegistrations = 0
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	s.activity.Log(ctx, domain.NewUserActivity(actor.UserID, domain.ActivityEventCreated, "Created event: "+event.Title,
		domain.EntityEvent, event.ID, map[string]any{"event_title": event.Title}, now))
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string, viewer *domain.Principal) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Soft-deleted events stay visible to the people who manage them.
	if !event.IsActive && (viewer == nil || !domain.Can(domain.ActionManageEvent, *viewer, event.OrganizerID)) {
		return nil, domain.ErrNotFound
	}

	details := &domain.EventDetails{}
	category, err := s.categoryRepo.GetByID(ctx, event.CategoryID)
	switch {
	case err == nil:
		details.Category = category
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get category: %w", err)
	}
	categoryName := ""
	if category != nil {
		categoryName = category.Name
	}
	details.EventSummary = *domain.NewEventSummary(event, categoryName)

	sessions, err := s.sessionRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []*domain.EventSession{}
	}
	details.Sessions = sessions

	if viewer != nil {
		reg, err := s.registrationRepo.GetByEventAndUser(ctx, eventID, viewer.UserID)
		switch {
		case err == nil:
			details.UserRegistration = reg
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("get user registration: %w", err)
		}
	}
	return details, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventSummary, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	filter.EndsAfter = &now
	filter.Search = strings.TrimSpace(filter.Search)
	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.EventSummary{}
	}
	return events, total, nil
}

func (s *eventService) ListFeatured(ctx context.Context) ([]*domain.EventSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListFeatured(ctx, s.now(), featuredEventLimit)
	if err != nil {
		return nil, fmt.Errorf("list featured events: %w", err)
	}
	if events == nil {
		events = []*domain.EventSummary{}
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, actor domain.Principal, eventID string, update domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.managedEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}

	if update.CategoryID != nil && *update.CategoryID != event.CategoryID {
		if err := s.ensureCategory(ctx, *update.CategoryID); err != nil {
			return nil, err
		}
		event.CategoryID = *update.CategoryID
	}
	if update.Title != nil {
		event.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		event.Description = strings.TrimSpace(*update.Description)
	}
	if update.ShortDescription != nil {
		event.ShortDescription = update.ShortDescription
	}
	if update.Location != nil {
		event.Location = strings.TrimSpace(*update.Location)
	}
	if update.Address != nil {
		event.Address = update.Address
	}
	if update.ImageURL != nil {
		event.ImageURL = update.ImageURL
	}
	if update.StartDate != nil {
		event.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		event.EndDate = *update.EndDate
	}
	if update.MaxCapacity != nil {
		if *update.MaxCapacity < event.CurrentRegistrations {
			return nil, domain.ErrCapacityBelowCount
		}
		event.MaxCapacity = *update.MaxCapacity
	}
	if update.IsFeatured != nil {
		event.IsFeatured = *update.IsFeatured
	}
	if update.RequiresCertificate != nil {
		event.RequiresCertificate = *update.RequiresCertificate
	}
	if update.Tags != nil {
		event.Tags = domain.NormalizeTags(update.Tags)
	}
	if err := validateEventFields(event); err != nil {
		return nil, err
	}

	now := s.now()
	event.UpdatedAt = now
	if err := s.eventRepo.Update(ctx, event, update.Tags != nil); err != nil {
		if errors.Is(err, domain.ErrCapacityBelowCount) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.activity.Log(ctx, domain.NewUserActivity(actor.UserID, domain.ActivityEventUpdated, "Updated event: "+event.Title,
		domain.EntityEvent, event.ID, map[string]any{"event_title": event.Title}, now))
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, actor domain.Principal, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.managedEvent(ctx, actor, eventID)
	if err != nil {
		return err
	}
	if !event.IsActive {
		return domain.ErrNotFound
	}
	if event.CurrentRegistrations > 0 {
		return domain.ErrEventHasRegistrations
	}
	now := s.now()
	if err := s.eventRepo.SoftDelete(ctx, eventID, now); err != nil {
		if errors.Is(err, domain.ErrEventHasRegistrations) || errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete event: %w", err)
	}

	s.activity.Log(ctx, domain.NewUserActivity(actor.UserID, domain.ActivityEventDeleted, "Deleted event: "+event.Title,
		domain.EntityEvent, event.ID, map[string]any{"event_title": event.Title}, now))
	return nil
}

func (s *eventService) AddSession(ctx context.Context, actor domain.Principal, session *domain.EventSession) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.managedEvent(ctx, actor, session.EventID); err != nil {
		return err
	}
	if strings.TrimSpace(session.Title) == "" {
		return domain.InvalidInputError("session title is required")
	}
	if !session.EndTime.After(session.StartTime) {
		return domain.InvalidInputError("session end time must be after start time")
	}
	if session.MaxCapacity != nil && *session.MaxCapacity < 1 {
		return domain.InvalidInputError("session max capacity must be at least 1")
	}

	now := s.now()
	session.IsActive = true
	session.CurrentRegistrations = 0
	session.CreatedAt = now
	session.UpdatedAt = now
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *eventService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}

// managedEvent loads an event and checks the actor may manage it.
func (s *eventService) managedEvent(ctx context.Context, actor domain.Principal, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := domain.Authorize(domain.ActionManageEvent, actor, event.OrganizerID); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) ensureCategory(ctx context.Context, categoryID string) error {
	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCategoryNotFound
		}
		return fmt.Errorf("get category: %w", err)
	}
	return nil
}

func validateEventFields(e *domain.Event) error {
	if !e.EndDate.After(e.StartDate) {
		return domain.InvalidInputError("end date must be after start date")
	}
	if e.MaxCapacity < minEventCapacity || e.MaxCapacity > maxEventCapacity {
		return domain.InvalidInputError("max capacity must be between %d and %d", minEventCapacity, maxEventCapacity)
	}
	if len(e.Tags) > domain.MaxEventTags {
		return domain.InvalidInputError("an event can have at most %d tags", domain.MaxEventTags)
	}
	for _, tag := range e.Tags {
		if len(tag) > domain.MaxTagLength {
			return domain.InvalidInputError("tag %q is longer than %d characters", tag, domain.MaxTagLength)
		}
	}
	return nil
}
