package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"academicevents/internal/domain"
)

const (
	defaultUpcomingLimit = 5
	maxUpcomingLimit     = 20
	defaultActivityLimit = 10
	maxActivityLimit     = 50
)

type dashboardService struct {
	statsRepo      domain.StatsRepository
	eventRepo      domain.EventRepository
	activityRepo   domain.ActivityRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewDashboardService returns the organizer dashboard service. Admins see
// figures across all organizers.
func NewDashboardService(statsRepo domain.StatsRepository, eventRepo domain.EventRepository, activityRepo domain.ActivityRepository, timeout time.Duration) domain.DashboardService {
	return &dashboardService{
		statsRepo:      statsRepo,
		eventRepo:      eventRepo,
		activityRepo:   activityRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *dashboardService) OrganizerStats(ctx context.Context, actor domain.Principal) (*domain.OrganizerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	org, err := dashboardScope(actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	today := dayRange(now)
	thisMonth, lastMonth := monthRanges(now)

	out := &domain.OrganizerStats{}
	if out.Events, err = s.statsRepo.CountEvents(ctx, org, now); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	createdNow, err := s.statsRepo.CountEventsCreated(ctx, org, thisMonth)
	if err != nil {
		return nil, fmt.Errorf("count events created: %w", err)
	}
	createdBefore, err := s.statsRepo.CountEventsCreated(ctx, org, lastMonth)
	if err != nil {
		return nil, fmt.Errorf("count events created: %w", err)
	}
	out.Events.Trend = domain.CalculateTrend(createdNow, createdBefore)

	if out.Registrations.Total, err = s.statsRepo.CountRegistrations(ctx, org, nil); err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	if out.Registrations.Today, err = s.statsRepo.CountRegistrations(ctx, org, &today); err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	regsNow, err := s.statsRepo.CountRegistrations(ctx, org, &thisMonth)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	regsBefore, err := s.statsRepo.CountRegistrations(ctx, org, &lastMonth)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	out.Registrations.Trend = domain.CalculateTrend(regsNow, regsBefore)

	if out.Attendance.Today, err = s.statsRepo.CountCheckIns(ctx, org, today); err != nil {
		return nil, fmt.Errorf("count check-ins: %w", err)
	}
	if out.Attendance.Expected, err = s.statsRepo.CountExpectedAttendees(ctx, org, today); err != nil {
		return nil, fmt.Errorf("count expected attendees: %w", err)
	}
	out.Attendance.Rate = domain.AttendanceRate(out.Attendance.Today, out.Attendance.Expected)

	if out.Certificates.Total, err = s.statsRepo.CountCertificates(ctx, org, nil); err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}
	if out.Certificates.Today, err = s.statsRepo.CountCertificates(ctx, org, &today); err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}
	return out, nil
}

func (s *dashboardService) UpcomingEvents(ctx context.Context, actor domain.Principal, limit int) ([]*domain.UpcomingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	org, err := dashboardScope(actor)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit, defaultUpcomingLimit, maxUpcomingLimit)
	now := s.now()
	events, err := s.eventRepo.ListUpcomingByOrganizer(ctx, org, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	out := make([]*domain.UpcomingEvent, 0, len(events))
	for _, e := range events {
		hours := e.StartDate.Sub(now).Hours()
		out = append(out, &domain.UpcomingEvent{
			Event:          e,
			AvailableSlots: e.AvailableSlots(),
			HoursUntil:     math.Round(hours*10) / 10,
			Status:         domain.Urgency(hours),
		})
	}
	return out, nil
}

func (s *dashboardService) RecentActivity(ctx context.Context, actor domain.Principal, limit int) ([]*domain.UserActivity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	org, err := dashboardScope(actor)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit, defaultActivityLimit, maxActivityLimit)
	items, err := s.activityRepo.ListByOrganizer(ctx, org, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	if items == nil {
		items = []*domain.UserActivity{}
	}
	return items, nil
}

// dashboardScope returns the organizer id to filter by; empty means every organizer.
func dashboardScope(actor domain.Principal) (string, error) {
	if err := domain.Authorize(domain.ActionViewDashboard, actor); err != nil {
		return "", err
	}
	if actor.IsAdmin() {
		return "", nil
	}
	return actor.UserID, nil
}

func dayRange(now time.Time) domain.TimeRange {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return domain.TimeRange{From: start, To: start.AddDate(0, 0, 1)}
}

// monthRanges returns the current calendar month and the one before it.
func monthRanges(now time.Time) (current, previous domain.TimeRange) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	current = domain.TimeRange{From: start, To: start.AddDate(0, 1, 0)}
	previous = domain.TimeRange{From: start.AddDate(0, -1, 0), To: start}
	return current, previous
}

func clampLimit(limit, def, max int) int {
	if limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
