package domain

import (
	"context"
	"math"
	"time"
)

// CalculateTrend returns the percentage change from previous to current,
// rounded to the nearest integer. A zero previous value yields 100 when
// current is positive and 0 otherwise.
func CalculateTrend(current, previous int) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

// AttendanceRate returns round(checkedIn/expected*100), or 0 when nothing is expected.
func AttendanceRate(checkedIn, expected int) int {
	if expected == 0 {
		return 0
	}
	return int(math.Round(float64(checkedIn) / float64(expected) * 100))
}

// Upcoming-event urgency labels used by the organizer dashboard.
const (
	UrgencyUpcoming = "upcoming"
	UrgencySoon     = "soon"
	UrgencyVerySoon = "very-soon"
)

// Urgency classifies how close an event start is.
func Urgency(hoursUntil float64) string {
	switch {
	case hoursUntil <= 2:
		return UrgencyVerySoon
	case hoursUntil <= 24:
		return UrgencySoon
	default:
		return UrgencyUpcoming
	}
}

// EventStats are the event counters on the organizer dashboard.
type EventStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
	Trend     int `json:"trend"`
}

// RegistrationTotals are the registration counters on the organizer dashboard.
type RegistrationTotals struct {
	Total int `json:"total"`
	Today int `json:"today"`
	Trend int `json:"trend"`
}

// AttendanceStats describe today's check-ins.
type AttendanceStats struct {
	Today    int `json:"today"`
	Expected int `json:"expected"`
	Rate     int `json:"rate"`
}

// CertificateStats count certificates that reached issued or downloaded.
type CertificateStats struct {
	Total int `json:"total"`
	Today int `json:"today"`
}

// OrganizerStats is the dashboard summary for one organizer.
// swagger:model OrganizerStats
type OrganizerStats struct {
	Events        EventStats         `json:"events"`
	Registrations RegistrationTotals `json:"registrations"`
	Attendance    AttendanceStats    `json:"attendance"`
	Certificates  CertificateStats   `json:"certificates"`
}

// UpcomingEvent is a dashboard row for an event that has not started.
// swagger:model UpcomingEvent
type UpcomingEvent struct {
	*Event
	AvailableSlots int     `json:"available_slots"`
	HoursUntil     float64 `json:"hours_until"`
	Status         string  `json:"status"`
}

// TimeRange is a half-open [From, To) interval.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// StatsRepository runs the dashboard aggregate queries scoped to an organizer.
type StatsRepository interface {
	CountEvents(ctx context.Context, organizerID string, now time.Time) (EventStats, error)
	CountEventsCreated(ctx context.Context, organizerID string, r TimeRange) (int, error)
	CountRegistrations(ctx context.Context, organizerID string, r *TimeRange) (int, error)
	CountCheckIns(ctx context.Context, organizerID string, r TimeRange) (int, error)
	// CountExpectedAttendees counts active registrations for events running during r.
	CountExpectedAttendees(ctx context.Context, organizerID string, r TimeRange) (int, error)
	CountCertificates(ctx context.Context, organizerID string, r *TimeRange) (int, error)
}

// DashboardService builds the organizer dashboard.
type DashboardService interface {
	OrganizerStats(ctx context.Context, actor Principal) (*OrganizerStats, error)
	UpcomingEvents(ctx context.Context, actor Principal, limit int) ([]*UpcomingEvent, error)
	RecentActivity(ctx context.Context, actor Principal, limit int) ([]*UserActivity, error)
}
