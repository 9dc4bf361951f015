package services

import (
	"context"
	"testing"
	"time"

	"academicevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEventService(st *store) *eventService {
	svc := NewEventService(fakeEventRepo{st}, fakeSessionRepo{st}, fakeCategoryRepo{st},
		fakeRegistrationRepo{st}, storeActivityLogger{st}, discardLogger(), 5*time.Second).(*eventService)
	svc.now = fixedClock(testNow)
	return svc
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   domain.Principal
		mutate  func(e *domain.Event)
		wantErr error
	}{
		{name: "organizer", actor: organizer("org-1")},
		{name: "admin", actor: admin("root")},
		{name: "attendee", actor: attendee("user-a"), wantErr: domain.ErrForbidden},
		{name: "start in the past", actor: organizer("org-1"), mutate: func(e *domain.Event) { e.StartDate = testNow.Add(-time.Minute) }, wantErr: domain.ErrInvalidInput},
		{name: "end before start", actor: organizer("org-1"), mutate: func(e *domain.Event) { e.EndDate = e.StartDate }, wantErr: domain.ErrInvalidInput},
		{name: "zero capacity", actor: organizer("org-1"), mutate: func(e *domain.Event) { e.MaxCapacity = 0 }, wantErr: domain.ErrInvalidInput},
		{name: "capacity too large", actor: organizer("org-1"), mutate: func(e *domain.Event) { e.MaxCapacity = maxEventCapacity + 1 }, wantErr: domain.ErrInvalidInput},
		{name: "unknown category", actor: organizer("org-1"), mutate: func(e *domain.Event) { e.CategoryID = "cat-x" }, wantErr: domain.ErrCategoryNotFound},
		{name: "too many tags", actor: organizer("org-1"), mutate: func(e *domain.Event) {
			e.Tags = make([]string, domain.MaxEventTags+1)
			for i := range e.Tags {
				e.Tags[i] = string(rune('a' + i))
			}
		}, wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStore()
			svc := newTestEventService(st)
			e := futureEvent("", 50)
			e.CategoryID = "cat-1"
			e.Tags = []string{" AI ", "ai", "Systems"}
			if tt.mutate != nil {
				tt.mutate(e)
			}

			err := svc.CreateEvent(ctx, tt.actor, e)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, st.events)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, e.ID)
			assert.Equal(t, tt.actor.UserID, e.OrganizerID)
			assert.True(t, e.IsActive)
			assert.Equal(t, testNow, e.CreatedAt)
			assert.Equal(t, []string{"ai", "systems"}, st.eventTags[e.ID])
			assert.Equal(t, []string{domain.ActivityEventCreated}, st.activityTypes())
		})
	}
}

func TestEventService_GetEvent(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	svc := newTestEventService(st)
	e := st.addEvent(futureEvent("org-1", 10))
	e.CurrentRegistrations = 10
	st.addSession(&domain.EventSession{EventID: e.ID, Title: "Opening", IsActive: true, StartTime: e.StartDate})
	st.registrations["reg-1"] = &domain.EventRegistration{ID: "reg-1", EventID: e.ID, UserID: "user-a", Status: domain.StatusRegistered}

	anon, err := svc.GetEvent(ctx, e.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Conference", anon.CategoryName)
	assert.Equal(t, 0, anon.AvailableSlots)
	assert.Equal(t, domain.AvailabilityFull, anon.RegistrationStatus)
	assert.Len(t, anon.Sessions, 1)
	assert.Nil(t, anon.UserRegistration)

	viewer := attendee("user-a")
	mine, err := svc.GetEvent(ctx, e.ID, &viewer)
	require.NoError(t, err)
	require.NotNil(t, mine.UserRegistration)
	assert.Equal(t, "reg-1", mine.UserRegistration.ID)

	_, err = svc.GetEvent(ctx, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_GetInactiveEvent(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	svc := newTestEventService(st)
	e := futureEvent("org-1", 10)
	e.IsActive = false
	st.addEvent(e)

	_, err := svc.GetEvent(ctx, e.ID, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	other := attendee("user-a")
	_, err = svc.GetEvent(ctx, e.ID, &other)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	owner := organizer("org-1")
	_, err = svc.GetEvent(ctx, e.ID, &owner)
	assert.NoError(t, err)
}

func TestEventService_ListEventsHidesFinished(t *testing.T) {
	st := newStore()
	svc := newTestEventService(st)
	upcoming := st.addEvent(futureEvent("org-1", 10))
	past := futureEvent("org-1", 10)
	past.StartDate = testNow.Add(-72 * time.Hour)
	past.EndDate = testNow.Add(-70 * time.Hour)
	st.addEvent(past)

	items, total, err := svc.ListEvents(context.Background(), domain.EventFilter{}, domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, upcoming.ID, items[0].ID)
	assert.Equal(t, 10, items[0].AvailableSlots)
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   domain.Principal
		update  domain.EventUpdate
		wantErr error
		check   func(t *testing.T, st *store, e *domain.Event)
	}{
		{
			name:   "owner changes title and tags",
			actor:  organizer("org-1"),
			update: domain.EventUpdate{Title: strPtr("  New title "), Tags: []string{"Go"}},
			check: func(t *testing.T, st *store, e *domain.Event) {
				assert.Equal(t, "New title", e.Title)
				assert.Equal(t, []string{"go"}, st.eventTags[e.ID])
				assert.Equal(t, 4, st.events[e.ID].CurrentRegistrations)
				assert.Equal(t, []string{domain.ActivityEventUpdated}, st.activityTypes())
			},
		},
		{name: "other organizer", actor: organizer("org-2"), update: domain.EventUpdate{Title: strPtr("x")}, wantErr: domain.ErrForbidden},
		{name: "capacity below registrations", actor: organizer("org-1"), update: domain.EventUpdate{MaxCapacity: intPtr(3)}, wantErr: domain.ErrCapacityBelowCount},
		{
			name:   "capacity equal to registrations",
			actor:  organizer("org-1"),
			update: domain.EventUpdate{MaxCapacity: intPtr(4)},
			check: func(t *testing.T, st *store, e *domain.Event) {
				assert.Equal(t, 4, st.events[e.ID].MaxCapacity)
				assert.True(t, e.IsFull())
			},
		},
		{name: "end before start", actor: organizer("org-1"), update: domain.EventUpdate{EndDate: &testNow}, wantErr: domain.ErrInvalidInput},
		{name: "unknown category", actor: admin("root"), update: domain.EventUpdate{CategoryID: strPtr("cat-9")}, wantErr: domain.ErrCategoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStore()
			svc := newTestEventService(st)
			e := st.addEvent(futureEvent("org-1", 10))
			e.CurrentRegistrations = 4

			got, err := svc.UpdateEvent(ctx, tt.actor, e.ID, tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, st, got)
		})
	}
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("with registrations", func(t *testing.T) {
		st := newStore()
		svc := newTestEventService(st)
		e := st.addEvent(futureEvent("org-1", 10))
		e.CurrentRegistrations = 1
		err := svc.DeleteEvent(ctx, organizer("org-1"), e.ID)
		assert.ErrorIs(t, err, domain.ErrEventHasRegistrations)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.True(t, st.events[e.ID].IsActive)
	})

	t.Run("empty event is soft deleted", func(t *testing.T) {
		st := newStore()
		svc := newTestEventService(st)
		e := st.addEvent(futureEvent("org-1", 10))
		require.NoError(t, svc.DeleteEvent(ctx, organizer("org-1"), e.ID))
		assert.False(t, st.events[e.ID].IsActive)
		assert.Equal(t, []string{domain.ActivityEventDeleted}, st.activityTypes())
		assert.ErrorIs(t, svc.DeleteEvent(ctx, organizer("org-1"), e.ID), domain.ErrNotFound)
	})

	t.Run("forbidden", func(t *testing.T) {
		st := newStore()
		svc := newTestEventService(st)
		e := st.addEvent(futureEvent("org-1", 10))
		assert.ErrorIs(t, svc.DeleteEvent(ctx, attendee("user-a"), e.ID), domain.ErrForbidden)
	})
}

func TestEventService_AddSession(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	svc := newTestEventService(st)
	e := st.addEvent(futureEvent("org-1", 10))

	ss := domain.NewEventSession(e.ID, "Keynote", e.StartDate, e.StartDate.Add(time.Hour), intPtr(50), true, time.Time{}, time.Time{})
	require.NoError(t, svc.AddSession(ctx, organizer("org-1"), ss))
	assert.NotEmpty(t, ss.ID)
	assert.Equal(t, testNow, ss.CreatedAt)

	bad := domain.NewEventSession(e.ID, "Broken", e.StartDate, e.StartDate, nil, true, time.Time{}, time.Time{})
	assert.ErrorIs(t, svc.AddSession(ctx, organizer("org-1"), bad), domain.ErrInvalidInput)

	zero := domain.NewEventSession(e.ID, "Tiny", e.StartDate, e.StartDate.Add(time.Hour), intPtr(0), true, time.Time{}, time.Time{})
	assert.ErrorIs(t, svc.AddSession(ctx, organizer("org-1"), zero), domain.ErrInvalidInput)

	other := domain.NewEventSession(e.ID, "Intruder", e.StartDate, e.StartDate.Add(time.Hour), nil, true, time.Time{}, time.Time{})
	assert.ErrorIs(t, svc.AddSession(ctx, organizer("org-2"), other), domain.ErrForbidden)
}
