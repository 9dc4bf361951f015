package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"academicevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationController_List(t *testing.T) {
	fake := &fakeNotificationService{page: &domain.NotificationPage{
		Items:       []*domain.Notification{{ID: "n1", Type: domain.NotificationEvent, Title: "Registered"}},
		Total:       1,
		UnreadCount: 1,
	}}
	ctrl := NewNotificationController(testLogger, fake)
	rr := httptest.NewRecorder()

	ctrl.List(rr, newRequest(http.MethodGet, "/notifications?unread_only=true", "", &attendee))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, fake.lastUnreadOnly)
	var resp NotificationListResponse
	decodeData(t, decodeEnvelope(t, rr), &resp)
	assert.Equal(t, 1, resp.UnreadCount)
	assert.Equal(t, 1, resp.Pagination.Total)
	require.Len(t, resp.Items, 1)
}

func TestNotificationController_MarkAsRead(t *testing.T) {
	id := "88888888-8888-8888-8888-888888888888"

	t.Run("owner", func(t *testing.T) {
		fake := &fakeNotificationService{marked: &domain.Notification{ID: id, IsRead: true}}
		ctrl := NewNotificationController(testLogger, fake)
		rr := httptest.NewRecorder()

		ctrl.MarkAsRead(rr, newRequest(http.MethodPost, "/notifications/"+id+"/read", "", &attendee, "id", id))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, id, fake.lastID)
	})

	t.Run("someone else's notification", func(t *testing.T) {
		ctrl := NewNotificationController(testLogger, &fakeNotificationService{err: domain.ErrNotFound})
		rr := httptest.NewRecorder()

		ctrl.MarkAsRead(rr, newRequest(http.MethodPost, "/notifications/"+id+"/read", "", &attendee, "id", id))

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCertificateController(t *testing.T) {
	t.Run("list mine", func(t *testing.T) {
		fake := &fakeCertificateService{certs: []*domain.CertificateView{{Certificate: &domain.Certificate{ID: "c1"}, EventTitle: "Go Conf"}}}
		ctrl := NewCertificateController(testLogger, fake)
		rr := httptest.NewRecorder()

		ctrl.ListMine(rr, newRequest(http.MethodGet, "/certificates", "", &attendee))

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("verify is public", func(t *testing.T) {
		fake := &fakeCertificateService{cert: &domain.CertificateView{Certificate: &domain.Certificate{ID: "c1", VerificationCode: "ABC123"}, UserName: "Ana"}}
		ctrl := NewCertificateController(testLogger, fake)
		rr := httptest.NewRecorder()

		ctrl.Verify(rr, newRequest(http.MethodGet, "/certificates/verify/ABC123", "", nil, "code", "ABC123"))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ABC123", fake.lastCode)
	})

	t.Run("unknown code", func(t *testing.T) {
		ctrl := NewCertificateController(testLogger, &fakeCertificateService{err: domain.ErrNotFound})
		rr := httptest.NewRecorder()

		ctrl.Verify(rr, newRequest(http.MethodGet, "/certificates/verify/NOPE", "", nil, "code", "NOPE"))

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDashboardController(t *testing.T) {
	t.Run("stats", func(t *testing.T) {
		fake := &fakeDashboardService{stats: &domain.OrganizerStats{Events: domain.EventStats{Total: 3, Trend: 100}}}
		ctrl := NewDashboardController(testLogger, fake)
		rr := httptest.NewRecorder()

		ctrl.Stats(rr, newRequest(http.MethodGet, "/dashboard/stats", "", &organizer))

		require.Equal(t, http.StatusOK, rr.Code)
		var got domain.OrganizerStats
		decodeData(t, decodeEnvelope(t, rr), &got)
		assert.Equal(t, 100, got.Events.Trend)
	})

	t.Run("attendee forbidden", func(t *testing.T) {
		ctrl := NewDashboardController(testLogger, &fakeDashboardService{err: domain.ErrForbidden})
		rr := httptest.NewRecorder()

		ctrl.Stats(rr, newRequest(http.MethodGet, "/dashboard/stats", "", &attendee))

		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	limits := []struct {
		query string
		want  int
	}{
		{"", 5},
		{"?limit=3", 3},
		{"?limit=50", 20},
		{"?limit=0", 5},
		{"?limit=abc", 5},
	}
	for _, tt := range limits {
		t.Run("upcoming limit "+tt.query, func(t *testing.T) {
			fake := &fakeDashboardService{}
			ctrl := NewDashboardController(testLogger, fake)
			rr := httptest.NewRecorder()

			ctrl.UpcomingEvents(rr, newRequest(http.MethodGet, "/dashboard/upcoming-events"+tt.query, "", &organizer))

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, fake.lastLimit)
		})
	}

	t.Run("recent activity", func(t *testing.T) {
		fake := &fakeDashboardService{activity: []*domain.UserActivity{{ID: "a1"}}}
		ctrl := NewDashboardController(testLogger, fake)
		rr := httptest.NewRecorder()

		ctrl.RecentActivity(rr, newRequest(http.MethodGet, "/dashboard/recent-activity?limit=10", "", &organizer))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 10, fake.lastLimit)
	})
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthController(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ctrl := NewHealthController(testLogger, fakePinger{})
		rr := httptest.NewRecorder()

		ctrl.Health(rr, newRequest(http.MethodGet, "/health", "", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got map[string]string
		decodeData(t, decodeEnvelope(t, rr), &got)
		assert.Equal(t, "ok", got["status"])
	})

	t.Run("database down", func(t *testing.T) {
		ctrl := NewHealthController(testLogger, fakePinger{err: errors.New("connection refused")})
		rr := httptest.NewRecorder()

		ctrl.Health(rr, newRequest(http.MethodGet, "/health", "", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
