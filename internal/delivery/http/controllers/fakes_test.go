package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"academicevents/internal/delivery/http/helpers"
	"academicevents/internal/delivery/http/middleware"
	"academicevents/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	testEventID = "22222222-2222-2222-2222-222222222222"
	testRegID   = "33333333-3333-3333-3333-333333333333"
)

var (
	attendee  = domain.Principal{UserID: testUserID, Email: "ana@example.com", Roles: []string{domain.RoleAttendee}}
	organizer = domain.Principal{UserID: testUserID, Email: "org@example.com", Roles: []string{domain.RoleOrganizer}}
)

// newRequest builds a JSON request, optionally authenticated and with path values
// given as name/value pairs.
func newRequest(method, target, body string, p *domain.Principal, pathValues ...string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		r = r.WithContext(middleware.SetPrincipal(r.Context(), *p))
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		r.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return r
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var env helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env), "response must be valid JSON envelope")
	return env
}

// decodeData re-marshals envelope data into dest.
func decodeData(t *testing.T, env helpers.APIResponse, dest any) {
	t.Helper()
	b, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, dest))
}

// fakeAuthService implements domain.AuthService.
type fakeAuthService struct {
	user  *domain.User
	token string
	err   error

	lastEmail, lastPassword, lastName string
	lastRoleUserID, lastRole          string
}

func (f *fakeAuthService) SignUp(_ context.Context, email, password, name string) (*domain.User, error) {
	f.lastEmail, f.lastPassword, f.lastName = email, password, name
	return f.user, f.err
}

func (f *fakeAuthService) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	f.lastEmail, f.lastPassword = email, password
	if f.err != nil {
		return "", nil, f.err
	}
	return f.token, f.user, nil
}

func (f *fakeAuthService) AssignRole(_ context.Context, _ domain.Principal, userID, roleCode string) (*domain.User, error) {
	f.lastRoleUserID, f.lastRole = userID, roleCode
	return f.user, f.err
}

// fakeEventService implements domain.EventService.
type fakeEventService struct {
	err        error
	events     []*domain.EventSummary
	total      int
	details    *domain.EventDetails
	updated    *domain.Event
	categories []*domain.Category

	lastFilter  domain.EventFilter
	lastParams  domain.PaginationParams
	lastViewer  *domain.Principal
	lastCreate  *domain.Event
	lastUpdate  domain.EventUpdate
	lastEventID string
	lastSession *domain.EventSession
}

func (f *fakeEventService) CreateEvent(_ context.Context, actor domain.Principal, event *domain.Event) error {
	f.lastCreate = event
	if f.err != nil {
		return f.err
	}
	event.ID = testEventID
	event.OrganizerID = actor.UserID
	return nil
}

func (f *fakeEventService) GetEvent(_ context.Context, eventID string, viewer *domain.Principal) (*domain.EventDetails, error) {
	f.lastEventID, f.lastViewer = eventID, viewer
	return f.details, f.err
}

func (f *fakeEventService) ListEvents(_ context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventSummary, int, error) {
	f.lastFilter, f.lastParams = filter, params
	return f.events, f.total, f.err
}

func (f *fakeEventService) ListFeatured(context.Context) ([]*domain.EventSummary, error) {
	return f.events, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, _ domain.Principal, eventID string, update domain.EventUpdate) (*domain.Event, error) {
	f.lastEventID, f.lastUpdate = eventID, update
	return f.updated, f.err
}

func (f *fakeEventService) DeleteEvent(_ context.Context, _ domain.Principal, eventID string) error {
	f.lastEventID = eventID
	return f.err
}

func (f *fakeEventService) AddSession(_ context.Context, _ domain.Principal, session *domain.EventSession) error {
	f.lastSession = session
	if f.err == nil {
		session.ID = "sess-1"
	}
	return f.err
}

func (f *fakeEventService) ListCategories(context.Context) ([]*domain.Category, error) {
	return f.categories, f.err
}

// fakeRegistrationService implements domain.RegistrationService.
type fakeRegistrationService struct {
	err        error
	result     *domain.RegistrationResult
	details    *domain.RegistrationDetails
	attendance *domain.AttendanceResult
	bulk       *domain.BulkCheckInResult
	byUser     []*domain.RegistrationWithEvent
	byEvent    []*domain.RegistrationWithUser
	stats      domain.RegistrationStats
	total      int

	lastEventID    string
	lastRegID      string
	lastSessionIDs []string
	lastNotes      *string
	lastReason     *string
	lastStatus     domain.RegistrationStatus
	lastFilter     domain.RegistrationListFilter
	lastQRCodes    []string
	cancelled      bool
}

func (f *fakeRegistrationService) Register(_ context.Context, _ domain.Principal, eventID string, sessionIDs []string, notes *string) (*domain.RegistrationResult, error) {
	f.lastEventID, f.lastSessionIDs, f.lastNotes = eventID, sessionIDs, notes
	return f.result, f.err
}

func (f *fakeRegistrationService) Cancel(_ context.Context, _ domain.Principal, registrationID string, reason *string) error {
	f.lastRegID, f.lastReason = registrationID, reason
	f.cancelled = f.err == nil
	return f.err
}

func (f *fakeRegistrationService) GetRegistration(_ context.Context, _ domain.Principal, registrationID string) (*domain.RegistrationDetails, error) {
	f.lastRegID = registrationID
	return f.details, f.err
}

func (f *fakeRegistrationService) ListUserRegistrations(_ context.Context, _ domain.Principal, _ string, filter domain.RegistrationListFilter, _ domain.PaginationParams) ([]*domain.RegistrationWithEvent, int, error) {
	f.lastFilter = filter
	return f.byUser, f.total, f.err
}

func (f *fakeRegistrationService) ListEventRegistrations(_ context.Context, _ domain.Principal, eventID string, status domain.RegistrationStatus, _ domain.PaginationParams) ([]*domain.RegistrationWithUser, int, domain.RegistrationStats, error) {
	f.lastEventID, f.lastStatus = eventID, status
	return f.byEvent, f.total, f.stats, f.err
}

func (f *fakeRegistrationService) CheckIn(_ context.Context, _ domain.Principal, registrationID string) (*domain.AttendanceResult, error) {
	f.lastRegID = registrationID
	return f.attendance, f.err
}

func (f *fakeRegistrationService) CheckOut(_ context.Context, _ domain.Principal, registrationID string) (*domain.AttendanceResult, error) {
	f.lastRegID = registrationID
	return f.attendance, f.err
}

func (f *fakeRegistrationService) BulkCheckIn(_ context.Context, _ domain.Principal, qrCodes []string) (*domain.BulkCheckInResult, error) {
	f.lastQRCodes = qrCodes
	return f.bulk, f.err
}

// fakeProfileService implements domain.ProfileService.
type fakeProfileService struct {
	err   error
	view  *domain.ProfileView
	user  *domain.User
	items []*domain.UserActivity
	total int

	lastProfile           *domain.UserProfile
	lastPrefs             *domain.NotificationPreferences
	lastCurrent, lastNew  string
	lastEmail, lastPasswd string
}

func (f *fakeProfileService) GetProfile(context.Context, domain.Principal) (*domain.ProfileView, error) {
	return f.view, f.err
}

func (f *fakeProfileService) UpdatePersonalData(_ context.Context, actor domain.Principal, profile *domain.UserProfile) (*domain.UserProfile, error) {
	f.lastProfile = profile
	if f.err != nil {
		return nil, f.err
	}
	profile.UserID = actor.UserID
	return profile, nil
}

func (f *fakeProfileService) ChangePassword(_ context.Context, _ domain.Principal, current, next string) error {
	f.lastCurrent, f.lastNew = current, next
	return f.err
}

func (f *fakeProfileService) ChangeEmail(_ context.Context, _ domain.Principal, newEmail, password string) (*domain.User, error) {
	f.lastEmail, f.lastPasswd = newEmail, password
	return f.user, f.err
}

func (f *fakeProfileService) UpdateNotificationPreferences(_ context.Context, actor domain.Principal, prefs *domain.NotificationPreferences) (*domain.NotificationPreferences, error) {
	f.lastPrefs = prefs
	if f.err != nil {
		return nil, f.err
	}
	prefs.UserID = actor.UserID
	return prefs, nil
}

func (f *fakeProfileService) ListActivity(context.Context, domain.Principal, domain.PaginationParams) ([]*domain.UserActivity, int, error) {
	return f.items, f.total, f.err
}

// fakeNotificationService implements domain.NotificationService.
type fakeNotificationService struct {
	err            error
	page           *domain.NotificationPage
	marked         *domain.Notification
	lastUnreadOnly bool
	lastID         string
}

func (f *fakeNotificationService) Notify(context.Context, string, string, string, string, *string, *string) (*domain.Notification, error) {
	return nil, f.err
}

func (f *fakeNotificationService) List(_ context.Context, _ domain.Principal, unreadOnly bool, _ domain.PaginationParams) (*domain.NotificationPage, error) {
	f.lastUnreadOnly = unreadOnly
	return f.page, f.err
}

func (f *fakeNotificationService) MarkAsRead(_ context.Context, _ domain.Principal, id string) (*domain.Notification, error) {
	f.lastID = id
	return f.marked, f.err
}

// fakeCertificateService implements domain.CertificateService.
type fakeCertificateService struct {
	err      error
	certs    []*domain.CertificateView
	cert     *domain.CertificateView
	lastCode string
}

func (f *fakeCertificateService) ListMine(context.Context, domain.Principal) ([]*domain.CertificateView, error) {
	return f.certs, f.err
}

func (f *fakeCertificateService) Verify(_ context.Context, code string) (*domain.CertificateView, error) {
	f.lastCode = code
	return f.cert, f.err
}

// fakeDashboardService implements domain.DashboardService.
type fakeDashboardService struct {
	err       error
	stats     *domain.OrganizerStats
	upcoming  []*domain.UpcomingEvent
	activity  []*domain.UserActivity
	lastLimit int
}

func (f *fakeDashboardService) OrganizerStats(context.Context, domain.Principal) (*domain.OrganizerStats, error) {
	return f.stats, f.err
}

func (f *fakeDashboardService) UpcomingEvents(_ context.Context, _ domain.Principal, limit int) ([]*domain.UpcomingEvent, error) {
	f.lastLimit = limit
	return f.upcoming, f.err
}

func (f *fakeDashboardService) RecentActivity(_ context.Context, _ domain.Principal, limit int) ([]*domain.UserActivity, error) {
	f.lastLimit = limit
	return f.activity, f.err
}
