package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"academicevents/internal/domain"
)

var errDB = errors.New("db error")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// store is the shared in-memory state behind the fake repositories. The
// registration methods apply the same guards the SQL transaction does.
type store struct {
	mu sync.Mutex

	events        map[string]*domain.Event
	categories    map[string]*domain.Category
	sessions      map[string]*domain.EventSession
	registrations map[string]*domain.EventRegistration
	sessionLinks  map[string][]string
	certificates  map[string]*domain.Certificate
	users         map[string]*domain.User
	activities    []*domain.UserActivity
	eventTags     map[string][]string
	nextID        int

	err error // returned by every write when set
}

func newStore() *store {
	return &store{
		events:        make(map[string]*domain.Event),
		categories:    map[string]*domain.Category{"cat-1": {ID: "cat-1", Name: "Conference"}},
		sessions:      make(map[string]*domain.EventSession),
		registrations: make(map[string]*domain.EventRegistration),
		sessionLinks:  make(map[string][]string),
		certificates:  make(map[string]*domain.Certificate),
		users:         make(map[string]*domain.User),
		eventTags:     make(map[string][]string),
	}
}

func (s *store) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *store) addEvent(e *domain.Event) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.id("ev")
	}
	if e.CategoryID == "" {
		e.CategoryID = "cat-1"
	}
	s.events[e.ID] = e
	return e
}

func (s *store) addSession(ss *domain.EventSession) *domain.EventSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ss.ID == "" {
		ss.ID = s.id("sess")
	}
	s.sessions[ss.ID] = ss
	return ss
}

func (s *store) addUser(u *domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.id("user")
	}
	s.users[u.ID] = u
	return u
}

func (s *store) activityTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.activities))
	for i, a := range s.activities {
		out[i] = a.ActivityType
	}
	return out
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	c.Tags = append([]string(nil), e.Tags...)
	return &c
}

func copyRegistration(r *domain.EventRegistration) *domain.EventRegistration {
	c := *r
	return &c
}

// fakeEventRepo implements domain.EventRepository over store.
type fakeEventRepo struct{ *store }

func (f fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.addEvent(e)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventTags[e.ID] = append([]string(nil), e.Tags...)
	return nil
}

func (f fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyEvent(e)
	c.Tags = append([]string{}, f.eventTags[id]...)
	return c, nil
}

func (f fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EventSummary
	for _, e := range f.events {
		if !e.IsActive || (filter.EndsAfter != nil && !e.EndDate.After(*filter.EndsAfter)) {
			continue
		}
		if filter.CategoryID != "" && e.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, domain.NewEventSummary(copyEvent(e), f.categories[e.CategoryID].Name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, len(out), nil
}

func (f fakeEventRepo) ListFeatured(ctx context.Context, now time.Time, limit int) ([]*domain.EventSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EventSummary
	for _, e := range f.events {
		if e.IsActive && e.IsFeatured && e.StartDate.After(now) {
			out = append(out, domain.NewEventSummary(copyEvent(e), ""))
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeEventRepo) ListUpcomingByOrganizer(ctx context.Context, organizerID string, now time.Time, limit int) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.events {
		if e.IsActive && e.StartDate.After(now) && (organizerID == "" || e.OrganizerID == organizerID) {
			out = append(out, copyEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeEventRepo) Update(ctx context.Context, e *domain.Event, replaceTags bool) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.events[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if e.MaxCapacity < cur.CurrentRegistrations {
		return domain.ErrCapacityBelowCount
	}
	c := copyEvent(e)
	c.CurrentRegistrations = cur.CurrentRegistrations
	f.events[e.ID] = c
	if replaceTags {
		f.eventTags[e.ID] = append([]string(nil), e.Tags...)
	}
	return nil
}

func (f fakeEventRepo) SoftDelete(ctx context.Context, id string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || !e.IsActive {
		return domain.ErrNotFound
	}
	if e.CurrentRegistrations > 0 {
		return domain.ErrEventHasRegistrations
	}
	e.IsActive = false
	e.UpdatedAt = updatedAt
	return nil
}

// fakeCategoryRepo implements domain.CategoryRepository over store.
type fakeCategoryRepo struct{ *store }

func (f fakeCategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

// fakeSessionRepo implements domain.SessionRepository over store.
type fakeSessionRepo struct{ *store }

func (f fakeSessionRepo) Create(ctx context.Context, ss *domain.EventSession) error {
	if f.err != nil {
		return f.err
	}
	f.addSession(ss)
	return nil
}

func (f fakeSessionRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EventSession
	for _, ss := range f.sessions {
		if ss.EventID == eventID && ss.IsActive {
			c := *ss
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f fakeSessionRepo) ListRegistrable(ctx context.Context, eventID string, ids []string) ([]*domain.EventSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EventSession
	for _, id := range ids {
		ss, ok := f.sessions[id]
		if ok && ss.EventID == eventID && ss.IsActive && ss.RequiresRegistration {
			c := *ss
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f fakeSessionRepo) ListByRegistrationID(ctx context.Context, registrationID string) ([]*domain.EventSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EventSession
	for _, id := range f.sessionLinks[registrationID] {
		c := *f.sessions[id]
		out = append(out, &c)
	}
	return out, nil
}

// fakeRegistrationRepo implements domain.RegistrationRepository over store.
type fakeRegistrationRepo struct{ *store }

func (f fakeRegistrationRepo) GetByID(ctx context.Context, id string) (*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.registrations[id]; ok {
		return copyRegistration(r), nil
	}
	return nil, domain.ErrNotFound
}

func (f fakeRegistrationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.registrations {
		if r.EventID == eventID && r.UserID == userID {
			return copyRegistration(r), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeRegistrationRepo) GetByQRCode(ctx context.Context, qrCode string) (*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.registrations {
		if r.QRCode == qrCode {
			return copyRegistration(r), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeRegistrationRepo) ListByUser(ctx context.Context, userID string, filter domain.RegistrationListFilter, params domain.PaginationParams) ([]*domain.RegistrationWithEvent, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.RegistrationWithEvent
	for _, r := range f.registrations {
		if r.UserID != userID || (filter.Status != "" && r.Status != filter.Status) {
			continue
		}
		e := copyEvent(f.events[r.EventID])
		if filter.EventStatus != "" && e.StatusAt(filter.Now) != filter.EventStatus {
			continue
		}
		out = append(out, &domain.RegistrationWithEvent{Registration: copyRegistration(r), Event: e})
	}
	return out, len(out), nil
}

func (f fakeRegistrationRepo) ListByEvent(ctx context.Context, eventID string, status domain.RegistrationStatus, params domain.PaginationParams) ([]*domain.RegistrationWithUser, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.RegistrationWithUser
	for _, r := range f.registrations {
		if r.EventID != eventID || (status != "" && r.Status != status) {
			continue
		}
		item := &domain.RegistrationWithUser{Registration: copyRegistration(r)}
		if u, ok := f.users[r.UserID]; ok {
			item.UserName, item.UserEmail = u.Name, u.Email
		}
		out = append(out, item)
	}
	return out, len(out), nil
}

func (f fakeRegistrationRepo) StatsByEvent(ctx context.Context, eventID string) (domain.RegistrationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var st domain.RegistrationStats
	for _, r := range f.registrations {
		if r.EventID != eventID {
			continue
		}
		st.Total++
		switch r.Status {
		case domain.StatusRegistered:
			st.Registered++
		case domain.StatusAttended:
			st.Attended++
		case domain.StatusCancelled:
			st.Cancelled++
		}
	}
	return st, nil
}

func (f fakeRegistrationRepo) Register(ctx context.Context, reg *domain.EventRegistration, sessionIDs []string, activity *domain.UserActivity) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	for _, r := range f.registrations {
		if r.EventID == reg.EventID && r.UserID == reg.UserID {
			return 0, domain.ErrAlreadyRegistered
		}
	}
	e := f.events[reg.EventID]
	if e == nil || !e.IsActive || e.CurrentRegistrations >= e.MaxCapacity {
		return 0, domain.ErrEventFull
	}
	for _, id := range sessionIDs {
		if ss := f.sessions[id]; ss.IsFull() {
			return 0, &domain.SessionFullError{SessionID: ss.ID, Title: ss.Title}
		}
	}
	reg.ID = f.id("reg")
	f.registrations[reg.ID] = copyRegistration(reg)
	e.CurrentRegistrations++
	for _, id := range sessionIDs {
		f.sessions[id].CurrentRegistrations++
	}
	f.sessionLinks[reg.ID] = append([]string(nil), sessionIDs...)
	f.activities = append(f.activities, activity)
	return e.CurrentRegistrations, nil
}

func (f fakeRegistrationRepo) Cancel(ctx context.Context, registrationID, reason string, at time.Time, activity *domain.UserActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	r, ok := f.registrations[registrationID]
	if !ok || r.Status != domain.StatusRegistered {
		return domain.ErrNotFound
	}
	r.Status = domain.StatusCancelled
	r.CancelledAt = &at
	if reason != "" {
		r.CancellationReason = &reason
	}
	for _, id := range f.sessionLinks[registrationID] {
		if ss := f.sessions[id]; ss.CurrentRegistrations > 0 {
			ss.CurrentRegistrations--
		}
	}
	delete(f.sessionLinks, registrationID)
	if e := f.events[r.EventID]; e.CurrentRegistrations > 0 {
		e.CurrentRegistrations--
	}
	f.activities = append(f.activities, activity)
	return nil
}

func (f fakeRegistrationRepo) CheckIn(ctx context.Context, registrationID string, at time.Time, activity *domain.UserActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.registrations[registrationID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.CheckedInAt != nil {
		return domain.ErrAlreadyCheckedIn
	}
	r.CheckedInAt = &at
	r.Status = domain.StatusAttended
	f.activities = append(f.activities, activity)
	return nil
}

func (f fakeRegistrationRepo) CheckOut(ctx context.Context, registrationID string, at time.Time, cert *domain.Certificate, activity *domain.UserActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.registrations[registrationID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.CheckedOutAt != nil {
		return domain.ErrAlreadyCheckedOut
	}
	r.CheckedOutAt = &at
	if cert != nil {
		if _, exists := f.certificates[registrationID]; !exists {
			cert.ID = f.id("cert")
			c := *cert
			f.certificates[registrationID] = &c
		}
	}
	f.activities = append(f.activities, activity)
	return nil
}

// fakeCertificateRepo implements domain.CertificateRepository over store.
type fakeCertificateRepo struct{ *store }

func (f fakeCertificateRepo) GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.certificates[registrationID]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f fakeCertificateRepo) ListByUser(ctx context.Context, userID string) ([]*domain.CertificateView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.CertificateView
	for _, c := range f.certificates {
		if c.UserID == userID {
			out = append(out, &domain.CertificateView{Certificate: c, EventTitle: f.events[c.EventID].Title})
		}
	}
	return out, nil
}

func (f fakeCertificateRepo) GetByVerificationCode(ctx context.Context, code string) (*domain.CertificateView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.certificates {
		if c.VerificationCode == code {
			return &domain.CertificateView{Certificate: c}, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeUserRepo implements domain.UserRepository over store.
type fakeUserRepo struct {
	*store
	roles map[string][]string // user id -> role ids
}

func newFakeUserRepo(s *store) *fakeUserRepo {
	return &fakeUserRepo{store: s, roles: make(map[string][]string)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User, roleID string) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	f.addUser(u)
	f.roles[u.ID] = append(f.roles[u.ID], roleID)
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userID, hash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash, u.UpdatedAt = hash, at
	return nil
}

func (f *fakeUserRepo) UpdateEmail(ctx context.Context, userID, email string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Email, u.UpdatedAt = email, at
	return nil
}

func (f *fakeUserRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	for _, r := range f.roles[userID] {
		if r == roleID {
			return nil
		}
	}
	f.roles[userID] = append(f.roles[userID], roleID)
	return nil
}

// fakeRoleRepo resolves the three fixed roles and reads assignments from users.
type fakeRoleRepo struct {
	users *fakeUserRepo
}

func (f fakeRoleRepo) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	switch code {
	case domain.RoleAdmin, domain.RoleOrganizer, domain.RoleAttendee:
		return &domain.Role{ID: "role-" + code, Code: code}, nil
	}
	return nil, domain.ErrNotFound
}

func (f fakeRoleRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Role, error) {
	var out []*domain.Role
	for _, id := range f.users.roles[userID] {
		out = append(out, &domain.Role{ID: id, Code: id[len("role-"):]})
	}
	return out, nil
}

// fakeHasher prefixes passwords instead of hashing them.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	err error
}

func (f fakeTokenIssuer) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID, nil
}

// recordingNotifier implements domain.NotificationService and remembers what it sent.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, userID, kind, title, message string, relatedType, relatedID *string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	n := domain.Notification{UserID: userID, Type: kind, Title: title, Message: message, RelatedEntityType: relatedType, RelatedEntityID: relatedID}
	r.sent = append(r.sent, n)
	return &n, nil
}

func (r *recordingNotifier) List(ctx context.Context, actor domain.Principal, unreadOnly bool, params domain.PaginationParams) (*domain.NotificationPage, error) {
	return &domain.NotificationPage{}, nil
}

func (r *recordingNotifier) MarkAsRead(ctx context.Context, actor domain.Principal, id string) (*domain.Notification, error) {
	return nil, domain.ErrNotFound
}

func (r *recordingNotifier) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.UserID
	}
	return out
}

// recordingDispatcher implements domain.EmailDispatcher.
type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []domain.EmailJob
	err  error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, job domain.EmailJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) templates() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.jobs))
	for i, j := range d.jobs {
		out[i] = j.Template
	}
	return out
}

// storeActivityLogger appends to store.activities.
type storeActivityLogger struct{ *store }

func (l storeActivityLogger) Log(ctx context.Context, a *domain.UserActivity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activities = append(l.activities, a)
}

// fakeActivityRepo implements domain.ActivityRepository over store.
type fakeActivityRepo struct{ *store }

func (f fakeActivityRepo) Create(ctx context.Context, a *domain.UserActivity) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, a)
	return nil
}

func (f fakeActivityRepo) ListByUser(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.UserActivity, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.UserActivity
	for _, a := range f.activities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (f fakeActivityRepo) ListByOrganizer(ctx context.Context, organizerID string, limit int) ([]*domain.UserActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.UserActivity
	for _, a := range f.activities {
		if a.RelatedEntityID == nil {
			continue
		}
		if e, ok := f.events[*a.RelatedEntityID]; ok && (organizerID == "" || e.OrganizerID == organizerID) {
			out = append(out, a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// registrationFixture wires a registrationService over a fresh store.
type registrationFixture struct {
	store    *store
	svc      *registrationService
	notifier *recordingNotifier
	mails    *recordingDispatcher
	users    *fakeUserRepo
}

func newRegistrationFixture(now time.Time) *registrationFixture {
	st := newStore()
	users := newFakeUserRepo(st)
	notifier := &recordingNotifier{}
	mails := &recordingDispatcher{}
	svc := NewRegistrationService(
		fakeRegistrationRepo{st}, fakeEventRepo{st}, fakeSessionRepo{st}, fakeCertificateRepo{st},
		users, notifier, mails, discardLogger(), 5*time.Second,
	).(*registrationService)
	svc.now = fixedClock(now)
	return &registrationFixture{store: st, svc: svc, notifier: notifier, mails: mails, users: users}
}

func attendee(id string) domain.Principal {
	return domain.Principal{UserID: id, Email: id + "@example.com", Roles: []string{domain.RoleAttendee}}
}

func organizer(id string) domain.Principal {
	return domain.Principal{UserID: id, Email: id + "@example.com", Roles: []string{domain.RoleOrganizer}}
}

func admin(id string) domain.Principal {
	return domain.Principal{UserID: id, Email: id + "@example.com", Roles: []string{domain.RoleAdmin}}
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
