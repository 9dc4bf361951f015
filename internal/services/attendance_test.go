package services

import (
	"context"
	"testing"
	"time"

	"academicevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runningEvent starts at testNow and ends eight hours later.
func runningEvent(f *registrationFixture, requiresCertificate bool) (*domain.Event, *domain.EventRegistration) {
	e := futureEvent("org-1", 10)
	e.StartDate = testNow
	e.EndDate = testNow.Add(8 * time.Hour)
	e.RequiresCertificate = requiresCertificate
	f.store.addEvent(e)
	reg := &domain.EventRegistration{ID: "reg-1", EventID: e.ID, UserID: "user-a", Status: domain.StatusRegistered, QRCode: "QR-0123456789AB"}
	f.store.registrations[reg.ID] = reg
	return e, reg
}

func TestRegistrationService_CheckInWindow(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "exactly at start", at: testNow},
		{name: "exactly at end", at: testNow.Add(8 * time.Hour)},
		{name: "before start", at: testNow.Add(-time.Minute), wantErr: domain.ErrNotInProgress},
		{name: "after end", at: testNow.Add(8*time.Hour + time.Second), wantErr: domain.ErrNotInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(tt.at)
			_, reg := runningEvent(f, false)

			res, err := f.svc.CheckIn(ctx, organizer("org-1"), reg.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				assert.Nil(t, f.store.registrations[reg.ID].CheckedInAt)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, res.CheckedInAt)
			assert.Equal(t, tt.at, *res.CheckedInAt)
			stored := f.store.registrations[reg.ID]
			assert.Equal(t, domain.StatusAttended, stored.Status)
			assert.Equal(t, tt.at, *stored.CheckedInAt)
			assert.Equal(t, []string{domain.ActivityEventAttended}, f.store.activityTypes())
		})
	}
}

func TestRegistrationService_CheckInTwiceReturnsExistingTimestamp(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(testNow.Add(time.Hour))
	_, reg := runningEvent(f, false)

	first, err := f.svc.CheckIn(ctx, organizer("org-1"), reg.ID)
	require.NoError(t, err)

	f.svc.now = fixedClock(testNow.Add(2 * time.Hour))
	second, err := f.svc.CheckIn(ctx, organizer("org-1"), reg.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCheckedIn)
	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NotNil(t, second)
	assert.Equal(t, *first.CheckedInAt, *second.CheckedInAt)
	assert.Equal(t, testNow.Add(time.Hour), *f.store.registrations[reg.ID].CheckedInAt)
}

func TestRegistrationService_CheckInAuthorization(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   domain.Principal
		wantErr error
	}{
		{name: "owner organizer", actor: organizer("org-1")},
		{name: "admin", actor: admin("root")},
		{name: "other organizer", actor: organizer("org-2"), wantErr: domain.ErrForbidden},
		{name: "registrant", actor: attendee("user-a"), wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(testNow)
			_, reg := runningEvent(f, false)
			_, err := f.svc.CheckIn(ctx, tt.actor, reg.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistrationService_CheckInCancelledRegistration(t *testing.T) {
	f := newRegistrationFixture(testNow)
	_, reg := runningEvent(f, false)
	reg.Status = domain.StatusCancelled

	_, err := f.svc.CheckIn(context.Background(), organizer("org-1"), reg.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistrationService_CheckOut(t *testing.T) {
	ctx := context.Background()

	t.Run("without check-in", func(t *testing.T) {
		f := newRegistrationFixture(testNow)
		_, reg := runningEvent(f, true)
		_, err := f.svc.CheckOut(ctx, organizer("org-1"), reg.ID)
		assert.ErrorIs(t, err, domain.ErrNotCheckedIn)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, f.store.certificates)
	})

	t.Run("certificate event creates one pending certificate", func(t *testing.T) {
		f := newRegistrationFixture(testNow.Add(time.Hour))
		f.store.addUser(&domain.User{ID: "user-a", Email: "a@example.com", Name: "Ada"})
		_, reg := runningEvent(f, true)

		_, err := f.svc.CheckIn(ctx, organizer("org-1"), reg.ID)
		require.NoError(t, err)
		f.svc.now = fixedClock(testNow.Add(5 * time.Hour))
		out, err := f.svc.CheckOut(ctx, organizer("org-1"), reg.ID)
		require.NoError(t, err)
		assert.True(t, out.CertificateWillBeGenerated)
		assert.Equal(t, testNow.Add(5*time.Hour), *out.CheckedOutAt)

		require.Len(t, f.store.certificates, 1)
		cert := f.store.certificates[reg.ID]
		assert.Equal(t, domain.CertificatePending, cert.Status)
		assert.Equal(t, "user-a", cert.UserID)
		assert.Regexp(t, `^VER-[A-Z0-9]{9}$`, cert.VerificationCode)
		assert.Regexp(t, `^CERT-`, cert.CertificateNumber)
		assert.Equal(t, []string{"user-a"}, f.notifier.recipients())
		assert.Equal(t, domain.NotificationCertificate, f.notifier.sent[0].Type)
		assert.Equal(t, []string{domain.EmailCertificatePending}, f.mails.templates())

		f.svc.now = fixedClock(testNow.Add(6 * time.Hour))
		again, err := f.svc.CheckOut(ctx, organizer("org-1"), reg.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyCheckedOut)
		require.NotNil(t, again)
		assert.Equal(t, testNow.Add(5*time.Hour), *again.CheckedOutAt)
		assert.Len(t, f.store.certificates, 1)
		assert.Len(t, f.notifier.sent, 1)
	})

	t.Run("event without certificate creates none", func(t *testing.T) {
		f := newRegistrationFixture(testNow.Add(time.Hour))
		_, reg := runningEvent(f, false)
		_, err := f.svc.CheckIn(ctx, organizer("org-1"), reg.ID)
		require.NoError(t, err)
		out, err := f.svc.CheckOut(ctx, organizer("org-1"), reg.ID)
		require.NoError(t, err)
		assert.False(t, out.CertificateWillBeGenerated)
		assert.Empty(t, f.store.certificates)
		assert.Empty(t, f.notifier.sent)
	})

	t.Run("forbidden for attendee", func(t *testing.T) {
		f := newRegistrationFixture(testNow)
		_, reg := runningEvent(f, true)
		_, err := f.svc.CheckOut(ctx, attendee("user-a"), reg.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestRegistrationService_BulkCheckIn(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(testNow.Add(time.Hour))
	e, reg := runningEvent(f, false)
	f.store.registrations["reg-2"] = &domain.EventRegistration{ID: "reg-2", EventID: e.ID, UserID: "user-b", Status: domain.StatusRegistered, QRCode: "QR-BBBBBBBBBBBB"}

	res, err := f.svc.BulkCheckIn(ctx, organizer("org-1"), []string{reg.QRCode, "QR-BBBBBBBBBBBB", reg.QRCode, "QR-FFFFFFFFFFFF", "not-a-code"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 3, res.Failed)
	require.Len(t, res.Results, 5)
	assert.True(t, res.Results[0].Success)
	assert.True(t, res.Results[1].Success)
	assert.False(t, res.Results[2].Success)
	assert.NotNil(t, res.Results[2].CheckedInAt)
	assert.Equal(t, domain.ErrAlreadyCheckedIn.Error(), res.Results[2].Error)
	assert.Equal(t, domain.ErrNotFound.Error(), res.Results[3].Error)
	assert.NotEmpty(t, res.Results[4].Error)

	_, err = f.svc.BulkCheckIn(ctx, organizer("org-1"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.BulkCheckIn(ctx, organizer("org-1"), make([]string, MaxBulkCheckIn+1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistrationService_BulkCheckInForeignEvent(t *testing.T) {
	f := newRegistrationFixture(testNow)
	_, reg := runningEvent(f, false)

	res, err := f.svc.BulkCheckIn(context.Background(), organizer("org-2"), []string{reg.QRCode})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, domain.ErrForbidden.Error(), res.Results[0].Error)
	assert.Nil(t, f.store.registrations[reg.ID].CheckedInAt)
}
