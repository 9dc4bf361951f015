package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service either is one of these or
// wraps one, so transports can map them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// kindError is a caller-facing message classified under one of the kinds above.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Registration workflow errors.
var (
	ErrAlreadyStarted        = newKindError(ErrInvalidInput, "cannot register after the event has started")
	ErrEventFull             = newKindError(ErrInvalidInput, "event is full")
	ErrInvalidSession        = newKindError(ErrInvalidInput, "one or more sessions are invalid or not open for registration")
	ErrSessionFull           = newKindError(ErrInvalidInput, "session is full")
	ErrAlreadyRegistered     = newKindError(ErrConflict, "already registered for this event")
	ErrRegistrationCancelled = newKindError(ErrAlreadyRegistered, "your registration for this event was cancelled; contact the organizer to register again")
	ErrTooLateToCancel       = newKindError(ErrInvalidInput, "registrations cannot be cancelled less than 24 hours before the event starts")
)

// Attendance errors.
var (
	ErrNotInProgress     = newKindError(ErrInvalidInput, "check-in is only possible while the event is in progress")
	ErrNotCheckedIn      = newKindError(ErrInvalidInput, "attendee has not checked in")
	ErrAlreadyCheckedIn  = newKindError(ErrConflict, "attendee already checked in")
	ErrAlreadyCheckedOut = newKindError(ErrConflict, "attendee already checked out")
)

// Event management errors.
var (
	ErrEventHasRegistrations = newKindError(ErrConflict, "event has registrations and cannot be deleted")
	ErrCapacityBelowCount    = newKindError(ErrInvalidInput, "max capacity cannot be lower than the current number of registrations")
	ErrCategoryNotFound      = newKindError(ErrInvalidInput, "category does not exist")
)

// SessionFullError reports which session ran out of seats.
type SessionFullError struct {
	SessionID string
	Title     string
}

func (e *SessionFullError) Error() string {
	return fmt.Sprintf("session %q is full", e.Title)
}

// Unwrap lets errors.Is match ErrSessionFull and ErrInvalidInput.
func (e *SessionFullError) Unwrap() error { return ErrSessionFull }

// InvalidInputError returns a formatted validation error of kind ErrInvalidInput.
func InvalidInputError(format string, args ...any) error {
	return newKindError(ErrInvalidInput, fmt.Sprintf(format, args...))
}
