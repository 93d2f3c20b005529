package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrNotAuthenticated   = errors.New("not logged in")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrStartInFlight      = errors.New("start already in progress")
	ErrAlreadyStarted     = errors.New("protocol already started")
	ErrStartFailed        = errors.New("could not start protocol, please try again")
	ErrConcurrentToggle   = errors.New("toggle already in progress for this habit")
	ErrToggleFailed       = errors.New("could not update habit progress, please try again")
	ErrHabitRequestFailed = errors.New("habit request failed, please try again")
	ErrRefreshDeferred    = errors.New("refresh deferred while a change is in progress")
)

// TransitionError is returned by the local start guard. Reason is derived from
// the assignment's actual state.
type TransitionError struct {
	AssignmentID string
	Status       string
	Reason       string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidTransition, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// AlreadyStartedError carries the start date reported by the server verbatim.
type AlreadyStartedError struct {
	AssignmentID string
	StartDate    string
}

func (e *AlreadyStartedError) Error() string {
	if e.StartDate == "" {
		return ErrAlreadyStarted.Error()
	}
	return fmt.Sprintf("%s on %s", ErrAlreadyStarted, e.StartDate)
}

func (e *AlreadyStartedError) Unwrap() error { return ErrAlreadyStarted }

// IsRetryable reports whether repeating the same operation may succeed.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyStarted), errors.Is(err, ErrInvalidInput):
		return false
	default:
		return true
	}
}
