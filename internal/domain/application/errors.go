package application

import (
	"errors"
	"fmt"
)

var (
	// ErrApplicationNotFound indicates the application doesn't exist.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrPostingNotFound indicates the posting applied to doesn't exist.
	ErrPostingNotFound = errors.New("posting not found")
	// ErrForbidden indicates the actor may not act on the application.
	ErrForbidden = errors.New("not allowed to act on this application")
	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid application status transition")
	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid application input")
	// ErrPostingFull indicates the posting has no free seat.
	ErrPostingFull = errors.New("posting is full")
	// ErrPostingNotOpen indicates the posting no longer takes applications.
	ErrPostingNotOpen = errors.New("posting is not accepting applications")
	// ErrDuplicate indicates the applicant already has an active application.
	ErrDuplicate = errors.New("an active application already exists for this posting")
	// ErrConflict indicates the application changed underneath the request.
	ErrConflict = errors.New("application modified concurrently")
)

// TransitionError carries the current status of an application that refused a transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("application is %s and cannot become %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
