package matching

import (
	"errors"
	"fmt"
)

var (
	// ErrMatchNotFound indicates the match doesn't exist.
	ErrMatchNotFound = errors.New("match not found")
	// ErrPostingNotFound indicates the posting being matched doesn't exist.
	ErrPostingNotFound = errors.New("posting not found")
	// ErrForbidden indicates the actor may not act on the match.
	ErrForbidden = errors.New("not allowed to act on this match")
	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid match status transition")
	// ErrInvalidWeights indicates score weights that do not sum to one.
	ErrInvalidWeights = errors.New("score weights must sum to 1")
	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid match input")
	// ErrConflict indicates the match changed underneath the request.
	ErrConflict = errors.New("match modified concurrently")
)

// TransitionError carries the current status of a match that refused a transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("match is %s and cannot become %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
