package posting

import (
	"errors"
	"fmt"
)

var (
	// ErrPostingNotFound indicates the posting doesn't exist.
	ErrPostingNotFound = errors.New("posting not found")
	// ErrForbidden indicates the actor does not own the posting.
	ErrForbidden = errors.New("only the posting creator can do this")
	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid posting status transition")
	// ErrInvalidInput indicates invalid input for posting operations.
	ErrInvalidInput = errors.New("invalid posting input")
	// ErrConflict indicates the posting changed underneath the request.
	ErrConflict = errors.New("posting modified concurrently")
)

// TransitionError carries the current status of a posting that refused a transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("posting is %s and cannot become %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
