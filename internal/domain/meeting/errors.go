package meeting

import (
	"errors"
	"fmt"
)

var (
	// ErrProposalNotFound indicates the proposal doesn't exist.
	ErrProposalNotFound = errors.New("meeting proposal not found")
	// ErrPostingNotFound indicates the posting or its team could not be resolved.
	ErrPostingNotFound = errors.New("posting not found")
	// ErrForbidden indicates the actor may not act on the proposal.
	ErrForbidden = errors.New("not allowed to act on this meeting")
	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid meeting status transition")
	// ErrInvalidInput indicates a malformed proposal.
	ErrInvalidInput = errors.New("invalid meeting input")
	// ErrTooManyProposals indicates the posting already has the maximum open proposals.
	ErrTooManyProposals = errors.New("too many open meeting proposals")
	// ErrConflict indicates the proposal changed underneath the request.
	ErrConflict = errors.New("meeting proposal modified concurrently")
)

// TransitionError carries the current status of a proposal that refused a transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("meeting is %s and cannot become %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
