package availability

import "errors"

var (
	// ErrInvalidWindow indicates a window that cannot be placed on the weekly clock.
	ErrInvalidWindow = errors.New("invalid availability window")
	// ErrMalformedRange indicates canonical range text that failed to parse or validate.
	ErrMalformedRange = errors.New("malformed availability range")
	// ErrPostingNotFound indicates the posting or its team could not be resolved.
	ErrPostingNotFound = errors.New("posting not found")
	// ErrInvalidInput indicates a request missing required fields.
	ErrInvalidInput = errors.New("invalid availability input")
	// ErrForbidden indicates the actor is not on the posting's team.
	ErrForbidden = errors.New("not a member of this posting")
)
