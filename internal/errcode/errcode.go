// Package errcode classifies domain errors into the codes shared by the REST
// envelope and the MCP tool errors.
package errcode

import (
	"errors"
	"net/http"

	"github.com/meshit/meshit/internal/auth"
	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/domain/meeting"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/domain/skilltree"
	"github.com/meshit/meshit/internal/repository"
)

// Code is a stable, client-facing error code.
type Code string

const (
	Unauthorized Code = "UNAUTHORIZED"
	Forbidden    Code = "FORBIDDEN"
	NotFound     Code = "NOT_FOUND"
	Validation   Code = "VALIDATION"
	Conflict     Code = "CONFLICT"
	Internal     Code = "INTERNAL"
)

var classes = []struct {
	code Code
	errs []error
}{
	{Unauthorized, []error{auth.ErrUnauthorized}},
	{Forbidden, []error{
		application.ErrForbidden,
		availability.ErrForbidden,
		matching.ErrForbidden,
		meeting.ErrForbidden,
		posting.ErrForbidden,
	}},
	{NotFound, []error{
		application.ErrApplicationNotFound,
		application.ErrPostingNotFound,
		availability.ErrPostingNotFound,
		matching.ErrMatchNotFound,
		matching.ErrPostingNotFound,
		meeting.ErrProposalNotFound,
		meeting.ErrPostingNotFound,
		notification.ErrNotificationNotFound,
		posting.ErrPostingNotFound,
		profile.ErrProfileNotFound,
		skilltree.ErrNodeNotFound,
		repository.ErrNotFound,
	}},
	{Validation, []error{
		application.ErrInvalidTransition,
		application.ErrInvalidInput,
		application.ErrPostingFull,
		application.ErrPostingNotOpen,
		availability.ErrInvalidWindow,
		availability.ErrMalformedRange,
		availability.ErrInvalidInput,
		matching.ErrInvalidTransition,
		matching.ErrInvalidInput,
		meeting.ErrInvalidTransition,
		meeting.ErrInvalidInput,
		meeting.ErrTooManyProposals,
		notification.ErrInvalidInput,
		posting.ErrInvalidTransition,
		posting.ErrInvalidInput,
		profile.ErrInvalidInput,
	}},
	{Conflict, []error{
		application.ErrDuplicate,
		application.ErrConflict,
		matching.ErrConflict,
		meeting.ErrConflict,
		posting.ErrConflict,
		repository.ErrConflict,
		repository.ErrDuplicate,
	}},
}

// Of returns the code for err. Unknown errors are Internal.
func Of(err error) Code {
	if err == nil {
		return ""
	}
	for _, class := range classes {
		for _, target := range class.errs {
			if errors.Is(err, target) {
				return class.code
			}
		}
	}
	return Internal
}

// HTTPStatus maps a code to its response status.
func (c Code) HTTPStatus() int {
	switch c {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
