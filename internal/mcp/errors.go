package mcp

import (
	"fmt"

	"github.com/meshit/meshit/internal/errcode"
)

// APIError is the JSON body of a failed tool call.
type APIError struct {
	Code         errcode.Code `json:"code"`
	Message      string       `json:"message"`
	RecoveryHint string       `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var recoveryHints = map[errcode.Code]string{
	errcode.Unauthorized: "Send a valid bearer token",
	errcode.Forbidden:    "Only the posting creator or its team may do this",
	errcode.NotFound:     "Check the id spelling",
	errcode.Validation:   "Check the arguments and the current status",
	errcode.Conflict:     "Reload the record; it changed or already exists",
}

// MapError classifies err into an APIError.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	code := errcode.Of(err)
	return &APIError{Code: code, Message: err.Error(), RecoveryHint: recoveryHints[code]}
}
