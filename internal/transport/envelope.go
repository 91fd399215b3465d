package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/meshit/meshit/internal/errcode"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    errcode.Code `json:"code"`
	Message string       `json:"message"`
}

// ErrorResponse is the JSON shape of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// writeJSON writes payload as the bare success body.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeCode writes an error envelope with an explicit code.
func writeCode(w http.ResponseWriter, code errcode.Code, message string) {
	writeJSON(w, code.HTTPStatus(), ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// writeError classifies err and writes the envelope. Internal errors are logged.
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	code := errcode.Of(err)
	if code == errcode.Internal {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeCode(w, code, err.Error())
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
