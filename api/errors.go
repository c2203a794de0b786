package api

import (
	"log/slog"
	"net/http"
)

// ErrorKey selects the short message placed in ErrorResponse.Error.
type ErrorKey string

const (
	ErrInvalidJSON      ErrorKey = "invalid_json"
	ErrValidation       ErrorKey = "validation_failed"
	ErrNotFound         ErrorKey = "not_found"
	ErrInternal         ErrorKey = "internal_error"
	ErrCredentials      ErrorKey = "invalid_credentials"
	ErrAuthRequired     ErrorKey = "auth_required"
	ErrAccessDenied     ErrorKey = "access_denied"
	ErrConflict         ErrorKey = "conflict"
	ErrMethodNotAllowed ErrorKey = "not_allowed"
	ErrUnavailable      ErrorKey = "unavailable"
)

var errorMessages = map[ErrorKey]string{
	ErrInvalidJSON:      "invalid JSON format",
	ErrValidation:       "validation failed",
	ErrNotFound:         "resource not found",
	ErrInternal:         "internal server error",
	ErrCredentials:      "invalid credentials",
	ErrAuthRequired:     "authentication required",
	ErrAccessDenied:     "access denied",
	ErrConflict:         "resource conflict",
	ErrMethodNotAllowed: "method not allowed",
	ErrUnavailable:      "service unavailable",
}

// ErrorResponse is the JSON body of every API error. Error is stable and
// machine readable, Details is meant for people.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewError pairs status with the message registered for key. Unknown keys
// produce "unknown error".
func NewError(status int, key ErrorKey, details string) (int, ErrorResponse) {
	msg, ok := errorMessages[key]
	if !ok {
		msg = "unknown error"
	}
	return status, ErrorResponse{
		Error:   msg,
		Details: details,
	}
}

func BadRequestInvalidJSON() (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrInvalidJSON, "expected a single JSON object")
}

// BadRequestValidation carries the validation message from the attendance
// backend, e.g. "please fill all required fields".
func BadRequestValidation(details string) (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrValidation, details)
}

// NotFound reports an API path that no route serves.
func NotFound(path string) (int, ErrorResponse) {
	return NewError(http.StatusNotFound, ErrNotFound, "no endpoint at "+path)
}

func InternalServerError() (int, ErrorResponse) {
	return NewError(http.StatusInternalServerError, ErrInternal, "an unexpected error occurred")
}

func MethodNotAllowed() (int, ErrorResponse) {
	return NewError(http.StatusMethodNotAllowed, ErrMethodNotAllowed, "")
}

func UnauthorizedInvalidCredentials() (int, ErrorResponse) {
	return NewError(http.StatusUnauthorized, ErrCredentials, "email or password is incorrect")
}

// UnauthorizedAuthRequired is returned when there is no live session or the
// bearer token does not belong to it.
func UnauthorizedAuthRequired() (int, ErrorResponse) {
	return NewError(http.StatusUnauthorized, ErrAuthRequired, "a bearer token for the active session is required")
}

func ForbiddenAccessDenied() (int, ErrorResponse) {
	return NewError(http.StatusForbidden, ErrAccessDenied, "your role cannot use this endpoint")
}

// ResourceConflict reports a duplicate registration.
func ResourceConflict(details string) (int, ErrorResponse) {
	return NewError(http.StatusConflict, ErrConflict, details)
}

// ServiceUnavailableLoading is sent while the stored session is being read
// back. Retry-After tells the client when to try again.
func ServiceUnavailableLoading() (int, ErrorResponse) {
	return NewError(http.StatusServiceUnavailable, ErrUnavailable, "session is still loading")
}

// ReturnError writes the response produced by errorFunc.
//
//	api.ReturnError(w, h.log, api.InternalServerError)
func ReturnError(w http.ResponseWriter, logger *slog.Logger, errorFunc func() (int, ErrorResponse)) {
	status, errResp := errorFunc()
	RespondJSONAndLog(w, logger, status, errResp)
}
