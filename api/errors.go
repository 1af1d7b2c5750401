package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Ryan-Har/commonground/pkg/models"
)

// ErrorKey references a standardized error text in the errorMessages map.
type ErrorKey string

// Several keys may share one HTTP status code.
// Example: both ErrInvalidJSON and ErrValidation map to HTTP 400.
const (
	ErrBadRequest       ErrorKey = "bad_request"
	ErrInvalidJSON      ErrorKey = "invalid_json"
	ErrValidation       ErrorKey = "validation_failed"
	ErrNotFound         ErrorKey = "not_found"
	ErrInternal         ErrorKey = "internal_error"
	ErrCredentials      ErrorKey = "invalid_credentials"
	ErrUnauthorized     ErrorKey = "unauthorized"
	ErrUnauthenticated  ErrorKey = "unauthenticated"
	ErrInvalidToken     ErrorKey = "invalid_token"
	ErrAccessDenied     ErrorKey = "access_denied"
	ErrAccountBanned    ErrorKey = "account_banned"
	ErrConflict         ErrorKey = "conflict"
	ErrMethodNotAllowed ErrorKey = "not_allowed"
	ErrTooLarge         ErrorKey = "payload_too_large"
	ErrRateLimited      ErrorKey = "rate_limited"
)

// errorMessages holds the short text placed in the "error" field.
var errorMessages = map[ErrorKey]string{
	ErrBadRequest:       "bad request",
	ErrInvalidJSON:      "invalid JSON format",
	ErrValidation:       "validation failed",
	ErrNotFound:         "resource not found",
	ErrInternal:         "internal server error",
	ErrCredentials:      "invalid credentials",
	ErrUnauthorized:     "unauthorized",
	ErrUnauthenticated:  "unauthenticated",
	ErrInvalidToken:     "invalid token",
	ErrAccessDenied:     "access denied",
	ErrAccountBanned:    "account banned",
	ErrConflict:         "resource conflict",
	ErrMethodNotAllowed: "method not allowed",
	ErrTooLarge:         "payload too large",
	ErrRateLimited:      "too many requests",
}

// statusKeys picks a key for errors built from a bare status code.
var statusKeys = map[int]ErrorKey{
	http.StatusBadRequest:            ErrBadRequest,
	http.StatusUnauthorized:          ErrUnauthorized,
	http.StatusForbidden:             ErrAccessDenied,
	http.StatusNotFound:              ErrNotFound,
	http.StatusMethodNotAllowed:      ErrMethodNotAllowed,
	http.StatusConflict:              ErrConflict,
	http.StatusRequestEntityTooLarge: ErrTooLarge,
	http.StatusTooManyRequests:       ErrRateLimited,
	http.StatusInternalServerError:   ErrInternal,
}

// ErrorResponse is the JSON body of every error.
//   - StatusCode: the HTTP status, repeated for clients that only see the body
//   - Error:      short machine-readable summary
//   - Message:    human-readable explanation
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Error is an error that already knows its HTTP representation. Handlers
// return it and WriteError serializes it.
type Error struct {
	Status  int
	Key     ErrorKey
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Key, e.Message, e.cause)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Key, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of e carrying cause for logging. The cause is
// never sent to the client.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// Response builds the JSON body for e.
func (e *Error) Response() ErrorResponse {
	msg, ok := errorMessages[e.Key]
	if !ok {
		msg = http.StatusText(e.Status)
		if msg == "" {
			msg = "unknown error"
		}
	}
	return ErrorResponse{
		StatusCode: e.Status,
		Error:      msg,
		Message:    e.Message,
	}
}

// NewError creates an Error for a given HTTP status, error key and message.
func NewError(status int, key ErrorKey, message string) *Error {
	return &Error{Status: status, Key: key, Message: message}
}

// FromStatus creates an Error whose key is derived from status.
func FromStatus(status int, message string) *Error {
	key, ok := statusKeys[status]
	if !ok {
		key = ErrorKey(fmt.Sprintf("status_%d", status))
	}
	return NewError(status, key, message)
}

// BadRequestInvalidJSON returns a 400 error for invalid JSON payloads.
func BadRequestInvalidJSON() *Error {
	return NewError(http.StatusBadRequest, ErrInvalidJSON, "expected valid JSON object")
}

// BadRequestValidation returns a 400 error for failed validation.
func BadRequestValidation(details string) *Error {
	return NewError(http.StatusBadRequest, ErrValidation, details)
}

// NotFound returns a 404 error, typically used when a requested resource cannot be found.
func NotFound(details string) *Error {
	return NewError(http.StatusNotFound, ErrNotFound, details)
}

// InternalServerError returns a 500 error with a generic message.
func InternalServerError() *Error {
	return NewError(http.StatusInternalServerError, ErrInternal, "an unexpected error occurred")
}

func MethodNotAllowed() *Error {
	return NewError(http.StatusMethodNotAllowed, ErrMethodNotAllowed, "")
}

// Unauthorized is the single response for every failed session resolution.
// It never says which check failed.
func Unauthorized() *Error {
	return NewError(http.StatusUnauthorized, ErrUnauthorized, "Unauthorized")
}

// Unauthenticated is returned when a handler requires a principal that the
// request context does not carry.
func Unauthenticated() *Error {
	return NewError(http.StatusUnauthorized, ErrUnauthenticated, "Unauthenticated")
}

// UnauthorizedInvalidCredentials returns a 401 error indicating incorrect login credentials.
func UnauthorizedInvalidCredentials() *Error {
	return NewError(http.StatusUnauthorized, ErrCredentials, "email or password is incorrect")
}

// UnauthorizedInvalidToken returns a 401 error indicating that the provided token is invalid or expired.
func UnauthorizedInvalidToken() *Error {
	return NewError(http.StatusUnauthorized, ErrInvalidToken, "token is expired or malformed")
}

// ForbiddenAccessDenied returns a 403 error indicating insufficient permissions for the requested operation.
func ForbiddenAccessDenied() *Error {
	return NewError(http.StatusForbidden, ErrAccessDenied, "insufficient permissions for this operation")
}

func ForbiddenAccountBanned() *Error {
	return NewError(http.StatusForbidden, ErrAccountBanned, "this account has been banned")
}

// ResourceConflict returns a 409 error, such as for duplicate resource creation.
func ResourceConflict(details string) *Error {
	return NewError(http.StatusConflict, ErrConflict, details)
}

func PayloadTooLarge(limit int64) *Error {
	return NewError(http.StatusRequestEntityTooLarge, ErrTooLarge, fmt.Sprintf("body exceeds %d bytes", limit))
}

func TooManyRequests() *Error {
	return NewError(http.StatusTooManyRequests, ErrRateLimited, "slow down and try again later")
}

// AsError converts any error into an *Error. Model errors map to their
// natural status; anything unrecognised becomes a 500.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var validationErr *models.ValidationError
	var notFoundErr *models.NotFoundError
	var conflictErr *models.ConflictError
	switch {
	case errors.As(err, &validationErr):
		return BadRequestValidation(validationErr.Error()).WithCause(err)
	case errors.As(err, &notFoundErr):
		return NotFound(notFoundErr.Error()).WithCause(err)
	case errors.As(err, &conflictErr):
		return ResourceConflict(conflictErr.Error()).WithCause(err)
	default:
		return InternalServerError().WithCause(err)
	}
}

// WriteError serializes err as the response. Server errors are logged with
// their cause, client errors at debug level.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	apiErr := AsError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", apiErr.Status, "err", err)
	} else {
		logger.Debug("request rejected", "status", apiErr.Status, "key", apiErr.Key, "err", err)
	}
	RespondJSONAndLog(w, logger, apiErr.Status, apiErr.Response())
}

// ReturnError accepts a function returning an *Error, calls it, and writes
// the result with the given writer and logger.
func ReturnError(w http.ResponseWriter, logger *slog.Logger, errorFunc func() *Error) {
	WriteError(w, logger, errorFunc())
}
