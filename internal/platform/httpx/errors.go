package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors the domain layer wraps to drive status mapping.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation wraps msg as a validation error.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Validationf wraps a formatted message as a validation error.
func Validationf(format string, args ...any) error {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound wraps msg as a not-found error.
func NotFound(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, msg)
}

// Conflict wraps msg as a conflict error. The API contract keeps conflicts
// on status 400 with an actionable message.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// Unauthorized wraps msg as an authentication error.
func Unauthorized(msg string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
}

// RespondError maps a domain error to a `{message}` response.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Message(w, http.StatusNotFound, userMessage(err))
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		Message(w, http.StatusBadRequest, userMessage(err))
	case errors.Is(err, ErrUnauthorized):
		Message(w, http.StatusUnauthorized, userMessage(err))
	default:
		Message(w, http.StatusInternalServerError, "Server error: "+err.Error())
	}
}

// userMessage strips the sentinel prefix so callers see the descriptive part.
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrNotFound, ErrValidation, ErrConflict, ErrUnauthorized} {
		prefix := sentinel.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
