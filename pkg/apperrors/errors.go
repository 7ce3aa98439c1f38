package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a lost mutual-match race. Callers resolve it by
	// returning the match that won, not by failing the request.
	ErrConflict       = errors.New("conflict")
	ErrBlocked        = errors.New("blocked by contact policy")
	ErrProfileExists  = errors.New("user already has an active profile")
	ErrListingExpired = errors.New("listing has expired")
)

// ValidationError is a policy-violating or malformed input. Always
// recoverable by the caller; surfaced as a 4xx by the HTTP layer.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf creates a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
