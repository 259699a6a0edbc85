package overlay

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrInvalidOverlay is wrapped by every payload validation failure.
	ErrInvalidOverlay = errors.New("invalid overlay")

	ErrEmptyName      = fmt.Errorf("%w: name cannot be empty", ErrInvalidOverlay)
	ErrEmptyType      = fmt.Errorf("%w: type cannot be empty", ErrInvalidOverlay)
	ErrMissingContent = fmt.Errorf("%w: content is required", ErrInvalidOverlay)
	ErrInvalidContent = fmt.Errorf("%w: content must be valid JSON", ErrInvalidOverlay)
	ErrMissingField   = fmt.Errorf("%w: missing field", ErrInvalidOverlay)
	ErrNotInteger     = fmt.Errorf("%w: value must be an integer", ErrInvalidOverlay)

	ErrOverlayNotFound = errors.New("overlay not found")

	// ErrInvalidID reports a malformed identifier. It wraps ErrOverlayNotFound
	// because a malformed id can never name a stored overlay.
	ErrInvalidID = fmt.Errorf("%w: malformed id", ErrOverlayNotFound)
)

// FieldError describes a validation failure on a single (possibly nested) field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotInteger):
		return fmt.Sprintf("%s must be an integer", e.Field)
	case errors.Is(e.Err, ErrMissingField):
		return fmt.Sprintf("missing field: %s", e.Field)
	default:
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
