package fundbook

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an unknown category, trade, event or tracked asset id.
// Callers match it with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError is a domain validation failure carrying a human-readable
// reason. The mutating operation that raised it is aborted and no partial
// state is committed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalidf builds a ValidationError from a format string. Adapters use it
// to surface their own input failures through the same path as the engine's
// validation.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func invalidf(format string, args ...any) error { return Invalidf(format, args...) }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
