package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks caller-correctable input: empty documents, non-positive
	// sizes, dimension mismatches.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveDocument is returned by queries when no document session is active.
	ErrNoActiveDocument = errors.New("no active document")
)

// ProviderError reports a failed call to an external capability such as the
// embedding provider or the answer generator.
type ProviderError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s provider error: %v", e.Op, kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err carries a transient ProviderError.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient
}

// InvalidInputf builds an error wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
