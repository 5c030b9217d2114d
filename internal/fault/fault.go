package fault

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four failure classes the lifecycle operations can
// raise. Callers classify with errors.Is and read the wrapped message.
var (
	// ErrValidation marks bad or missing input; nothing was mutated and the
	// caller may resubmit corrected input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an unknown entity id; nothing was mutated.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation that is not legal from the entity's
	// current state (e.g. closing an already-closed ticket). Never silently
	// coerced to a no-op.
	ErrInvalidState = errors.New("invalid state")

	// ErrConfiguration marks a misconfigured entity (e.g. a non-positive
	// utilization limit). It degrades evaluation for that entity only.
	ErrConfiguration = errors.New("configuration error")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrValidation, args)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrNotFound, args)...)
}

// InvalidStatef wraps ErrInvalidState with a formatted message.
func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrInvalidState, args)...)
}

// Configurationf wraps ErrConfiguration with a formatted message.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrConfiguration, args)...)
}

func prepend(err error, args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, err)
	return append(out, args...)
}
