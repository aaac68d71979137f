package field

import (
	"errors"
	"fmt"
)

// ErrInvariant is the sentinel wrapped by every InvariantError.
var ErrInvariant = errors.New("field: invariant violation")

// InvariantError describes a broken field invariant: an out-of-bounds index,
// a double occupancy or an agent that cannot be found. These are programmer
// errors; the field panics with an *InvariantError and the arena turns the
// panic into a fatal error.
type InvariantError struct {
	Op     string
	X, Y   int
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("field: invariant violation in %s at (%d,%d): %s", e.Op, e.X, e.Y, e.Detail)
}

// Unwrap lets errors.Is match ErrInvariant.
func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

func violation(op string, x, y int, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, X: x, Y: y, Detail: fmt.Sprintf(format, args...)}
}
