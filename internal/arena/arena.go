// Package arena guards the shared field. Agents take turns through an Arena,
// which grants each turn exclusive access; observers may Peek at the field
// only while nobody is holding it.
package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/tagsim/internal/field"
)

var (
	// ErrPoisoned is returned by every turn after one has broken a field
	// invariant. The field can no longer be trusted.
	ErrPoisoned = errors.New("arena: poisoned by an earlier invariant violation")
	// ErrClosed is returned when a turn is requested from a stopped arena.
	ErrClosed = errors.New("arena: closed")
)

// Arena is the exclusive-access contract shared by all engines.
type Arena interface {
	// Turn runs fn with sole access to the field and returns once fn is done.
	// A panic inside fn is turned into an error and poisons the arena.
	Turn(ctx context.Context, fn func(f *field.Field)) error
	// Peek runs fn only if the field is free right now. It never waits and
	// reports whether fn ran.
	Peek(fn func(f *field.Field)) bool
}

// Engine names an Arena implementation.
type Engine string

const (
	EngineLocked      Engine = "locked"
	EngineCoordinator Engine = "coordinator"
)

// Engines lists the supported engines.
func Engines() []Engine {
	return []Engine{EngineLocked, EngineCoordinator}
}

// ParseEngine validates an engine name.
func ParseEngine(name string) (Engine, error) {
	e := Engine(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Engines() {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("arena: unknown engine %q (expected locked or coordinator)", name)
}

// guard runs fn and converts a panic into an error.
func guard(f *field.Field, fn func(f *field.Field)) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			err = e
			return
		}
		err = fmt.Errorf("arena: turn panicked: %v", r)
	}()
	fn(f)
	return nil
}

func poisoned(cause error) error {
	return fmt.Errorf("%w: %v", ErrPoisoned, cause)
}
