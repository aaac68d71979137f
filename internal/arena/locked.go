package arena

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tagsim/internal/field"
)

// Locked is an Arena backed by a mutex around the field.
type Locked struct {
	mu     sync.Mutex
	f      *field.Field
	poison error
	logger *log.Logger
}

// NewLocked wraps f. A nil logger discards output.
func NewLocked(f *field.Field, logger *log.Logger) *Locked {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Locked{f: f, logger: logger}
}

// Turn implements Arena.
func (l *Locked) Turn(ctx context.Context, fn func(f *field.Field)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.poison != nil {
		return poisoned(l.poison)
	}
	if err := guard(l.f, fn); err != nil {
		l.poison = err
		l.logger.Error("turn broke the field", "error", err)
		return err
	}
	return nil
}

// Peek implements Arena. It fails while a turn is in progress or once the
// arena is poisoned.
func (l *Locked) Peek(fn func(f *field.Field)) bool {
	if !l.mu.TryLock() {
		return false
	}
	defer l.mu.Unlock()

	if l.poison != nil {
		return false
	}
	fn(l.f)
	return true
}
