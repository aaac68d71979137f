package arena

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tagsim/internal/field"
)

type turnRequest struct {
	fn     func(f *field.Field)
	result chan error
}

type peekRequest struct {
	fn func(f *field.Field)
	ok chan bool
}

// Coordinator is an Arena where a single goroutine owns the field. Turns are
// sent to it as messages and run one at a time in arrival order.
type Coordinator struct {
	f      *field.Field
	logger *log.Logger

	// Both channels are unbuffered: a send succeeds only when the owner is
	// waiting for work.
	requests chan turnRequest
	peeks    chan peekRequest

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// Only touched by the owner goroutine.
	poison error
	turns  int
}

// NewCoordinator creates a coordinator for f. Call Start before use.
func NewCoordinator(f *field.Field, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{
		f:        f,
		logger:   logger,
		requests: make(chan turnRequest),
		peeks:    make(chan peekRequest),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins the coordinator's background processing.
func (c *Coordinator) Start() {
	go c.processMessages()
}

// Stop shuts the coordinator down and waits for the owner goroutine to exit.
// Pending and future turns fail with ErrClosed.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
	<-c.stopped
}

// Turn implements Arena.
func (c *Coordinator) Turn(ctx context.Context, fn func(f *field.Field)) error {
	req := turnRequest{fn: fn, result: make(chan error, 1)}
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
	// Accepted requests always complete.
	return <-req.result
}

// Peek implements Arena. It only succeeds while the owner is idle.
func (c *Coordinator) Peek(fn func(f *field.Field)) bool {
	req := peekRequest{fn: fn, ok: make(chan bool, 1)}
	select {
	case c.peeks <- req:
		return <-req.ok
	default:
		return false
	}
}

func (c *Coordinator) processMessages() {
	defer close(c.stopped)
	for {
		select {
		case req := <-c.requests:
			req.result <- c.handleTurn(req)
		case req := <-c.peeks:
			if c.poison != nil {
				req.ok <- false
				continue
			}
			req.fn(c.f)
			req.ok <- true
		case <-c.done:
			c.logger.Debug("coordinator stopped", "turns", c.turns)
			return
		}
	}
}

func (c *Coordinator) handleTurn(req turnRequest) error {
	if c.poison != nil {
		return poisoned(c.poison)
	}
	if err := guard(c.f, req.fn); err != nil {
		c.poison = err
		c.logger.Error("turn broke the field", "error", err)
		return err
	}
	c.turns++
	return nil
}
