package arena

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/tagsim/internal/core"
	"github.com/vovakirdan/tagsim/internal/field"
)

type engineCase struct {
	name  string
	build func(f *field.Field) (Arena, func())
}

func engines() []engineCase {
	return []engineCase{
		{"locked", func(f *field.Field) (Arena, func()) {
			return NewLocked(f, nil), func() {}
		}},
		{"coordinator", func(f *field.Field) (Arena, func()) {
			c := NewCoordinator(f, nil)
			c.Start()
			return c, c.Stop
		}},
	}
}

// peekEventually retries until the arena is idle.
func peekEventually(t *testing.T, a Arena, fn func(*field.Field)) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !a.Peek(fn) {
		if time.Now().After(deadline) {
			t.Fatal("Peek() never succeeded on an idle arena")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTurnsAreExclusive(t *testing.T) {
	for _, ec := range engines() {
		t.Run(ec.name, func(t *testing.T) {
			a, stop := ec.build(field.New(3, 3))
			defer stop()

			var inFlight, maxInFlight, total atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 50; j++ {
						err := a.Turn(context.Background(), func(*field.Field) {
							n := inFlight.Add(1)
							if n > maxInFlight.Load() {
								maxInFlight.Store(n)
							}
							total.Add(1)
							inFlight.Add(-1)
						})
						if err != nil {
							t.Errorf("Turn() = %v", err)
							return
						}
					}
				}()
			}
			wg.Wait()

			if maxInFlight.Load() != 1 {
				t.Errorf("max concurrent turns = %d, expected 1", maxInFlight.Load())
			}
			if total.Load() != 400 {
				t.Errorf("ran %d turns, expected 400", total.Load())
			}
		})
	}
}

func TestPeekFailsDuringTurn(t *testing.T) {
	for _, ec := range engines() {
		t.Run(ec.name, func(t *testing.T) {
			a, stop := ec.build(field.New(3, 3))
			defer stop()

			entered := make(chan struct{})
			release := make(chan struct{})
			turnDone := make(chan error, 1)
			go func() {
				turnDone <- a.Turn(context.Background(), func(*field.Field) {
					close(entered)
					<-release
				})
			}()
			<-entered

			if a.Peek(func(*field.Field) {}) {
				t.Error("Peek() succeeded while a turn held the field")
			}

			close(release)
			if err := <-turnDone; err != nil {
				t.Fatalf("Turn() = %v", err)
			}

			var w int
			peekEventually(t, a, func(f *field.Field) { w = f.W() })
			if w != 3 {
				t.Errorf("peeked width = %d, expected 3", w)
			}
		})
	}
}

func TestInvariantViolationPoisons(t *testing.T) {
	for _, ec := range engines() {
		t.Run(ec.name, func(t *testing.T) {
			f := field.New(3, 3)
			f.Place(1, core.C(0, 0))
			f.Place(2, core.C(1, 0))
			a, stop := ec.build(f)
			defer stop()

			err := a.Turn(context.Background(), func(f *field.Field) {
				f.Move(1, core.C(1, 0)) // occupied
			})
			if !errors.Is(err, field.ErrInvariant) {
				t.Fatalf("Turn() = %v, expected invariant error", err)
			}
			var ie *field.InvariantError
			if !errors.As(err, &ie) {
				t.Errorf("expected *field.InvariantError, got %T", err)
			}

			ran := false
			err = a.Turn(context.Background(), func(*field.Field) { ran = true })
			if !errors.Is(err, ErrPoisoned) {
				t.Errorf("Turn() after violation = %v, expected ErrPoisoned", err)
			}
			if ran {
				t.Error("poisoned arena still ran a turn")
			}

			if a.Peek(func(*field.Field) {}) {
				t.Error("Peek() on a poisoned arena should fail")
			}
		})
	}
}

func TestNonErrorPanicBecomesError(t *testing.T) {
	for _, ec := range engines() {
		t.Run(ec.name, func(t *testing.T) {
			a, stop := ec.build(field.New(3, 3))
			defer stop()

			err := a.Turn(context.Background(), func(*field.Field) { panic("boom") })
			if err == nil {
				t.Fatal("expected an error from a panicking turn")
			}
		})
	}
}

func TestTurnHonoursCancelledContext(t *testing.T) {
	for _, ec := range engines() {
		t.Run(ec.name, func(t *testing.T) {
			a, stop := ec.build(field.New(3, 3))
			defer stop()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			ran := false
			err := a.Turn(ctx, func(*field.Field) { ran = true })
			if !errors.Is(err, context.Canceled) {
				// The coordinator may race the accept against ctx.Done.
				if err != nil || !ran {
					t.Errorf("Turn() = %v, expected context.Canceled", err)
				}
			}
		})
	}
}

func TestStoppedCoordinatorRejectsTurns(t *testing.T) {
	c := NewCoordinator(field.New(3, 3), nil)
	c.Start()
	c.Stop()
	c.Stop() // idempotent

	err := c.Turn(context.Background(), func(*field.Field) {})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Turn() = %v, expected ErrClosed", err)
	}
	if c.Peek(func(*field.Field) {}) {
		t.Error("Peek() on a stopped coordinator should fail")
	}
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in       string
		expected Engine
		wantErr  bool
	}{
		{"locked", EngineLocked, false},
		{" Coordinator ", EngineCoordinator, false},
		{"actor", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		got, err := ParseEngine(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseEngine(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.expected {
			t.Errorf("ParseEngine(%q) = %q, expected %q", tc.in, got, tc.expected)
		}
	}
}
