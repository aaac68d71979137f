package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/tagsim/internal/agent"
	"github.com/vovakirdan/tagsim/internal/arena"
	"github.com/vovakirdan/tagsim/internal/core"
	"github.com/vovakirdan/tagsim/internal/field"
)

func fastOptions(players, w, h int) Options {
	opts := DefaultOptions(players, w, h)
	opts.Wait = time.Millisecond
	opts.Turns = 20
	opts.Seed = 42
	return opts
}

func firstEmpty(f *field.Field) core.Coord {
	for y := 0; y < f.H(); y++ {
		for x := 0; x < f.W(); x++ {
			if c := core.C(x, y); f.At(c) == field.NoAgent {
				return c
			}
		}
	}
	panic("field is full")
}

type collector struct {
	mu      sync.Mutex
	reports []agent.TurnReport
}

func (c *collector) RecordTurn(rep agent.TurnReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, rep)
}

func TestPlacementIsDistinct(t *testing.T) {
	s, err := New(fastOptions(3, 3, 3), nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	seen := make(map[core.Coord]bool)
	for _, a := range s.Agents() {
		if seen[a.Position()] {
			t.Errorf("two agents placed on %v", a.Position())
		}
		seen[a.Position()] = true
	}
	if len(seen) != 3 {
		t.Errorf("placed %d agents, expected 3", len(seen))
	}

	ok := s.Arena().Peek(func(f *field.Field) {
		if err := f.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
		for _, a := range s.Agents() {
			if f.At(a.Position()) != a.ID() {
				t.Errorf("%s cached at %v but field holds %d", a.Name(), a.Position(), f.At(a.Position()))
			}
		}
	})
	if !ok {
		t.Error("Peek() on an idle locked arena failed")
	}
}

func TestPlacementIsSeeded(t *testing.T) {
	a, err := New(fastOptions(5, 4, 4), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(fastOptions(5, 4, 4), nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.Agents() {
		pa, pb := a.Agents()[i], b.Agents()[i]
		if pa.Position() != pb.Position() {
			t.Errorf("agent %d placed at %v and %v with the same seed", i, pa.Position(), pb.Position())
		}
		if pa.RiskTolerance() != pb.RiskTolerance() || pa.Cadence() != pb.Cadence() {
			t.Errorf("agent %d profile differs with the same seed", i)
		}
	}
	if a.ID() == b.ID() {
		t.Error("runs should get distinct IDs")
	}
}

func TestFillsWholeField(t *testing.T) {
	s, err := New(fastOptions(9, 3, 3), nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if len(s.Agents()) != 9 {
		t.Errorf("got %d agents, expected 9", len(s.Agents()))
	}
}

func TestStartingItIsMarked(t *testing.T) {
	opts := fastOptions(4, 5, 5)
	opts.StartingIt = 2
	s, err := New(opts, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, a := range s.Agents() {
		if a.IsIt() != (a.ID() == 2) {
			t.Errorf("%s IsIt() = %v", a.Name(), a.IsIt())
		}
	}
	s.Arena().Peek(func(f *field.Field) {
		if f.LastKnownItID() != 2 {
			t.Errorf("LastKnownItID() = %d, expected 2", f.LastKnownItID())
		}
		c, ok := f.LastKnownIt()
		if !ok || c != s.Agents()[2].Position() {
			t.Errorf("LastKnownIt() = %v, %v, expected %v", c, ok, s.Agents()[2].Position())
		}
	})
}

func TestProfilesAreInRange(t *testing.T) {
	opts := fastOptions(20, 10, 10)
	opts.Wait = 100 * time.Millisecond
	opts.RiskMin, opts.RiskMax = 30, 60
	s, err := New(opts, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range s.Profiles() {
		if p.RiskTolerance < 30 || p.RiskTolerance > 60 {
			t.Errorf("%s risk %f outside [30, 60]", p.Name, p.RiskTolerance)
		}
		if p.Cadence < 50*time.Millisecond || p.Cadence > 100*time.Millisecond {
			t.Errorf("%s cadence %s outside [50ms, 100ms]", p.Name, p.Cadence)
		}
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"too many players", func(o *Options) { o.Players = 10 }},
		{"narrow field", func(o *Options) { o.Width = 2 }},
		{"no players", func(o *Options) { o.Players = 0 }},
		{"starting it out of range", func(o *Options) { o.StartingIt = 3 }},
		{"negative wait", func(o *Options) { o.Wait = -time.Second }},
		{"empty risk range", func(o *Options) { o.RiskMin, o.RiskMax = 80, 20 }},
		{"unknown engine", func(o *Options) { o.Engine = "actor" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := fastOptions(3, 3, 3)
			tc.mutate(&opts)
			_, err := New(opts, nil)
			if !errors.Is(err, ErrBadOptions) {
				t.Errorf("New() = %v, expected ErrBadOptions", err)
			}
		})
	}
}

func TestBoundedRunKeepsInvariants(t *testing.T) {
	for _, engine := range arena.Engines() {
		t.Run(string(engine), func(t *testing.T) {
			opts := fastOptions(6, 4, 4)
			opts.Engine = engine
			rec := &collector{}
			s, err := New(opts, nil, rec)
			if err != nil {
				t.Fatalf("New() = %v", err)
			}

			if err := s.Run(context.Background()); err != nil {
				t.Fatalf("Run() = %v", err)
			}

			if len(rec.reports) != 6*20 {
				t.Errorf("recorded %d turns, expected %d", len(rec.reports), 6*20)
			}

			// Every agent has stopped, so the field can be read directly.
			if err := s.field.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
			for _, a := range s.Agents() {
				if got := s.field.Locate(a.ID()); got != a.Position() {
					t.Errorf("%s cached at %v, field says %v", a.Name(), a.Position(), got)
				}
			}

			its := 0
			for _, a := range s.Agents() {
				if a.IsIt() {
					its++
				}
			}
			if its > 1 {
				t.Errorf("%d agents believe they are it", its)
			}
			if s.Elapsed() <= 0 {
				t.Error("Elapsed() should be positive after a run")
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	for _, engine := range arena.Engines() {
		t.Run(string(engine), func(t *testing.T) {
			opts := fastOptions(3, 5, 5)
			opts.Turns = 0
			opts.Engine = engine
			s, err := New(opts, nil)
			if err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- s.Run(ctx) }()

			select {
			case err := <-done:
				if err != nil {
					t.Errorf("Run() after cancel = %v, expected nil", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Run() did not return after cancel")
			}
		})
	}
}

func TestCadenceWithoutJitter(t *testing.T) {
	opts := fastOptions(3, 3, 3)
	opts.Wait = 40 * time.Millisecond
	opts.CadenceJitter = 0
	s, err := New(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range s.Profiles() {
		if p.Cadence != 40*time.Millisecond {
			t.Errorf("%s cadence = %s, expected 40ms", p.Name, p.Cadence)
		}
	}
}

func TestAddRecorder(t *testing.T) {
	first, second := &collector{}, &collector{}
	s, err := New(fastOptions(3, 3, 3), nil, first)
	if err != nil {
		t.Fatal(err)
	}
	s.AddRecorder(second)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if len(first.reports) != 60 || len(second.reports) != 60 {
		t.Errorf("recorders saw %d and %d turns, expected 60 each", len(first.reports), len(second.reports))
	}
}

func TestVerifyCatchesStalePosition(t *testing.T) {
	for _, engine := range arena.Engines() {
		t.Run(string(engine), func(t *testing.T) {
			opts := fastOptions(3, 3, 3)
			opts.Engine = engine
			s, err := New(opts, nil)
			if err != nil {
				t.Fatalf("New() = %v", err)
			}
			if s.coordinator != nil {
				s.coordinator.Start()
				defer s.coordinator.Stop()
			}

			if err := s.verify(); err != nil {
				t.Fatalf("verify() on a fresh field = %v", err)
			}

			// Move p0 behind its back so its cached position goes stale.
			s.field.Move(0, firstEmpty(s.field))

			err = s.verify()
			if !errors.Is(err, field.ErrInvariant) {
				t.Errorf("got %v, expected an invariant violation", err)
			}
		})
	}
}
