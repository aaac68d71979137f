package field

import (
	"errors"
	"testing"

	"github.com/vovakirdan/tagsim/internal/core"
)

// fillAllBut occupies every cell of f except skip, numbering agents from 1.
func fillAllBut(f *Field, skip core.Coord) {
	id := ID(1)
	for y := 0; y < f.H(); y++ {
		for x := 0; x < f.W(); x++ {
			c := core.C(x, y)
			if c == skip {
				continue
			}
			f.Place(id, c)
			id++
		}
	}
}

func expectInvariantPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic, got none")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvariant) {
			t.Fatalf("expected invariant violation, got %v", r)
		}
	}()
	fn()
}

func TestNewField(t *testing.T) {
	f := New(4, 3)

	if f.W() != 4 || f.H() != 3 {
		t.Fatalf("expected 4x3 field, got %dx%d", f.W(), f.H())
	}
	for y := 0; y < f.H(); y++ {
		for x := 0; x < f.W(); x++ {
			if id := f.At(core.C(x, y)); id != NoAgent {
				t.Errorf("cell (%d,%d) = %d, expected empty", x, y, id)
			}
		}
	}
	if _, ok := f.LastKnownIt(); ok {
		t.Error("new field should have no last known it location")
	}
	if f.LastKnownItID() != NoAgent {
		t.Errorf("LastKnownItID() = %d, expected NoAgent", f.LastKnownItID())
	}
}

func TestNewFieldTooSmallPanics(t *testing.T) {
	expectInvariantPanic(t, func() { New(2, 5) })
}

func TestAdjacentOccupantsCenter(t *testing.T) {
	f := New(3, 3)
	fillAllBut(f, core.C(1, 1))

	got := f.AdjacentOccupants(core.C(1, 1))
	if len(got) != 8 {
		t.Fatalf("expected 8 adjacent occupants, got %d (%v)", len(got), got)
	}

	// Canonical order N, S, E, W, NW, NE, SW, SE
	expected := []ID{
		f.At(core.C(1, 0)),
		f.At(core.C(1, 2)),
		f.At(core.C(2, 1)),
		f.At(core.C(0, 1)),
		f.At(core.C(0, 0)),
		f.At(core.C(2, 0)),
		f.At(core.C(0, 2)),
		f.At(core.C(2, 2)),
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("adjacent[%d] = %d, expected %d", i, got[i], expected[i])
		}
	}
}

func TestAdjacentOccupantsCorners(t *testing.T) {
	corners := []core.Coord{core.C(0, 0), core.C(2, 0), core.C(0, 2), core.C(2, 2)}

	for _, corner := range corners {
		t.Run(corner.String(), func(t *testing.T) {
			f := New(3, 3)
			fillAllBut(f, corner)

			got := f.AdjacentOccupants(corner)
			if len(got) != 3 {
				t.Errorf("expected 3 adjacent occupants at corner, got %d", len(got))
			}
		})
	}
}

func TestAdjacentOccupantsIsDeterministic(t *testing.T) {
	f := New(5, 5)
	f.Place(1, core.C(2, 1))
	f.Place(2, core.C(3, 3))
	f.Place(3, core.C(1, 2))

	first := f.AdjacentOccupants(core.C(2, 2))
	for i := 0; i < 10; i++ {
		again := f.AdjacentOccupants(core.C(2, 2))
		if len(again) != len(first) {
			t.Fatalf("length changed: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("order changed: %v vs %v", again, first)
			}
		}
	}
	// N (2,1) = 1, W (1,2) = 3, SE (3,3) = 2
	expected := []ID{1, 3, 2}
	for i := range expected {
		if first[i] != expected[i] {
			t.Errorf("adjacent = %v, expected %v", first, expected)
			break
		}
	}
}

func TestCanMoveInterior(t *testing.T) {
	f := New(3, 3)
	center := core.C(1, 1)

	for _, d := range core.Directions {
		if !f.CanMove(d, center) {
			t.Errorf("CanMove(%s) from empty center should be true", d)
		}
	}

	fillAllBut(f, center)
	for _, d := range core.Directions {
		if f.CanMove(d, center) {
			t.Errorf("CanMove(%s) into occupied cell should be false", d)
		}
	}
}

func TestCanMoveBoundsSafety(t *testing.T) {
	f := New(3, 3)

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			c := core.C(x, y)
			for _, d := range core.Directions {
				n := c.Step(d)
				expected := f.InBounds(n)
				if got := f.CanMove(d, c); got != expected {
					t.Errorf("CanMove(%s, %v) = %v, expected %v", d, c, got, expected)
				}
			}
		}
	}
}

func TestCanMoveFromOutsideNeverPanics(t *testing.T) {
	f := New(3, 3)
	outside := []core.Coord{core.C(-1, 0), core.C(0, -1), core.C(3, 1), core.C(1, 3), core.C(-5, -5)}

	for _, c := range outside {
		for _, d := range core.Directions {
			if f.CanMove(d, c) {
				t.Errorf("CanMove(%s, %v) from outside should be false", d, c)
			}
		}
		if got := f.AdjacentOccupants(c); len(got) != 0 {
			t.Errorf("AdjacentOccupants(%v) = %v, expected none", c, got)
		}
	}
}

func TestAtOutOfBoundsPanics(t *testing.T) {
	f := New(3, 3)
	expectInvariantPanic(t, func() { f.At(core.C(3, 0)) })
	expectInvariantPanic(t, func() { f.At(core.C(0, -1)) })
}

func TestPlaceAndMove(t *testing.T) {
	f := New(3, 3)
	f.Place(7, core.C(0, 0))

	if got := f.Locate(7); got != core.C(0, 0) {
		t.Fatalf("Locate(7) = %v, expected (0,0)", got)
	}

	f.Move(7, core.C(1, 1))
	if f.At(core.C(0, 0)) != NoAgent {
		t.Error("old cell should be empty after move")
	}
	if f.At(core.C(1, 1)) != 7 {
		t.Error("new cell should hold the agent after move")
	}
	if got := f.Locate(7); got != core.C(1, 1) {
		t.Errorf("Locate(7) = %v, expected (1,1)", got)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestPlaceOccupiedPanics(t *testing.T) {
	f := New(3, 3)
	f.Place(1, core.C(2, 2))
	expectInvariantPanic(t, func() { f.Place(2, core.C(2, 2)) })
	expectInvariantPanic(t, func() { f.Place(1, core.C(0, 0)) })
}

func TestMoveIntoOccupiedPanics(t *testing.T) {
	f := New(3, 3)
	f.Place(1, core.C(0, 0))
	f.Place(2, core.C(1, 0))
	expectInvariantPanic(t, func() { f.Move(1, core.C(1, 0)) })
}

func TestLocateUnknownPanics(t *testing.T) {
	f := New(3, 3)
	expectInvariantPanic(t, func() { f.Locate(42) })
}

func TestLastKnownIt(t *testing.T) {
	f := New(5, 5)

	f.SetLastKnownIt(core.C(3, 4))
	got, ok := f.LastKnownIt()
	if !ok || got != core.C(3, 4) {
		t.Errorf("LastKnownIt() = %v, %v, expected (3,4), true", got, ok)
	}

	f.SetLastKnownItID(2)
	if f.LastKnownItID() != 2 {
		t.Errorf("LastKnownItID() = %d, expected 2", f.LastKnownItID())
	}
}

func TestPassIt(t *testing.T) {
	f := New(3, 3)
	f.Place(0, core.C(1, 1))
	f.Place(1, core.C(0, 1))
	f.SetLastKnownItID(0)

	f.PassIt(0, 1)

	if f.LastKnownItID() != 1 {
		t.Errorf("LastKnownItID() = %d, expected 1", f.LastKnownItID())
	}
	if f.PreviousIt() != 0 {
		t.Errorf("PreviousIt() = %d, expected 0", f.PreviousIt())
	}
	if c, ok := f.LastKnownIt(); !ok || c != core.C(0, 1) {
		t.Errorf("LastKnownIt() = %v, %v, expected tagged agent's cell (0,1)", c, ok)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	f := New(3, 3)
	f.Place(1, core.C(0, 0))
	f.Place(2, core.C(2, 2))

	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() on consistent field = %v", err)
	}

	// Duplicate the agent into a second cell behind the field's back.
	f.cells[1] = 1
	err := f.Validate()
	if err == nil {
		t.Fatal("Validate() should detect a duplicated agent")
	}
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("Validate() error should wrap ErrInvariant, got %v", err)
	}
}

func TestOccupantsIsACopy(t *testing.T) {
	f := New(3, 3)
	f.Place(1, core.C(0, 0))

	occ := f.Occupants()
	occ[1] = core.C(2, 2)

	if f.Locate(1) != core.C(0, 0) {
		t.Error("mutating Occupants() result must not affect the field")
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		id       ID
		expected string
	}{
		{0, "p0"},
		{12, "p12"},
		{NoAgent, "p-1"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Name(tt.id); got != tt.expected {
				t.Errorf("got %q, expected %q", got, tt.expected)
			}
		})
	}
}
