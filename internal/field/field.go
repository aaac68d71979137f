// Package field implements the field of play: the shared occupancy grid and
// the deliberately stale "last known it" locator.
//
// A Field is not safe for concurrent use. Every access goes through an arena
// that grants one agent exclusive access per turn.
package field

import (
	"fmt"

	"github.com/vovakirdan/tagsim/internal/core"
)

// ID identifies an agent. IDs are assigned 0..n-1 at creation.
type ID int

// NoAgent marks an empty cell or an unset identity.
const NoAgent ID = -1

// Name returns the display name for an agent ID.
func Name(id ID) string {
	return fmt.Sprintf("p%d", id)
}

// MinSide is the smallest allowed width or height.
const MinSide = 3

// Field is the field of play. Cells are stored in row-major order:
// index = y*W + x.
type Field struct {
	w, h      int
	cells     []ID
	positions map[ID]core.Coord

	lastKnownIt    core.Coord
	hasLastKnownIt bool
	lastKnownItID  ID
	previousIt     ID
}

// New creates an all-empty field. Callers validate dimensions beforehand;
// anything smaller than MinSide is treated as an invariant violation.
func New(w, h int) *Field {
	if w < MinSide || h < MinSide {
		panic(violation("New", w, h, "dimensions must be at least %dx%d", MinSide, MinSide))
	}
	cells := make([]ID, w*h)
	for i := range cells {
		cells[i] = NoAgent
	}
	return &Field{
		w:             w,
		h:             h,
		cells:         cells,
		positions:     make(map[ID]core.Coord),
		lastKnownItID: NoAgent,
		previousIt:    NoAgent,
	}
}

// W returns the width (x length) of the field.
func (f *Field) W() int { return f.w }

// H returns the height (y length) of the field.
func (f *Field) H() int { return f.h }

// InBounds reports whether c lies inside [0, W) x [0, H).
func (f *Field) InBounds(c core.Coord) bool {
	return c.X >= 0 && c.X < f.w && c.Y >= 0 && c.Y < f.h
}

func (f *Field) index(op string, c core.Coord) int {
	if !f.InBounds(c) {
		panic(violation(op, c.X, c.Y, "outside %dx%d field", f.w, f.h))
	}
	return c.Y*f.w + c.X
}

// At returns the occupant of c, or NoAgent. Out-of-bounds access panics.
func (f *Field) At(c core.Coord) ID {
	return f.cells[f.index("At", c)]
}

// Place puts a new agent on an empty cell.
func (f *Field) Place(id ID, c core.Coord) {
	i := f.index("Place", c)
	if f.cells[i] != NoAgent {
		panic(violation("Place", c.X, c.Y, "cell already occupied by %d", f.cells[i]))
	}
	if prev, ok := f.positions[id]; ok {
		panic(violation("Place", c.X, c.Y, "agent %d already placed at %v", id, prev))
	}
	f.cells[i] = id
	f.positions[id] = c
}

// Move relocates an agent from its current cell to an empty cell.
func (f *Field) Move(id ID, to core.Coord) {
	from := f.Locate(id)
	dst := f.index("Move", to)
	if f.cells[dst] != NoAgent && f.cells[dst] != id {
		panic(violation("Move", to.X, to.Y, "cell already occupied by %d", f.cells[dst]))
	}
	f.cells[f.index("Move", from)] = NoAgent
	f.cells[dst] = id
	f.positions[id] = to
}

// Locate returns the cell recorded for id. A missing agent panics.
func (f *Field) Locate(id ID) core.Coord {
	c, ok := f.positions[id]
	if !ok {
		panic(violation("Locate", -1, -1, "agent %d is not on the field", id))
	}
	return c
}

// Occupants returns a copy of every agent's recorded position.
func (f *Field) Occupants() map[ID]core.Coord {
	out := make(map[ID]core.Coord, len(f.positions))
	for id, c := range f.positions {
		out[id] = c
	}
	return out
}

// neighbor returns the cell one step from c and whether it is on the field.
func (f *Field) neighbor(d core.Direction, c core.Coord) (core.Coord, bool) {
	if !f.InBounds(c) {
		return c, false
	}
	n := c.Step(d)
	return n, f.InBounds(n)
}

// AdjacentOccupants returns the agents in the eight cells around c, in the
// canonical order N, S, E, W, NW, NE, SW, SE. It is up to the caller to decide
// which of them, if any, is taggable.
func (f *Field) AdjacentOccupants(c core.Coord) []ID {
	var ids []ID
	for _, d := range core.Directions {
		n, ok := f.neighbor(d, c)
		if !ok {
			continue
		}
		if id := f.cells[n.Y*f.w+n.X]; id != NoAgent {
			ids = append(ids, id)
		}
	}
	return ids
}

// CanMove reports whether the neighbor of c in direction d is on the field
// and empty. It never panics, whatever c is.
func (f *Field) CanMove(d core.Direction, c core.Coord) bool {
	n, ok := f.neighbor(d, c)
	if !ok {
		return false
	}
	return f.cells[n.Y*f.w+n.X] == NoAgent
}

// SetLastKnownIt records where "it" was last seen.
func (f *Field) SetLastKnownIt(c core.Coord) {
	f.lastKnownIt = c
	f.hasLastKnownIt = true
}

// LastKnownIt returns where "it" was last seen, if anyone has seen it yet.
func (f *Field) LastKnownIt() (core.Coord, bool) {
	return f.lastKnownIt, f.hasLastKnownIt
}

// SetLastKnownItID records who is believed to be "it".
func (f *Field) SetLastKnownItID(id ID) {
	f.lastKnownItID = id
}

// LastKnownItID returns who is believed to be "it".
func (f *Field) LastKnownItID() ID {
	return f.lastKnownItID
}

// PreviousIt returns the agent that handed "it" over most recently.
func (f *Field) PreviousIt() ID {
	return f.previousIt
}

// PassIt records a tag: from hands the role to to, whose cell becomes the
// last known it location.
func (f *Field) PassIt(from, to ID) {
	c := f.Locate(to)
	f.previousIt = from
	f.lastKnownItID = to
	f.SetLastKnownIt(c)
}

// Validate checks the occupancy invariant: every occupied cell is recorded
// for exactly that agent and every recorded agent occupies its cell.
func (f *Field) Validate() error {
	seen := 0
	for i, id := range f.cells {
		if id == NoAgent {
			continue
		}
		seen++
		x, y := i%f.w, i/f.w
		c, ok := f.positions[id]
		if !ok {
			return violation("Validate", x, y, "cell holds unknown agent %d", id)
		}
		if c.X != x || c.Y != y {
			return violation("Validate", x, y, "agent %d recorded at %v", id, c)
		}
	}
	if seen != len(f.positions) {
		return fmt.Errorf("%w: %d occupied cells for %d agents", ErrInvariant, seen, len(f.positions))
	}
	return nil
}
