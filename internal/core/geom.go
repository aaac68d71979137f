// Package core provides the coordinate and direction primitives shared by the
// field of play and the agents. It has no dependencies so the simulation
// logic stays pure and testable.
package core

import (
	"fmt"
	"math"
)

// Coord is a cell position on the field of play.
// X increases to the east, Y increases to the south (row 0 is the north edge).
// Coordinates are signed so stepping off an edge yields a negative value
// instead of wrapping around.
type Coord struct {
	X int
	Y int
}

// C is a convenience constructor for Coord.
func C(x, y int) Coord {
	return Coord{X: x, Y: y}
}

// String returns a string representation of the coordinate.
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Add returns a new Coord offset by (dx, dy).
func (c Coord) Add(dx, dy int) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy}
}

// Step returns the neighboring cell in the given direction.
func (c Coord) Step(d Direction) Coord {
	dx, dy := d.Delta()
	return c.Add(dx, dy)
}

// Distance returns the Euclidean distance to another coordinate.
func (c Coord) Distance(other Coord) float64 {
	dx := float64(c.X - other.X)
	dy := float64(c.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Direction is one of the eight compass moves an agent can make.
type Direction int

// The declaration order is the canonical neighbor order used for adjacency
// queries: N, S, E, W, NW, NE, SW, SE.
const (
	North Direction = iota
	South
	East
	West
	NorthWest
	NorthEast
	SouthWest
	SouthEast
)

// Directions lists every direction in canonical order.
var Directions = [...]Direction{North, South, East, West, NorthWest, NorthEast, SouthWest, SouthEast}

// Delta returns the (dx, dy) offset of one step in this direction.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	case NorthWest:
		return -1, -1
	case NorthEast:
		return 1, -1
	case SouthWest:
		return -1, 1
	case SouthEast:
		return 1, 1
	default:
		return 0, 0
	}
}

// String returns the compass abbreviation.
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case East:
		return "E"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	case NorthEast:
		return "NE"
	case SouthWest:
		return "SW"
	case SouthEast:
		return "SE"
	default:
		return "?"
	}
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
