// Package action defines the instructions an agent produces during a turn.
package action

import (
	"fmt"

	"github.com/vovakirdan/tagsim/internal/core"
	"github.com/vovakirdan/tagsim/internal/field"
)

// Kind distinguishes the two action variants.
type Kind int

const (
	KindMove Kind = iota // Move to an adjacent cell
	KindTag              // Tag an adjacent agent
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Action is an immutable instruction. A turn yields at most one Tag and at
// most one Move, Tag first.
type Action struct {
	kind   Kind
	to     core.Coord
	target field.ID
}

// Move returns an instruction to move to the given cell.
func Move(to core.Coord) Action {
	return Action{kind: KindMove, to: to, target: field.NoAgent}
}

// Tag returns an instruction to tag the given agent.
func Tag(target field.ID) Action {
	return Action{kind: KindTag, target: target}
}

// Kind returns the action variant.
func (a Action) Kind() Kind { return a.kind }

// To returns the move destination. Only meaningful for KindMove.
func (a Action) To() core.Coord { return a.to }

// Target returns the tagged agent. NoAgent for moves.
func (a Action) Target() field.ID { return a.target }

func (a Action) String() string {
	if a.kind == KindTag {
		return "tag " + field.Name(a.target)
	}
	return fmt.Sprintf("move %s", a.to)
}
