package action

import (
	"testing"

	"github.com/vovakirdan/tagsim/internal/core"
	"github.com/vovakirdan/tagsim/internal/field"
)

func TestNewTag(t *testing.T) {
	a := Tag(1)

	if a.Kind() != KindTag {
		t.Errorf("Kind() = %v, expected tag", a.Kind())
	}
	if a.Target() != 1 {
		t.Errorf("Target() = %d, expected 1", a.Target())
	}
	if a.String() != "tag "+field.Name(1) {
		t.Errorf("String() = %q, expected tag p1", a.String())
	}
}

func TestNewMove(t *testing.T) {
	a := Move(core.C(1, 2))

	if a.Kind() != KindMove {
		t.Errorf("Kind() = %v, expected move", a.Kind())
	}
	if a.To() != core.C(1, 2) {
		t.Errorf("To() = %v, expected (1,2)", a.To())
	}
	if a.Target() != field.NoAgent {
		t.Errorf("Target() = %d, expected NoAgent", a.Target())
	}
	if a.String() != "move (1,2)" {
		t.Errorf("String() = %q", a.String())
	}
}
