package agent

import (
	"github.com/vovakirdan/tagsim/internal/action"
	"github.com/vovakirdan/tagsim/internal/core"
	"github.com/vovakirdan/tagsim/internal/field"
)

// TurnReport describes one completed turn.
type TurnReport struct {
	Agent       field.ID
	Turn        int // 1-based, per agent
	From        core.Coord
	To          core.Coord
	StartedAsIt bool // the agent acted as "it" this turn
	BecameIt    bool // the agent learned this turn that it had been tagged
	Tagged      field.ID
	Stuck       bool
	Actions     []action.Action
}

// TakeTurn runs one decision step against f and applies the resulting
// actions. The caller must hold exclusive access to f for the whole call.
func (a *Agent) TakeTurn(f *field.Field) TurnReport {
	if got := f.At(a.pos); got != a.id {
		panic(&field.InvariantError{
			Op: "TakeTurn", X: a.pos.X, Y: a.pos.Y,
			Detail: "cached position of " + a.name + " holds " + Name(got),
		})
	}

	rep := TurnReport{Agent: a.id, From: a.pos, Tagged: field.NoAgent}

	// An agent only finds out it was tagged when it next acts.
	if f.LastKnownItID() == a.id && !a.isIt {
		a.isIt = true
		rep.BecameIt = true
	}
	rep.StartedAsIt = a.isIt

	if a.isIt {
		f.SetLastKnownIt(a.pos)
		if target, ok := a.TagTarget(f); ok {
			act := action.Tag(target)
			a.apply(f, act)
			rep.Tagged = target
			rep.Actions = append(rep.Actions, act)
		}
	}

	if dest, ok := a.ChooseMove(f); ok {
		act := action.Move(dest)
		a.apply(f, act)
		rep.Actions = append(rep.Actions, act)
	} else {
		rep.Stuck = true
		a.logger.Warn("agent is stuck", "agent", a.name, "at", a.pos)
	}

	rep.To = a.pos
	return rep
}

// TagTarget picks the first adjacent agent whose identity differs from the
// last known it. With NoTagBacks set, the agent that handed the role over
// most recently is skipped as well.
func (a *Agent) TagTarget(f *field.Field) (field.ID, bool) {
	skip := f.LastKnownItID()
	previous := field.NoAgent
	if a.tuning.NoTagBacks {
		previous = f.PreviousIt()
	}
	for _, id := range f.AdjacentOccupants(a.pos) {
		if id == skip || id == previous || id == a.id {
			continue
		}
		return id, true
	}
	return field.NoAgent, false
}

// ChooseMove samples random directions until it finds an empty neighbor the
// agent is willing to step onto. It returns false when the retry budget runs
// out, in which case the agent stays where it is.
func (a *Agent) ChooseMove(f *field.Field) (core.Coord, bool) {
	itPos, itKnown := f.LastKnownIt()
	for remaining := a.tuning.RetryBudget; remaining > 0; remaining-- {
		d := core.Directions[a.rng.IntN(len(core.Directions))]
		if !f.CanMove(d, a.pos) {
			continue
		}
		dest := a.pos.Step(d)
		// Moving beats getting stuck, so risk only matters while there are
		// retries to spare.
		if itKnown && remaining > a.tuning.GraceRetries && a.TooRisky(itPos, dest) {
			continue
		}
		return dest, true
	}
	return a.pos, false
}

// TooRisky reports whether stepping to dest brings the agent closer to the it
// location by more than its risk tolerance allows. Moves that do not shorten
// the distance are never too risky.
func (a *Agent) TooRisky(it, dest core.Coord) bool {
	current := a.pos.Distance(it)
	next := dest.Distance(it)
	if next >= current {
		return false
	}
	pctChange := (current - next) / current * 100
	return pctChange > a.risk
}

func (a *Agent) apply(f *field.Field, act action.Action) {
	switch act.Kind() {
	case action.KindTag:
		a.isIt = false
		f.PassIt(a.id, act.Target())
		a.logger.Info("tagged", "tagger", a.name, "target", Name(act.Target()))
	case action.KindMove:
		f.Move(a.id, act.To())
		a.pos = act.To()
	}
}
