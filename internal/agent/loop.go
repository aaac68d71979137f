package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/tagsim/internal/field"
)

// Arena grants exclusive access to the shared field. Turn runs fn with no
// other turn in progress and returns once fn has completed.
type Arena interface {
	Turn(ctx context.Context, fn func(f *field.Field)) error
}

// Recorder observes completed turns. Reports are delivered after the agent
// has released the field, so recorders must do their own locking.
type Recorder interface {
	RecordTurn(rep TurnReport)
}

// Recorders fans a report out to several recorders.
type Recorders []Recorder

// RecordTurn implements Recorder.
func (rs Recorders) RecordTurn(rep TurnReport) {
	for _, r := range rs {
		if r != nil {
			r.RecordTurn(rep)
		}
	}
}

// Run is the agent's loop: wait for the cadence, take one turn with
// exclusive access to the field, repeat. It stops after maxTurns turns
// (0 means no limit) or when ctx is cancelled. Any error from the arena is
// fatal and returned.
func (a *Agent) Run(ctx context.Context, arena Arena, maxTurns int, rec Recorder) error {
	timer := time.NewTimer(a.cadence)
	defer timer.Stop()

	for turn := 1; maxTurns <= 0 || turn <= maxTurns; turn++ {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		var rep TurnReport
		err := arena.Turn(ctx, func(f *field.Field) {
			rep = a.TakeTurn(f)
		})
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return fmt.Errorf("agent %s: %w", a.name, err)
		}

		rep.Turn = turn
		if rec != nil {
			rec.RecordTurn(rep)
		}
		timer.Reset(a.cadence)
	}

	a.logger.Debug("agent finished", "agent", a.name, "turns", maxTurns)
	return nil
}
