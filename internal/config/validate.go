package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/tagsim/internal/arena"
	"github.com/vovakirdan/tagsim/internal/field"
)

// Limits enforced on the command line.
const (
	MinPlayers = 3
	MinTurns   = 10
)

// ErrInvalidConfig is matched by every *ValidationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Is lets errors.Is match ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks a run against the tuning it will use and reports all
// problems at once.
func Validate(r Run, t Tuning) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if r.Players < MinPlayers {
		add("number of players must be at least %d, got %d", MinPlayers, r.Players)
	}
	if r.Width < field.MinSide {
		add("x-size must be at least %d, got %d", field.MinSide, r.Width)
	}
	if r.Height < field.MinSide {
		add("y-size must be at least %d, got %d", field.MinSide, r.Height)
	}
	if r.Width >= field.MinSide && r.Height >= field.MinSide && r.Width*r.Height < r.Players {
		add("a field %d by %d large has %d cells, too few for %d players",
			r.Width, r.Height, r.Width*r.Height, r.Players)
	}
	if r.WaitMS < 0 {
		add("wait-between-turn must not be negative, got %d", r.WaitMS)
	}
	if !r.Forever && r.Turns < MinTurns {
		add("num-turns must be at least %d, got %d", MinTurns, r.Turns)
	}
	if _, err := arena.ParseEngine(r.Engine); err != nil {
		add("engine must be one of locked, coordinator, got %q", r.Engine)
	}

	if t.Movement.RetryBudget < 1 {
		add("movement.retry_budget must be at least 1, got %d", t.Movement.RetryBudget)
	}
	if t.Movement.GraceRetries < 0 || t.Movement.GraceRetries >= t.Movement.RetryBudget {
		add("movement.grace_retries must be in [0, retry_budget), got %d", t.Movement.GraceRetries)
	}
	if t.Risk.Min < 0 || t.Risk.Max > 100 || t.Risk.Min > t.Risk.Max {
		add("risk range must satisfy 0 <= min <= max <= 100, got [%g, %g]", t.Risk.Min, t.Risk.Max)
	}
	if t.Cadence.Jitter < 0 || t.Cadence.Jitter > 1 {
		add("cadence.jitter must be in [0, 1], got %g", t.Cadence.Jitter)
	}
	if t.Render.IntervalMS < 0 {
		add("render.interval_ms must not be negative, got %d", t.Render.IntervalMS)
	}
	if t.It.StartingAgent < 0 || (r.Players > 0 && t.It.StartingAgent >= r.Players) {
		add("it.starting_agent must name a player in [0, %d), got %d", r.Players, t.It.StartingAgent)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
