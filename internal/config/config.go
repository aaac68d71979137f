// Package config provides YAML-based tuning loading and run configuration
// validation for the tag simulation.
package config

import (
	"time"

	"github.com/vovakirdan/tagsim/internal/agent"
	"github.com/vovakirdan/tagsim/internal/arena"
	"github.com/vovakirdan/tagsim/internal/sim"
)

// Tuning contains the knobs that rarely change between runs.
type Tuning struct {
	Movement MovementConfig `yaml:"movement"`
	Risk     RiskConfig     `yaml:"risk"`
	Cadence  CadenceConfig  `yaml:"cadence"`
	Render   RenderConfig   `yaml:"render"`
	It       ItConfig       `yaml:"it"`
}

// MovementConfig bounds the per-turn move search.
type MovementConfig struct {
	RetryBudget  int `yaml:"retry_budget"`
	GraceRetries int `yaml:"grace_retries"` // risk is ignored once this few samples remain
}

// RiskConfig is the range risk tolerances are drawn from.
type RiskConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// CadenceConfig controls how far agent cadences spread below the wait.
type CadenceConfig struct {
	Jitter float64 `yaml:"jitter"` // 0 = lock-step, 1 = anywhere in [0, wait]
}

// RenderConfig controls the text renderer.
type RenderConfig struct {
	IntervalMS int `yaml:"interval_ms"` // 0 = same as the wait between turns
}

// ItConfig picks who starts as it and how the role changes hands.
type ItConfig struct {
	StartingAgent int  `yaml:"starting_agent"`
	NoTagBacks    bool `yaml:"no_tag_backs"` // skip the agent that just passed the role on
}

// Run holds the per-invocation settings from the command line.
type Run struct {
	Players   int
	Width     int
	Height    int
	ShowField bool
	WaitMS    int
	Turns     int
	Forever   bool
	Seed      uint64
	Engine    string
}

// DefaultRun returns the command line defaults. Players and field size have
// no sensible default and are left zero.
func DefaultRun() Run {
	return Run{
		ShowField: true,
		WaitMS:    250,
		Turns:     1000,
		Engine:    string(arena.EngineLocked),
	}
}

// Wait returns the wait between turns as a duration.
func (r Run) Wait() time.Duration {
	return time.Duration(r.WaitMS) * time.Millisecond
}

// TurnLimit returns the per-agent bound, 0 when running forever.
func (r Run) TurnLimit() int {
	if r.Forever {
		return 0
	}
	return r.Turns
}

// RenderInterval returns how often frames are drawn.
func (t Tuning) RenderInterval(r Run) time.Duration {
	if t.Render.IntervalMS > 0 {
		return time.Duration(t.Render.IntervalMS) * time.Millisecond
	}
	return r.Wait()
}

// SimOptions combines a validated run and tuning into simulation options.
func SimOptions(r Run, t Tuning) sim.Options {
	engine, err := arena.ParseEngine(r.Engine)
	if err != nil {
		engine = arena.EngineLocked
	}
	return sim.Options{
		Players:       r.Players,
		Width:         r.Width,
		Height:        r.Height,
		Wait:          r.Wait(),
		CadenceJitter: t.Cadence.Jitter,
		Turns:         r.TurnLimit(),
		Seed:          r.Seed,
		Engine:        engine,
		Movement: agent.Tuning{
			RetryBudget:  t.Movement.RetryBudget,
			GraceRetries: t.Movement.GraceRetries,
			NoTagBacks:   t.It.NoTagBacks,
		},
		RiskMin:    t.Risk.Min,
		RiskMax:    t.Risk.Max,
		StartingIt: t.It.StartingAgent,
	}
}
