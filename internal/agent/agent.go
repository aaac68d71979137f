// Package agent implements a player of tag: its private state, the decision
// step it runs each turn against the shared field, and its independent loop.
package agent

import (
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tagsim/internal/core"
	"github.com/vovakirdan/tagsim/internal/field"
)

// Rand is the random source used for direction sampling. *rand.Rand from
// math/rand/v2 satisfies it; tests inject scripted sequences.
type Rand interface {
	IntN(n int) int
}

// Tuning bounds the movement search.
type Tuning struct {
	// RetryBudget is the number of direction samples per turn before the
	// agent gives up and stays put.
	RetryBudget int
	// GraceRetries is the point below which risk is no longer considered:
	// candidates are only rejected on risk while more than GraceRetries
	// samples remain.
	GraceRetries int
	// NoTagBacks stops "it" from tagging the agent that just tagged it.
	NoTagBacks bool
}

// DefaultTuning returns the standard movement bounds.
func DefaultTuning() Tuning {
	return Tuning{RetryBudget: 1000, GraceRetries: 100}
}

// Params holds everything needed to create an agent.
type Params struct {
	ID            field.ID
	IsIt          bool
	Position      core.Coord
	RiskTolerance float64 // 0..100, higher approaches "it" more willingly
	Cadence       time.Duration
	Tuning        Tuning
	Rand          Rand
	Logger        *log.Logger
}

// Agent is one participant. Identity, risk tolerance and cadence never change
// after creation; position and the "it" flag are only touched during the
// agent's own turn, while it holds exclusive access to the field.
type Agent struct {
	id      field.ID
	name    string
	isIt    bool
	pos     core.Coord
	risk    float64
	cadence time.Duration
	tuning  Tuning
	rng     Rand
	logger  *log.Logger
}

// New creates an agent. The caller must already have placed it on the field
// at p.Position.
func New(p Params) *Agent {
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if p.Tuning.RetryBudget <= 0 {
		p.Tuning = DefaultTuning()
	}
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(p.ID)))
	}
	return &Agent{
		id:      p.ID,
		name:    Name(p.ID),
		isIt:    p.IsIt,
		pos:     p.Position,
		risk:    core.ClampF(p.RiskTolerance, 0, 100),
		cadence: p.Cadence,
		tuning:  p.Tuning,
		rng:     p.Rand,
		logger:  logger,
	}
}

// Name returns the display name for an agent ID.
func Name(id field.ID) string {
	return field.Name(id)
}

// ID returns the agent's identity.
func (a *Agent) ID() field.ID { return a.id }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// IsIt reports whether the agent currently believes it is "it".
func (a *Agent) IsIt() bool { return a.isIt }

// Position returns the agent's cached coordinates.
func (a *Agent) Position() core.Coord { return a.pos }

// RiskTolerance returns the agent's risk tolerance in [0, 100].
func (a *Agent) RiskTolerance() float64 { return a.risk }

// Cadence returns how long the agent waits between turns.
func (a *Agent) Cadence() time.Duration { return a.cadence }

// Profile is the immutable description of an agent.
type Profile struct {
	ID            field.ID
	Name          string
	RiskTolerance float64
	Cadence       time.Duration
}

// Profile returns the agent's immutable attributes.
func (a *Agent) Profile() Profile {
	return Profile{ID: a.id, Name: a.name, RiskTolerance: a.risk, Cadence: a.cadence}
}
