// Package sim assembles a game of tag: it builds the field, places the agents,
// picks the arena engine and runs every agent loop until they finish, the
// context is cancelled or the field is corrupted.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tagsim/internal/agent"
	"github.com/vovakirdan/tagsim/internal/arena"
	"github.com/vovakirdan/tagsim/internal/core"
	"github.com/vovakirdan/tagsim/internal/field"
)

// ErrBadOptions is wrapped by every error New returns for unusable options.
var ErrBadOptions = errors.New("sim: bad options")

// Options describes one simulation run.
type Options struct {
	Players int
	Width   int
	Height  int

	// Wait is the upper bound of an agent's cadence.
	Wait time.Duration
	// CadenceJitter in [0,1] widens cadences downwards to Wait*(1-jitter).
	CadenceJitter float64

	// Turns bounds each agent's loop; 0 runs until the context is cancelled.
	Turns int
	// Seed drives placement, risk, cadence and every agent's random source.
	// 0 picks a time based seed.
	Seed uint64

	Engine     arena.Engine
	Movement   agent.Tuning
	RiskMin    float64
	RiskMax    float64
	StartingIt int
}

// DefaultOptions returns options matching the CLI defaults for the given size.
func DefaultOptions(players, width, height int) Options {
	return Options{
		Players:       players,
		Width:         width,
		Height:        height,
		Wait:          250 * time.Millisecond,
		CadenceJitter: 0.5,
		Turns:         1000,
		Engine:        arena.EngineLocked,
		Movement:      agent.DefaultTuning(),
		RiskMin:       0,
		RiskMax:       100,
	}
}

func (o Options) check() error {
	switch {
	case o.Players < 1:
		return fmt.Errorf("%w: need at least one player, got %d", ErrBadOptions, o.Players)
	case o.Width < field.MinSide || o.Height < field.MinSide:
		return fmt.Errorf("%w: field %dx%d is smaller than %dx%d", ErrBadOptions, o.Width, o.Height, field.MinSide, field.MinSide)
	case o.Width*o.Height < o.Players:
		return fmt.Errorf("%w: a %dx%d field cannot hold %d players", ErrBadOptions, o.Width, o.Height, o.Players)
	case o.StartingIt < 0 || o.StartingIt >= o.Players:
		return fmt.Errorf("%w: starting it %d is not a player", ErrBadOptions, o.StartingIt)
	case o.Wait < 0:
		return fmt.Errorf("%w: negative wait %s", ErrBadOptions, o.Wait)
	case o.RiskMin > o.RiskMax:
		return fmt.Errorf("%w: risk range [%g, %g] is empty", ErrBadOptions, o.RiskMin, o.RiskMax)
	}
	return nil
}

// Sim is a prepared simulation. Create it with New and start it with Run.
type Sim struct {
	id     string
	opts   Options
	seed   uint64
	logger *log.Logger

	field       *field.Field
	arena       arena.Arena
	coordinator *arena.Coordinator
	agents      []*agent.Agent
	recorders   agent.Recorders

	startedAt  time.Time
	finishedAt time.Time
}

// New validates opts, places the agents on a fresh field and wires the
// chosen arena. Reports of every turn go to the recorders.
func New(opts Options, logger *log.Logger, recorders ...agent.Recorder) (*Sim, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Movement.RetryBudget <= 0 {
		opts.Movement = agent.DefaultTuning()
	}
	if opts.Engine == "" {
		opts.Engine = arena.EngineLocked
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s := &Sim{
		id:        uuid.NewString(),
		opts:      opts,
		seed:      seed,
		logger:    logger,
		field:     field.New(opts.Width, opts.Height),
		recorders: agent.Recorders(recorders),
	}

	switch opts.Engine {
	case arena.EngineLocked:
		s.arena = arena.NewLocked(s.field, logger)
	case arena.EngineCoordinator:
		s.coordinator = arena.NewCoordinator(s.field, logger)
		s.arena = s.coordinator
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrBadOptions, opts.Engine)
	}

	s.spawn(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	return s, nil
}

// spawn places every agent on a uniformly chosen empty cell.
func (s *Sim) spawn(master *rand.Rand) {
	empty := make([]core.Coord, 0, s.opts.Width*s.opts.Height)
	for y := 0; y < s.opts.Height; y++ {
		for x := 0; x < s.opts.Width; x++ {
			empty = append(empty, core.C(x, y))
		}
	}

	s.agents = make([]*agent.Agent, 0, s.opts.Players)
	for i := 0; i < s.opts.Players; i++ {
		idx := master.IntN(len(empty))
		pos := empty[idx]
		empty[idx] = empty[len(empty)-1]
		empty = empty[:len(empty)-1]

		id := field.ID(i)
		isIt := i == s.opts.StartingIt
		s.field.Place(id, pos)
		if isIt {
			s.field.SetLastKnownItID(id)
			s.field.SetLastKnownIt(pos)
		}

		s.agents = append(s.agents, agent.New(agent.Params{
			ID:            id,
			IsIt:          isIt,
			Position:      pos,
			RiskTolerance: s.opts.RiskMin + master.Float64()*(s.opts.RiskMax-s.opts.RiskMin),
			Cadence:       s.cadence(master),
			Tuning:        s.opts.Movement,
			Rand:          rand.New(rand.NewPCG(master.Uint64(), master.Uint64())),
			Logger:        s.logger,
		}))
	}
}

func (s *Sim) cadence(master *rand.Rand) time.Duration {
	jitter := core.ClampF(s.opts.CadenceJitter, 0, 1)
	span := time.Duration(float64(s.opts.Wait) * jitter)
	if span <= 0 {
		return s.opts.Wait
	}
	return s.opts.Wait - span + time.Duration(master.Int64N(int64(span)+1))
}

// Run starts one goroutine per agent and blocks until all of them are done.
// Cancelling ctx ends the run cleanly and returns nil. The first arena error
// stops every agent and is returned.
func (s *Sim) Run(ctx context.Context) error {
	if s.coordinator != nil {
		s.coordinator.Start()
		defer s.coordinator.Stop()
	}

	s.startedAt = time.Now()
	s.logger.Info("simulation started",
		"run", s.id, "players", s.opts.Players,
		"field", fmt.Sprintf("%dx%d", s.opts.Width, s.opts.Height),
		"engine", s.opts.Engine, "seed", s.seed)

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range s.agents {
		g.Go(func() error {
			return a.Run(gctx, s.arena, s.opts.Turns, s.recorders)
		})
	}
	err := g.Wait()
	if err == nil {
		err = s.verify()
	}

	s.finishedAt = time.Now()
	if err != nil {
		s.logger.Error("simulation aborted", "run", s.id, "error", err)
		return fmt.Errorf("sim: %w", err)
	}
	s.logger.Info("simulation finished", "run", s.id,
		"elapsed", s.Elapsed().Round(time.Millisecond), "interrupted", ctx.Err() != nil)
	return nil
}

// verify checks the occupancy invariant once every agent has stopped, through
// one last turn so the coordinator engine is still the field's only owner.
func (s *Sim) verify() error {
	var verr error
	err := s.arena.Turn(context.Background(), func(f *field.Field) {
		if verr = f.Validate(); verr != nil {
			return
		}
		for _, a := range s.agents {
			if got := f.At(a.Position()); got != a.ID() {
				verr = fmt.Errorf("%w: %s cached at %v, field holds %s",
					field.ErrInvariant, a.Name(), a.Position(), field.Name(got))
				return
			}
		}
	})
	if err != nil {
		return err
	}
	return verr
}

// AddRecorder registers another observer of turn reports. Call it before Run.
func (s *Sim) AddRecorder(r agent.Recorder) {
	s.recorders = append(s.recorders, r)
}

// ID returns the run's unique identifier.
func (s *Sim) ID() string { return s.id }

// Seed returns the seed actually used.
func (s *Sim) Seed() uint64 { return s.seed }

// Options returns the effective options.
func (s *Sim) Options() Options { return s.opts }

// Arena returns the arena guarding the field, for observers that Peek.
func (s *Sim) Arena() arena.Arena { return s.arena }

// Agents returns the agents. Their state is only safe to read once Run has
// returned.
func (s *Sim) Agents() []*agent.Agent {
	out := make([]*agent.Agent, len(s.agents))
	copy(out, s.agents)
	return out
}

// Profiles returns the immutable attributes of every agent in ID order.
func (s *Sim) Profiles() []agent.Profile {
	out := make([]agent.Profile, len(s.agents))
	for i, a := range s.agents {
		out[i] = a.Profile()
	}
	return out
}

// StartedAt returns when Run began. Call it after Run returns.
func (s *Sim) StartedAt() time.Time { return s.startedAt }

// Elapsed returns how long the run took. Call it after Run returns.
func (s *Sim) Elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	if s.finishedAt.IsZero() {
		return time.Since(s.startedAt)
	}
	return s.finishedAt.Sub(s.startedAt)
}
