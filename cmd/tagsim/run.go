package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tagsim/internal/config"
	"github.com/vovakirdan/tagsim/internal/journal"
	"github.com/vovakirdan/tagsim/internal/platform/tui"
	"github.com/vovakirdan/tagsim/internal/render"
	"github.com/vovakirdan/tagsim/internal/sim"
	"github.com/vovakirdan/tagsim/internal/stats"
	"github.com/vovakirdan/tagsim/internal/storage"
)

var (
	runFlags       = config.DefaultRun()
	flagTUI        bool
	flagEventsDir  string
	flagNoSave     bool
	flagRiskPreset string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long: `Run a game of tag and print per-player statistics when it ends.

Each player takes --num-turns turns (or plays until interrupted with
--forever). The field is printed every render interval unless
--show-field=false; with --tui it is shown in a full-screen view instead.

Legend:
  *  the player last known to be it
  P  any other player
  -  empty cell

Risk presets:
  cautious - risk tolerance drawn from [0, 25]
  mixed    - risk tolerance drawn from [0, 100]
  bold     - risk tolerance drawn from [75, 100]

Examples:
  tagsim run -p 10 -x 20 -y 10
  tagsim run -p 5 -x 5 -y 5 -w 50 -t 200 --seed 42
  tagsim run -p 30 -x 15 -y 15 --tui --forever --engine coordinator
  tagsim run -p 8 -x 10 -y 10 --events ./events --risk-preset bold`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.IntVarP(&runFlags.Players, "num-players", "p", 0, "Number of players (at least 3)")
	f.IntVarP(&runFlags.Width, "x-size", "x", 0, "Field width (at least 3)")
	f.IntVarP(&runFlags.Height, "y-size", "y", 0, "Field height (at least 3)")
	f.BoolVarP(&runFlags.ShowField, "show-field", "s", runFlags.ShowField, "Print the field while running")
	f.IntVarP(&runFlags.WaitMS, "wait-between-turn", "w", runFlags.WaitMS, "Milliseconds each player waits between turns")
	f.IntVarP(&runFlags.Turns, "num-turns", "t", runFlags.Turns, "Turns each player takes")
	f.BoolVar(&runFlags.Forever, "forever", false, "Run until interrupted")
	f.StringVar(&runFlags.Engine, "engine", runFlags.Engine, "Field access engine: locked, coordinator")
	f.BoolVar(&flagTUI, "tui", false, "Show the field in a full-screen view")
	f.StringVar(&flagEventsDir, "events", "", "Write a compressed event journal to this directory")
	f.BoolVar(&flagNoSave, "no-save", false, "Do not store the run in the history database")
	f.StringVar(&flagRiskPreset, "risk-preset", "", "Risk tolerance preset: cautious, mixed, bold")
}

func runRun(cmd *cobra.Command, args []string) error {
	run := runFlags
	run.Seed = flagSeed

	tuning, err := config.LoadTuning(flagConfig)
	if err != nil {
		return &config.ValidationError{Problems: []string{err.Error()}}
	}
	if err := config.ApplyRiskPreset(&tuning, config.RiskPreset(flagRiskPreset)); err != nil {
		return err
	}
	if err := config.Validate(run, tuning); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(flagTUI)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := sim.New(config.SimOptions(run, tuning), logger)
	if err != nil {
		return err
	}
	counters := stats.New(s.Profiles(), run.TurnLimit(), run.Width, run.Height)
	s.AddRecorder(counters)

	var events *journal.Writer
	if flagEventsDir != "" {
		events, err = journal.Open(flagEventsDir, s.ID())
		if err != nil {
			return err
		}
		s.AddRecorder(events)
	}

	interval := tuning.RenderInterval(run)
	var interrupted bool
	if flagTUI {
		interrupted, err = watch(ctx, cancel, s, interval)
	} else {
		interrupted, err = runPlain(ctx, s, run.ShowField, interval, logger)
	}
	elapsed := s.Elapsed()

	if events != nil {
		if cerr := events.Close(); cerr != nil {
			logger.Warn("event journal incomplete", "error", cerr)
		} else {
			logger.Info("event journal written", "path", events.Path(), "events", events.Events())
		}
	}
	if err != nil {
		return err
	}

	if werr := counters.Write(os.Stdout); werr != nil {
		return werr
	}

	if !flagNoSave {
		saveRun(s, counters, elapsed, interrupted, logger)
	}
	return nil
}

// runPlain runs the simulation, printing frames to stdout when show is set.
// It reports whether the run was cut short.
func runPlain(ctx context.Context, s *sim.Sim, show bool, interval time.Duration, logger *log.Logger) (bool, error) {
	if !show {
		err := s.Run(ctx)
		return ctx.Err() != nil, err
	}

	var palette render.Palette
	if term.IsTerminal(int(os.Stdout.Fd())) {
		palette = render.DefaultPalette()
	}
	r := render.New(s.Arena(), os.Stdout, render.Options{
		Interval: interval,
		Palette:  palette,
		Logger:   logger,
	})

	renderCtx, stopRender := context.WithCancel(ctx)
	rendered := make(chan error, 1)
	go func() { rendered <- r.Run(renderCtx) }()

	err := s.Run(ctx)
	interrupted := ctx.Err() != nil
	stopRender()
	if rerr := <-rendered; rerr != nil && !errors.Is(rerr, context.Canceled) {
		logger.Warn("renderer stopped", "error", rerr)
	}
	if err == nil {
		// Final state, now that nobody holds the field.
		_ = r.RenderOnce()
	}
	logger.Debug("rendering done", "drawn", r.Drawn(), "skipped", r.Skipped())
	return interrupted, err
}

type runResult struct {
	interrupted bool
	err         error
}

// watch runs the simulation behind the full-screen view. It reports whether
// the run was cut short.
func watch(ctx context.Context, cancel context.CancelFunc, s *sim.Sim, interval time.Duration) (bool, error) {
	done := make(chan error, 1)
	result := make(chan runResult, 1)
	go func() {
		err := s.Run(ctx)
		result <- runResult{interrupted: ctx.Err() != nil, err: err}
		done <- err
	}()

	opts := s.Options()
	_, err := tui.Watch(s.Arena(), tui.WatchOptions{
		Title:    fmt.Sprintf("tagsim - %d players on %dx%d", opts.Players, opts.Width, opts.Height),
		Interval: interval,
		Palette:  render.DefaultPalette(),
		Cancel:   cancel,
	}, done)
	// Quitting the view cancels the run; wait for the agents to stop.
	cancel()
	res := <-result
	if err != nil {
		return res.interrupted, err
	}
	return res.interrupted, res.err
}

// saveRun stores the finished run. Failures only produce a warning.
func saveRun(s *sim.Sim, counters *stats.Stats, elapsed time.Duration, interrupted bool, logger *log.Logger) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open run history", "error", err)
		return
	}
	defer store.Close()

	opts := s.Options()
	rec := storage.RunRecord{
		RunID:       s.ID(),
		Players:     opts.Players,
		Width:       opts.Width,
		Height:      opts.Height,
		Turns:       counters.Turns(),
		TurnLimit:   opts.Turns,
		Engine:      string(opts.Engine),
		Seed:        s.Seed(),
		Wait:        opts.Wait,
		StartedAt:   s.StartedAt(),
		Duration:    elapsed,
		Interrupted: interrupted,
	}
	for _, p := range counters.Players() {
		rec.Tags += p.Tags
		rec.Stats = append(rec.Stats, storage.PlayerRecord{
			PlayerID:      int(p.ID),
			Name:          p.Name,
			RiskTolerance: p.RiskTolerance,
			Turns:         p.Turns,
			StartedAsIt:   p.StartedAsIt,
			MadeIt:        p.MadeIt,
			Tags:          p.Tags,
			Stuck:         p.Stuck,
		})
	}

	if _, err := store.SaveRun(rec); err != nil {
		logger.Warn("could not save run", "error", err)
		return
	}
	logger.Debug("run saved", "run", s.ID())
}
