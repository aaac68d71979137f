package render

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tagsim/internal/field"
)

// Source is anything that can be peeked at without waiting.
type Source interface {
	Peek(fn func(f *field.Field)) bool
}

// Options configures a Renderer.
type Options struct {
	Interval time.Duration
	// Palette colors the output; nil prints plain glyphs.
	Palette Palette
	Logger  *log.Logger
}

// Renderer periodically prints frames of a Source.
type Renderer struct {
	src      Source
	out      io.Writer
	interval time.Duration
	palette  Palette
	logger   *log.Logger

	drawn   atomic.Int64
	skipped atomic.Int64
}

// New creates a renderer that writes to out.
func New(src Source, out io.Writer, opts Options) *Renderer {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Interval <= 0 {
		opts.Interval = 250 * time.Millisecond
	}
	return &Renderer{
		src:      src,
		out:      out,
		interval: opts.Interval,
		palette:  opts.Palette,
		logger:   opts.Logger,
	}
}

// Snapshot peeks at the source and captures a frame. It reports false when
// the field was busy.
func Snapshot(src Source) (Frame, bool) {
	var fr Frame
	ok := src.Peek(func(f *field.Field) {
		fr = Capture(f)
	})
	return fr, ok
}

// RenderOnce tries to print one frame, preceded by a "/// TURN n" marker.
// A busy source is counted as a skipped frame and is not an error.
func (r *Renderer) RenderOnce() error {
	fr, ok := Snapshot(r.src)
	if !ok {
		r.skipped.Add(1)
		r.logger.Debug("frame skipped, field busy")
		return nil
	}
	n := r.drawn.Add(1)
	if _, err := fmt.Fprintf(r.out, "/// TURN %d\n%s\n", n, fr.Styled(r.palette)); err != nil {
		return fmt.Errorf("render: write frame: %w", err)
	}
	return nil
}

// Run renders on every interval until ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.RenderOnce(); err != nil {
				return err
			}
		}
	}
}

// Drawn returns the number of frames printed.
func (r *Renderer) Drawn() int64 { return r.drawn.Load() }

// Skipped returns the number of frames skipped on contention.
func (r *Renderer) Skipped() int64 { return r.skipped.Load() }
