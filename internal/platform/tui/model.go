package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tagsim/internal/agent"
	"github.com/vovakirdan/tagsim/internal/field"
	"github.com/vovakirdan/tagsim/internal/render"
)

// SimDoneMsg tells the live view that the simulation has ended.
type SimDoneMsg struct {
	Err error
}

// WatchOptions configures the live view.
type WatchOptions struct {
	Title    string
	Interval time.Duration
	Palette  render.Palette
	// Cancel stops the simulation when the user quits.
	Cancel context.CancelFunc
}

// WatchModel is the Bubble Tea model showing a running simulation.
type WatchModel struct {
	src     render.Source
	opts    WatchOptions
	keys    WatchKeyMap
	help    help.Model
	started time.Time
	now     time.Time

	frame   render.Frame
	hasView bool
	drawn   int
	skipped int
	frozen  bool

	done     bool
	err      error
	quitting bool
	width    int
}

// NewWatchModel creates a live view over src.
func NewWatchModel(src render.Source, opts WatchOptions) WatchModel {
	if opts.Interval <= 0 {
		opts.Interval = 250 * time.Millisecond
	}
	if opts.Title == "" {
		opts.Title = "tagsim"
	}
	h := help.New()
	h.ShowAll = false
	now := time.Now()
	return WatchModel{
		src:     src,
		opts:    opts,
		keys:    DefaultWatchKeyMap(),
		help:    h,
		started: now,
		now:     now,
	}
}

// Init starts the tick loop.
func (m WatchModel) Init() tea.Cmd {
	return tickCmd(m.opts.Interval)
}

// Update handles messages and updates the model state.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick(time.Time(msg))

	case SimDoneMsg:
		m.done = true
		m.err = msg.Err
		// Draw the final state once more.
		m.capture()
		return m, tea.Quit
	}

	return m, nil
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.opts.Cancel != nil {
			m.opts.Cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Freeze):
		m.frozen = !m.frozen
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m WatchModel) handleTick(t time.Time) (tea.Model, tea.Cmd) {
	m.now = t
	if !m.frozen {
		m.capture()
	}
	return m, tickCmd(m.opts.Interval)
}

// capture takes a non-blocking snapshot; a busy field counts as skipped.
func (m *WatchModel) capture() {
	fr, ok := render.Snapshot(m.src)
	if !ok {
		m.skipped++
		return
	}
	m.frame = fr
	m.hasView = true
	m.drawn++
}

// Drawn returns the number of frames captured.
func (m WatchModel) Drawn() int { return m.drawn }

// Skipped returns the number of ticks that found the field busy.
func (m WatchModel) Skipped() int { return m.skipped }

// Err returns the simulation error, if the run ended with one.
func (m WatchModel) Err() error { return m.err }

// View renders the current state to a string for display.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.opts.Title))
	b.WriteString("\n\n")

	if m.hasView {
		b.WriteString(fieldStyle.Render(m.frame.Styled(m.opts.Palette)))
	} else {
		b.WriteString(emptyStyle.Render("Waiting for the field..."))
	}
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return centerText(b.String(), m.width)
}

func (m WatchModel) statusLine() string {
	it := "nobody"
	if m.hasView && m.frame.LastKnownIt() != field.NoAgent {
		it = agent.Name(m.frame.LastKnownIt())
	}
	status := fmt.Sprintf("it: %s  frames: %d  skipped: %d  elapsed: %s",
		it, m.drawn, m.skipped, m.now.Sub(m.started).Round(time.Second))
	if m.frozen {
		status += "  [frozen]"
	}

	switch {
	case m.err != nil:
		return alertStyle.Render(fmt.Sprintf("run failed: %v", m.err))
	case m.done:
		return statusStyle.Render(status + "  [finished]")
	}
	return statusStyle.Render(status)
}

// Watch runs the live view until the user quits or done delivers the
// simulation result.
func Watch(src render.Source, opts WatchOptions, done <-chan error) (WatchModel, error) {
	p := tea.NewProgram(NewWatchModel(src, opts), tea.WithAltScreen())

	go func() {
		err := <-done
		p.Send(SimDoneMsg{Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return WatchModel{}, fmt.Errorf("tui: %w", err)
	}
	m, ok := final.(WatchModel)
	if !ok {
		return WatchModel{}, nil
	}
	return m, nil
}
