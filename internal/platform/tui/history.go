package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tagsim/internal/storage"
)

const maxRuns = 100 // Max runs to load

// RunStore is the part of the run history the browser reads.
type RunStore interface {
	RecentRuns(limit int) ([]storage.RunRecord, error)
	RunByID(runID string) (*storage.RunRecord, error)
}

// HistoryModel is the Bubble Tea model for browsing stored runs.
type HistoryModel struct {
	store    RunStore
	runs     []storage.RunRecord
	selected *storage.RunRecord // non-nil while showing one run's players
	table    table.Model
	help     help.Model
	keys     HistoryKeyMap
	width    int
	height   int
	err      error
	quitting bool
}

// NewHistoryModel creates a run browser.
func NewHistoryModel(store RunStore, width, height int) HistoryModel {
	h := help.New()
	h.ShowAll = false

	m := HistoryModel{
		store:  store,
		keys:   DefaultHistoryKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.loadRuns()
	return m
}

func (m *HistoryModel) loadRuns() {
	runs, err := m.store.RecentRuns(maxRuns)
	if err != nil {
		m.err = err
		runs = nil
	}
	m.runs = runs
	m.selected = nil
	m.table = m.runsTable()
}

func (m *HistoryModel) showRun(runID string) {
	run, err := m.store.RunByID(runID)
	if err != nil {
		m.err = err
		return
	}
	if run == nil {
		return
	}
	m.selected = run
	m.table = m.playersTable()
}

func (m HistoryModel) tableHeight() int {
	return max(3, m.height-8) // Leave room for header, help, and margins
}

func styledTable(columns []table.Column, rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m HistoryModel) runsTable() table.Model {
	columns := []table.Column{
		{Title: "Run", Width: 8},
		{Title: "Date", Width: 12},
		{Title: "Players", Width: 7},
		{Title: "Field", Width: 7},
		{Title: "Turns", Width: 6},
		{Title: "Tags", Width: 6},
		{Title: "Engine", Width: 11},
	}
	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		rows[i] = table.Row{
			ShortID(r.RunID),
			r.StartedAt.Format("Jan 02 15:04"),
			fmt.Sprintf("%d", r.Players),
			fmt.Sprintf("%dx%d", r.Width, r.Height),
			fmt.Sprintf("%d", r.Turns),
			fmt.Sprintf("%d", r.Tags),
			r.Engine,
		}
	}
	return styledTable(columns, rows, m.tableHeight())
}

func (m HistoryModel) playersTable() table.Model {
	columns := []table.Column{
		{Title: "Player", Width: 7},
		{Title: "Risk", Width: 6},
		{Title: "Turns", Width: 6},
		{Title: "As it", Width: 6},
		{Title: "Made it", Width: 7},
		{Title: "Tags", Width: 5},
		{Title: "Stuck", Width: 6},
	}
	rows := make([]table.Row, len(m.selected.Stats))
	for i, p := range m.selected.Stats {
		rows[i] = table.Row{
			p.Name,
			fmt.Sprintf("%.1f", p.RiskTolerance),
			fmt.Sprintf("%d", p.Turns),
			fmt.Sprintf("%d", p.StartedAsIt),
			fmt.Sprintf("%d", p.MadeIt),
			fmt.Sprintf("%d", p.Tags),
			fmt.Sprintf("%d", p.Stuck),
		}
	}
	return styledTable(columns, rows, m.tableHeight())
}

// ShortID abbreviates a run ID for display.
func ShortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

// Init initializes the browser.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the browser.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			if m.selected == nil {
				m.quitting = true
				return m, tea.Quit
			}
			m.loadRuns()
			return m, nil

		case key.Matches(msg, m.keys.Select):
			if m.selected == nil && len(m.runs) > 0 {
				m.showRun(m.runs[m.table.Cursor()].RunID)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.selected != nil {
			m.table = m.playersTable()
		} else {
			m.table = m.runsTable()
		}
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Selected returns the run being shown, or nil on the run list.
func (m HistoryModel) Selected() *storage.RunRecord { return m.selected }

// View renders the browser.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "RUN HISTORY"
	if m.selected != nil {
		title = fmt.Sprintf("RUN %s - %d players on %dx%d, %s",
			ShortID(m.selected.RunID), m.selected.Players, m.selected.Width, m.selected.Height,
			m.selected.Duration.Round(time.Millisecond))
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	switch {
	case m.err != nil:
		b.WriteString(alertStyle.Render(m.err.Error()))
	case m.selected == nil && len(m.runs) == 0:
		b.WriteString(centerText(emptyStyle.Render("No runs recorded yet.\nStart one with tagsim run."), m.width))
	default:
		b.WriteString(centerText(tableStyle.Render(m.table.View()), m.width))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// Browse runs the history browser.
func Browse(store RunStore, width, height int) error {
	p := tea.NewProgram(NewHistoryModel(store, width, height), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
