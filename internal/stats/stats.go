// Package stats counts what every agent did during a run.
package stats

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/vovakirdan/tagsim/internal/agent"
	"github.com/vovakirdan/tagsim/internal/field"
)

// Player holds the counters of one agent.
type Player struct {
	ID            field.ID
	Name          string
	RiskTolerance float64
	Turns         int
	StartedAsIt   int
	MadeIt        int
	Tags          int
	Stuck         int
}

// Stats is an agent.Recorder safe for concurrent use.
type Stats struct {
	width, height int
	turnLimit     int

	mu      sync.Mutex
	players map[field.ID]*Player
	maxTurn int
}

// New creates counters for the given agents. turnLimit is the per-agent
// bound, 0 when the run is unbounded.
func New(profiles []agent.Profile, turnLimit, width, height int) *Stats {
	s := &Stats{
		width:     width,
		height:    height,
		turnLimit: turnLimit,
		players:   make(map[field.ID]*Player, len(profiles)),
	}
	for _, p := range profiles {
		s.players[p.ID] = &Player{ID: p.ID, Name: p.Name, RiskTolerance: p.RiskTolerance}
	}
	return s
}

// RecordTurn implements agent.Recorder.
func (s *Stats) RecordTurn(rep agent.TurnReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[rep.Agent]
	if !ok {
		p = &Player{ID: rep.Agent, Name: agent.Name(rep.Agent)}
		s.players[rep.Agent] = p
	}
	p.Turns++
	if rep.StartedAsIt {
		p.StartedAsIt++
	}
	if rep.BecameIt {
		p.MadeIt++
	}
	if rep.Tagged != field.NoAgent {
		p.Tags++
	}
	if rep.Stuck {
		p.Stuck++
	}
	if rep.Turn > s.maxTurn {
		s.maxTurn = rep.Turn
	}
}

// Players returns a copy of the counters ordered by agent ID.
func (s *Stats) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Turns returns the number of turns played: the configured bound, or the
// highest turn any agent reached when the run was unbounded or cut short.
func (s *Stats) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnLimit > 0 && s.maxTurn >= s.turnLimit {
		return s.turnLimit
	}
	return s.maxTurn
}

// Write prints the summary: a header line and one line per agent.
func (s *Stats) Write(w io.Writer) error {
	players := s.Players()
	if _, err := fmt.Fprintf(w, "%d players played for %d turns on a field %d by %d large\n",
		len(players), s.Turns(), s.width, s.height); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	for _, p := range players {
		_, err := fmt.Fprintf(w, "%s: risk_tolerance=%.1f turns=%d started_as_it=%d made_it=%d tags=%d stuck=%d\n",
			p.Name, p.RiskTolerance, p.Turns, p.StartedAsIt, p.MadeIt, p.Tags, p.Stuck)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
	}
	return nil
}
