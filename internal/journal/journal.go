// Package journal records notable turn events as zstd-compressed JSON lines.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/vovakirdan/tagsim/internal/agent"
	"github.com/vovakirdan/tagsim/internal/field"
)

// ErrClosed is kept when events arrive after Close.
var ErrClosed = errors.New("journal: closed")

// Event kinds.
const (
	KindTag      = "tag"
	KindBecameIt = "became_it"
	KindStuck    = "stuck"
)

// Event is one line of the journal.
type Event struct {
	Time   time.Time `json:"time"`
	RunID  string    `json:"run_id"`
	Kind   string    `json:"kind"`
	Turn   int       `json:"turn"`
	Agent  string    `json:"agent"`
	Target string    `json:"target,omitempty"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
}

// Writer is an agent.Recorder that appends events to a .jsonl.zst file.
// Write errors do not stop the run; the first one is kept and returned by
// Close.
type Writer struct {
	runID string
	path  string

	mu   sync.Mutex
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
	err  error
	seen int
}

// Path returns the journal file for a run inside dir.
func Path(dir, runID string) string {
	return filepath.Join(dir, fmt.Sprintf("events-%s.jsonl.zst", runID))
}

// Open creates the journal for runID in dir.
func Open(dir, runID string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	path := Path(dir, runID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journal: zstd: %w", err)
	}
	return &Writer{
		runID: runID,
		path:  path,
		f:     f,
		enc:   enc,
		w:     bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Path returns the file being written.
func (w *Writer) Path() string { return w.path }

// Events returns how many events were written.
func (w *Writer) Events() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seen
}

// RecordTurn implements agent.Recorder.
func (w *Writer) RecordTurn(rep agent.TurnReport) {
	now := time.Now().UTC()
	base := Event{Time: now, RunID: w.runID, Turn: rep.Turn, Agent: agent.Name(rep.Agent)}

	var events []Event
	if rep.BecameIt {
		e := base
		e.Kind = KindBecameIt
		e.X, e.Y = rep.From.X, rep.From.Y
		events = append(events, e)
	}
	if rep.Tagged != field.NoAgent {
		e := base
		e.Kind = KindTag
		e.Target = agent.Name(rep.Tagged)
		e.X, e.Y = rep.From.X, rep.From.Y
		events = append(events, e)
	}
	if rep.Stuck {
		e := base
		e.Kind = KindStuck
		e.X, e.Y = rep.From.X, rep.From.Y
		events = append(events, e)
	}
	if len(events) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range events {
		if err := w.writeLocked(e); err != nil && w.err == nil {
			w.err = err
		}
	}
}

func (w *Writer) writeLocked(e Event) error {
	if w.w == nil {
		return ErrClosed
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("journal: encode: %w", err)
	}
	if _, err := w.w.Write(b); err != nil {
		return fmt.Errorf("journal: write: %w", err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("journal: write: %w", err)
	}
	w.seen++
	return nil
}

// Close flushes and closes the file. It returns the first error seen while
// writing, or the first error closing.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return w.err
	}
	keep := func(err error) {
		if err != nil && w.err == nil {
			w.err = err
		}
	}
	keep(w.w.Flush())
	keep(w.enc.Close())
	keep(w.f.Close())
	w.w, w.enc, w.f = nil, nil, nil
	return w.err
}

// Read decodes a journal file.
func Read(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("journal: zstd: %w", err)
	}
	defer dec.Close()

	var events []Event
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("journal: decode line %d: %w", len(events)+1, err)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("journal: read: %w", err)
	}
	return events, nil
}
