// Package storage keeps the history of simulation runs in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for run history.
type Store struct {
	db *sql.DB
}

// RunRecord is one finished run.
type RunRecord struct {
	ID          int64
	RunID       string
	Players     int
	Width       int
	Height      int
	Turns       int // turns actually played
	TurnLimit   int // 0 when unbounded
	Engine      string
	Seed        uint64
	Wait        time.Duration
	StartedAt   time.Time
	Duration    time.Duration
	Interrupted bool
	Tags        int
	CreatedAt   time.Time

	// Only filled by RunByID.
	Stats []PlayerRecord
}

// PlayerRecord holds the counters of one agent in a run.
type PlayerRecord struct {
	PlayerID      int
	Name          string
	RiskTolerance float64
	Turns         int
	StartedAsIt   int
	MadeIt        int
	Tags          int
	Stuck         int
}

// Summary aggregates every stored run.
type Summary struct {
	Runs       int
	TotalTurns int64
	TotalTags  int64
	AvgPlayers float64
	LastRun    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			players INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			turns INTEGER NOT NULL DEFAULT 0,
			turn_limit INTEGER NOT NULL DEFAULT 0,
			engine TEXT NOT NULL,
			seed INTEGER NOT NULL,
			wait_ms INTEGER NOT NULL,
			started_at_ms INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			interrupted INTEGER NOT NULL DEFAULT 0,
			tags INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS run_players (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			player_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			risk_tolerance REAL NOT NULL,
			turns INTEGER NOT NULL DEFAULT 0,
			started_as_it INTEGER NOT NULL DEFAULT 0,
			made_it INTEGER NOT NULL DEFAULT 0,
			tags INTEGER NOT NULL DEFAULT 0,
			stuck INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, player_id)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun stores a run and its per-agent counters in one transaction.
// Returns the row ID of the run.
func (s *Store) SaveRun(rec RunRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	result, err := tx.Exec(
		`INSERT INTO runs (run_id, players, width, height, turns, turn_limit, engine, seed,
		                   wait_ms, started_at_ms, duration_ms, interrupted, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Players, rec.Width, rec.Height, rec.Turns, rec.TurnLimit, rec.Engine,
		int64(rec.Seed), //nolint:gosec // stored bit for bit, read back as uint64
		rec.Wait.Milliseconds(), rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(),
		rec.Interrupted, rec.Tags,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	for _, p := range rec.Stats {
		_, err := tx.Exec(
			`INSERT INTO run_players (run_id, player_id, name, risk_tolerance, turns,
			                          started_as_it, made_it, tags, stuck)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, p.PlayerID, p.Name, p.RiskTolerance, p.Turns,
			p.StartedAsIt, p.MadeIt, p.Tags, p.Stuck,
		)
		if err != nil {
			return 0, fmt.Errorf("storage: cannot save player %s: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit run: %w", err)
	}
	return id, nil
}

const runColumns = `id, run_id, players, width, height, turns, turn_limit, engine, seed,
	wait_ms, started_at_ms, duration_ms, interrupted, tags, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var r RunRecord
	var seed, waitMs, startedMs, durationMs int64
	var createdAt any
	err := row.Scan(
		&r.ID, &r.RunID, &r.Players, &r.Width, &r.Height, &r.Turns, &r.TurnLimit, &r.Engine,
		&seed, &waitMs, &startedMs, &durationMs, &r.Interrupted, &r.Tags, &createdAt,
	)
	if err != nil {
		return r, err
	}
	r.Seed = uint64(seed) //nolint:gosec // stored bit for bit
	r.Wait = time.Duration(waitMs) * time.Millisecond
	r.StartedAt = time.UnixMilli(startedMs)
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// RecentRuns retrieves the most recent runs, newest first, without their
// per-agent rows.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RunByID retrieves a run and its per-agent rows.
// Returns nil if the run does not exist.
func (s *Store) RunByID(runID string) (*RunRecord, error) {
	r, err := scanRun(s.db.QueryRow(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE run_id = ?`,
		runID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT player_id, name, risk_tolerance, turns, started_as_it, made_it, tags, stuck
		 FROM run_players
		 WHERE run_id = ?
		 ORDER BY player_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p PlayerRecord
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.RiskTolerance, &p.Turns,
			&p.StartedAsIt, &p.MadeIt, &p.Tags, &p.Stuck); err != nil {
			return nil, fmt.Errorf("storage: cannot scan player row: %w", err)
		}
		r.Stats = append(r.Stats, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return &r, nil
}

// Summary aggregates every stored run.
func (s *Store) Summary() (*Summary, error) {
	sum := &Summary{}
	var lastStarted sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(turns), 0), COALESCE(SUM(tags), 0),
		        COALESCE(AVG(players), 0), MAX(started_at_ms)
		 FROM runs`,
	).Scan(&sum.Runs, &sum.TotalTurns, &sum.TotalTags, &sum.AvgPlayers, &lastStarted)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot summarize runs: %w", err)
	}
	if lastStarted.Valid {
		sum.LastRun = time.UnixMilli(lastStarted.Int64)
	}
	return sum, nil
}

// ClearRuns removes every stored run.
func (s *Store) ClearRuns() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.Exec("DELETE FROM run_players"); err != nil {
		return fmt.Errorf("storage: cannot clear players: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM runs"); err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit clear: %w", err)
	}
	return nil
}
