// Package results persists per-trial outcomes of batch runs. Backed by
// SQLite for durability across runs, with CSV export for eyeballing
// accuracy over time.
package results

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Verdict values recorded for each check.
const (
	VerdictPass    = "PASS"
	VerdictFail    = "FAIL"
	VerdictError   = "ERROR"
	VerdictSkipped = "SKIPPED"
)

// Trial is one recorded pipeline trial.
type Trial struct {
	RunID           string    `json:"run_id"`
	TrialID         int       `json:"trial_id"`
	Mode            string    `json:"mode"`
	Order           string    `json:"order"`
	FunctionsKeyset string    `json:"functions_keyset"`
	TopLevelKeys    string    `json:"top_level_keys"`
	Passed          bool      `json:"passed"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store is a SQLite-backed trial log. Thread-safe.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the trial database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results db: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trials (
		run_id           TEXT NOT NULL,
		trial_id         INTEGER NOT NULL,
		mode             TEXT NOT NULL,
		op_order         TEXT NOT NULL,
		functions_keyset TEXT NOT NULL,
		top_level_keys   TEXT NOT NULL,
		passed           INTEGER NOT NULL,
		error            TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		PRIMARY KEY (run_id, trial_id)
	);
	CREATE INDEX IF NOT EXISTS idx_trials_run ON trials(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure trials schema: %w", err)
	}
	return nil
}

// Record inserts one trial outcome.
func (s *Store) Record(t Trial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO trials
			(run_id, trial_id, mode, op_order, functions_keyset, top_level_keys, passed, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TrialID, t.Mode, t.Order,
		t.FunctionsKeyset, t.TopLevelKeys, t.Passed, t.Error,
		t.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record trial %d: %w", t.TrialID, err)
	}
	return nil
}

// Trials returns all trials of a run ordered by trial id. An empty runID
// returns every recorded trial in insertion order.
func (s *Store) Trials(runID string) ([]Trial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT run_id, trial_id, mode, op_order, functions_keyset, top_level_keys, passed, error, created_at
		FROM trials`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY run_id, trial_id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()

	var trials []Trial
	for rows.Next() {
		var t Trial
		var createdAt string
		if err := rows.Scan(&t.RunID, &t.TrialID, &t.Mode, &t.Order,
			&t.FunctionsKeyset, &t.TopLevelKeys, &t.Passed, &t.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan trial row: %w", err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse trial timestamp: %w", err)
		}
		trials = append(trials, t)
	}
	return trials, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
