// Package history records submitted pipeline runs in a local SQLite
// database. The store is best-effort bookkeeping: the authoritative run
// state always lives on the remote service.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded submission.
type Run struct {
	ID          string
	Pipeline    string
	JobName     string
	TemplateURI string
	State       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is a submission-history database.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the history database at the given
// path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}

	const runsTable = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		pipeline TEXT NOT NULL,
		job_name TEXT NOT NULL,
		template_uri TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := db.Exec(runsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history database %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a new submission and returns its local identifier.
func (s *Store) RecordRun(pipeline, jobName, templateURI, state string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO runs (id, pipeline, job_name, template_uri, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, pipeline, jobName, templateURI, state, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return id, nil
}

// UpdateState updates the recorded state of a run.
func (s *Store) UpdateState(id, state string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE runs SET state = ?, updated_at = ? WHERE id = ?`, state, now, id)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	return nil
}

// ListRuns returns all recorded runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, pipeline, job_name, template_uri, state, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Pipeline, &r.JobName, &r.TemplateURI, &r.State, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
