// Package journal keeps a SQLite history of export runs.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates no run matched the query.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    input       TEXT NOT NULL,
    output      TEXT NOT NULL,
    plan        TEXT NOT NULL,
    status      TEXT NOT NULL,
    exported    INTEGER NOT NULL DEFAULT 0,
    total       INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// Run is one recorded export.
type Run struct {
	ID         int64
	Input      string
	Output     string
	Plan       string
	Status     string
	Exported   int
	Total      int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Journal is a run history backed by a SQLite database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record appends run and returns its id.
func (j *Journal) Record(run Run) (int64, error) {
	result, err := j.db.Exec(`
        INSERT INTO runs (input, output, plan, status, exported, total, error, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, run.Input, run.Output, run.Plan, run.Status, run.Exported, run.Total, run.Error,
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// Get returns the run with id.
func (j *Journal) Get(id int64) (*Run, error) {
	row := j.db.QueryRow(`
        SELECT id, input, output, plan, status, exported, total, error, started_at, finished_at
        FROM runs WHERE id = ?
    `, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// Recent returns up to n runs, newest first.
func (j *Journal) Recent(n int) ([]Run, error) {
	rows, err := j.db.Query(`
        SELECT id, input, output, plan, status, exported, total, error, started_at, finished_at
        FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
    `, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var started, finished int64
	if err := s.Scan(&run.ID, &run.Input, &run.Output, &run.Plan, &run.Status,
		&run.Exported, &run.Total, &run.Error, &started, &finished); err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(0, started)
	run.FinishedAt = time.Unix(0, finished)
	return &run, nil
}
