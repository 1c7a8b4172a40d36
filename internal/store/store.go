// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     store
// Description: SQLite history of check runs and their per-file results
// Author:      msto63
// Created:     2026-10-07
// License:     MIT
// ============================================================================

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
)

// Run is one invocation of `shcst check`
type Run struct {
	ID         string    `json:"id"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished,omitempty"`
	Dialect    string    `json:"dialect"`
	ConfigPath string    `json:"config_path,omitempty"`
	Files      int       `json:"files"`
	Failed     int       `json:"failed"`
	ErrorNodes int       `json:"error_nodes"`
}

// Crosscheck outcome for a file
const (
	CrosscheckSkipped  = ""
	CrosscheckAgree    = "agree"
	CrosscheckMismatch = "mismatch"
)

// FileResult is the outcome of checking one file
type FileResult struct {
	RunID      string        `json:"run_id"`
	Path       string        `json:"path"`
	Hash       string        `json:"hash"`
	Bytes      int           `json:"bytes"`
	Tokens     int           `json:"tokens"`
	ErrorNodes int           `json:"error_nodes"`
	RoundTrip  bool          `json:"round_trip"`
	Crosscheck string        `json:"crosscheck,omitempty"`
	Duration   time.Duration `json:"duration"`
	Problems   []string      `json:"problems,omitempty"`
}

// Failed reports whether the file counts as a failed check
func (f *FileResult) Failed(failOnErrors bool) bool {
	return !f.RoundTrip || f.Crosscheck == CrosscheckMismatch || (failOnErrors && f.ErrorNodes > 0)
}

// RunFilter defines criteria for listing runs
type RunFilter struct {
	Since time.Time
	Limit int
}

// CheckStore defines the interface for check-run persistence
type CheckStore interface {
	BeginRun(ctx context.Context, run *Run) error
	RecordFiles(ctx context.Context, runID string, files []*FileResult) (int, int, error)
	FinishRun(ctx context.Context, run *Run) error

	Runs(ctx context.Context, filter RunFilter) ([]*Run, error)
	Files(ctx context.Context, runID string, onlyFailed bool) ([]*FileResult, error)
	History(ctx context.Context, path string, limit int) ([]*FileResult, error)
	Stats(ctx context.Context) (map[string]interface{}, error)

	Vacuum(ctx context.Context) error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteStore implements CheckStore using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// NewSQLiteStore opens (and creates) the database at cfg.Path
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storeError(err, "failed to create directory", "store.Open").WithDetail("path", dir)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, storeError(err, "failed to open database", "store.Open").WithDetail("path", cfg.Path)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, storeError(err, "failed to initialize schema", "store.Open").WithDetail("path", cfg.Path)
	}
	return s, nil
}

func storeError(err error, msg, op string) *mdwerror.Error {
	return mdwerror.Wrap(err, msg).
		WithCode(mdwerror.CodeStoreError).
		WithOperation(op)
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started DATETIME NOT NULL,
		finished DATETIME,
		dialect TEXT NOT NULL,
		config_path TEXT,
		files INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error_nodes INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS files (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		hash TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		tokens INTEGER NOT NULL,
		error_nodes INTEGER NOT NULL,
		round_trip INTEGER NOT NULL,
		crosscheck TEXT,
		duration_ns INTEGER NOT NULL,
		problems TEXT,
		PRIMARY KEY (run_id, path)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started DESC);
	CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
	`

	_, err := s.db.Exec(schema)
	return err
}

// BeginRun records a new run, assigning ID and start time if unset
func (s *SQLiteStore) BeginRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Started.IsZero() {
		run.Started = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started, dialect, config_path)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Started.UTC(), run.Dialect, run.ConfigPath)
	if err != nil {
		return storeError(err, "failed to insert run", "store.BeginRun").WithDetail("run_id", run.ID)
	}
	return nil
}

// RecordFiles stores file results of a run and returns accepted and
// rejected counts
func (s *SQLiteStore) RecordFiles(ctx context.Context, runID string, files []*FileResult) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, len(files), storeError(err, "failed to begin transaction", "store.RecordFiles")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO files
			(run_id, path, hash, bytes, tokens, error_nodes, round_trip, crosscheck, duration_ns, problems)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, len(files), storeError(err, "failed to prepare statement", "store.RecordFiles")
	}
	defer stmt.Close()

	var accepted, rejected int
	for _, f := range files {
		if f.Path == "" {
			rejected++
			continue
		}
		f.RunID = runID

		var problemsJSON []byte
		if len(f.Problems) > 0 {
			problemsJSON, _ = json.Marshal(f.Problems)
		}

		_, err := stmt.ExecContext(ctx, runID, f.Path, f.Hash, f.Bytes, f.Tokens, f.ErrorNodes,
			f.RoundTrip, f.Crosscheck, int64(f.Duration), string(problemsJSON))
		if err != nil {
			rejected++
		} else {
			accepted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, len(files), storeError(err, "failed to commit transaction", "store.RecordFiles")
	}
	return accepted, rejected, nil
}

// FinishRun stores the totals and the finish time of a run
func (s *SQLiteStore) FinishRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.Finished.IsZero() {
		run.Finished = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished = ?, files = ?, failed = ?, error_nodes = ?
		WHERE id = ?
	`, run.Finished.UTC(), run.Files, run.Failed, run.ErrorNodes, run.ID)
	if err != nil {
		return storeError(err, "failed to update run", "store.FinishRun").WithDetail("run_id", run.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mdwerror.New("run not found").
			WithCode(mdwerror.CodeNotFound).
			WithOperation("store.FinishRun").
			WithDetail("run_id", run.ID)
	}
	return nil
}

// Runs lists runs, newest first
func (s *SQLiteStore) Runs(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, started, finished, dialect, config_path, files, failed, error_nodes FROM runs WHERE 1=1`
	var args []interface{}

	if !filter.Since.IsZero() {
		query += " AND started >= ?"
		args = append(args, filter.Since.UTC())
	}
	query += " ORDER BY started DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, "failed to query runs", "store.Runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		var configPath sql.NullString
		if err := rows.Scan(&r.ID, &r.Started, &finished, &r.Dialect, &configPath,
			&r.Files, &r.Failed, &r.ErrorNodes); err != nil {
			return nil, storeError(err, "failed to scan run", "store.Runs")
		}
		if finished.Valid {
			r.Finished = finished.Time
		}
		r.ConfigPath = configPath.String
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

const fileColumns = `run_id, path, hash, bytes, tokens, error_nodes, round_trip, crosscheck, duration_ns, problems`

// Files lists the file results of a run ordered by path
func (s *SQLiteStore) Files(ctx context.Context, runID string, onlyFailed bool) ([]*FileResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + fileColumns + ` FROM files WHERE run_id = ?`
	if onlyFailed {
		query += ` AND (round_trip = 0 OR error_nodes > 0 OR crosscheck = 'mismatch')`
	}
	query += ` ORDER BY path`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, storeError(err, "failed to query files", "store.Files")
	}
	defer rows.Close()
	return scanFiles(rows)
}

// History returns the most recent results for one path, newest first
func (s *SQLiteStore) History(ctx context.Context, path string, limit int) ([]*FileResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.run_id, f.path, f.hash, f.bytes, f.tokens, f.error_nodes, f.round_trip,
			f.crosscheck, f.duration_ns, f.problems
		FROM files f JOIN runs r ON r.id = f.run_id
		WHERE f.path = ?
		ORDER BY r.started DESC
		LIMIT ?
	`, path, limit)
	if err != nil {
		return nil, storeError(err, "failed to query history", "store.History")
	}
	defer rows.Close()
	return scanFiles(rows)
}

func scanFiles(rows *sql.Rows) ([]*FileResult, error) {
	var out []*FileResult
	for rows.Next() {
		var f FileResult
		var crosscheck, problemsJSON sql.NullString
		var durationNS int64
		if err := rows.Scan(&f.RunID, &f.Path, &f.Hash, &f.Bytes, &f.Tokens, &f.ErrorNodes,
			&f.RoundTrip, &crosscheck, &durationNS, &problemsJSON); err != nil {
			return nil, storeError(err, "failed to scan file result", "store.scanFiles")
		}
		f.Crosscheck = crosscheck.String
		f.Duration = time.Duration(durationNS)
		if problemsJSON.Valid && problemsJSON.String != "" {
			json.Unmarshal([]byte(problemsJSON.String), &f.Problems)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// Stats returns totals over the whole history
func (s *SQLiteStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})

	var runs, files, failedFiles, errorNodes int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		return nil, storeError(err, "failed to count runs", "store.Stats")
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN round_trip = 0 OR error_nodes > 0 OR crosscheck = 'mismatch' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(error_nodes), 0)
		FROM files
	`).Scan(&files, &failedFiles, &errorNodes); err != nil {
		return nil, storeError(err, "failed to count files", "store.Stats")
	}
	stats["total_runs"] = runs
	stats["total_files"] = files
	stats["failed_files"] = failedFiles
	stats["error_nodes"] = errorNodes

	var distinctPaths int64
	s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT path) FROM files`).Scan(&distinctPaths)
	stats["distinct_paths"] = distinctPaths

	return stats, nil
}

// Vacuum optimizes the database
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return storeError(err, "failed to vacuum", "store.Vacuum")
	}
	return nil
}

// Prune removes runs (and their files) started before now minus olderThan
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeError(err, "failed to begin transaction", "store.Prune")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE run_id IN (SELECT id FROM runs WHERE started < ?)`, cutoff); err != nil {
		return 0, storeError(err, "failed to prune files", "store.Prune")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started < ?`, cutoff)
	if err != nil {
		return 0, storeError(err, "failed to prune runs", "store.Prune")
	}
	deleted, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, storeError(err, "failed to commit transaction", "store.Prune")
	}
	return deleted, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
