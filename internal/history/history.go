// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history records export runs in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/exportdesk/internal/export"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound = errors.New("run not found")
	ErrClosed   = errors.New("history store closed")
)

// =============================================================================
// TYPES
// =============================================================================

// Run is one export attempt.
type Run struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
	Format    string        `json:"format"`
	Title     string        `json:"title,omitempty"`
	FileName  string        `json:"file_name,omitempty"`
	Path      string        `json:"path,omitempty"`
	Rows      int           `json:"rows"`
	Columns   int           `json:"columns"`
	SizeBytes int64         `json:"size_bytes"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
}

// Succeeded reports whether the run produced a file.
func (r Run) Succeeded() bool {
	return r.Status == StatusOK
}

// FromResult builds the record of an export attempt.
func FromResult(res export.Result, title string) Run {
	run := Run{
		Duration:  res.Duration,
		Format:    string(res.Format),
		Title:     title,
		FileName:  res.FileName,
		Path:      res.Path,
		Rows:      res.Rows,
		Columns:   res.Columns,
		SizeBytes: res.Size,
		Status:    StatusOK,
	}
	if res.Err != nil {
		run.Status = StatusFailed
		run.Error = res.Err.Error()
	}
	return run
}

// ListOptions filters List results.
type ListOptions struct {
	// Limit caps the number of runs returned. 0 means 20.
	Limit  int
	Format string
	Status Status
}

// Stats summarizes the stored runs.
type Stats struct {
	Total    int            `json:"total"`
	Failed   int            `json:"failed"`
	ByFormat map[string]int `json:"by_format"`
	LastRun  time.Time      `json:"last_run"`
}

// =============================================================================
// STORE
// =============================================================================

// Store is a SQLite-backed run log. It is safe for concurrent use; writes are
// serialized through a single connection.
type Store struct {
	db         *sqlx.DB
	maxEntries int
	mu         sync.RWMutex
	closed     bool
}

// Open opens or creates the database at path. maxEntries > 0 prunes the
// oldest runs after each insert.
func Open(path string, maxEntries int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Record stores run, filling ID, CreatedAt and Status when unset, and
// returns the stored value.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return run, ErrClosed
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = StatusOK
		if run.Error != "" {
			run.Status = StatusFailed
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, duration_ms, format, title, file_name, path,
			row_count, column_count, size_bytes, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixMilli(), run.Duration.Milliseconds(), run.Format, run.Title,
		run.FileName, run.Path, run.Rows, run.Columns, run.SizeBytes, string(run.Status), run.Error)
	if err != nil {
		return run, fmt.Errorf("insert run: %w", err)
	}

	if s.maxEntries > 0 {
		if _, err := s.prune(ctx, s.maxEntries); err != nil {
			return run, err
		}
	}
	return run, nil
}

const runColumns = `id, created_at, duration_ms, format, title, file_name, path,
	row_count, column_count, size_bytes, status, error`

// List returns runs newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []any
	if opts.Format != "" {
		where = append(where, "format = ?")
		args = append(args, opts.Format)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}

	query := "SELECT " + runColumns + " FROM runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	var records []runRecord
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]Run, 0, len(records))
	for _, r := range records {
		runs = append(runs, r.run())
	}
	return runs, nil
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Run{}, ErrClosed
	}

	var r runRecord
	err := s.db.GetContext(ctx, &r, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return r.run(), nil
}

// Stats aggregates all stored runs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{ByFormat: map[string]int{}}
	if s.closed {
		return st, ErrClosed
	}

	var groups []struct {
		Format string `db:"format"`
		Total  int    `db:"total"`
		Failed int    `db:"failed"`
		Newest int64  `db:"newest"`
	}
	err := s.db.SelectContext(ctx, &groups, `
		SELECT format,
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) AS failed,
			MAX(created_at) AS newest
		FROM runs GROUP BY format`)
	if err != nil {
		return st, fmt.Errorf("query stats: %w", err)
	}

	var last int64
	for _, g := range groups {
		st.ByFormat[g.Format] = g.Total
		st.Total += g.Total
		st.Failed += g.Failed
		last = max(last, g.Newest)
	}
	if last > 0 {
		st.LastRun = time.UnixMilli(last)
	}
	return st, nil
}

// Prune keeps the newest keep runs and returns how many were deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.prune(ctx, keep)
}

func (s *Store) prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC, id LIMIT ?
		)`, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// runRecord is the stored shape of a Run.
type runRecord struct {
	ID          string `db:"id"`
	CreatedAt   int64  `db:"created_at"`
	DurationMS  int64  `db:"duration_ms"`
	Format      string `db:"format"`
	Title       string `db:"title"`
	FileName    string `db:"file_name"`
	Path        string `db:"path"`
	RowCount    int    `db:"row_count"`
	ColumnCount int    `db:"column_count"`
	SizeBytes   int64  `db:"size_bytes"`
	Status      string `db:"status"`
	Error       string `db:"error"`
}

func (r runRecord) run() Run {
	return Run{
		ID:        r.ID,
		CreatedAt: time.UnixMilli(r.CreatedAt),
		Duration:  time.Duration(r.DurationMS) * time.Millisecond,
		Format:    r.Format,
		Title:     r.Title,
		FileName:  r.FileName,
		Path:      r.Path,
		Rows:      r.RowCount,
		Columns:   r.ColumnCount,
		SizeBytes: r.SizeBytes,
		Status:    Status(r.Status),
		Error:     r.Error,
	}
}
