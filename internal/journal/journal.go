// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     journal
// Description: SQLite audit trail of executed calculator commands
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
	"github.com/msto63/rechenwerk/internal/dispatch"
)

// Entry is one executed command
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Operation string    `json:"operation"`
	Operand   string    `json:"operand,omitempty"`
	Total     string    `json:"total"`
	Error     string    `json:"error,omitempty"`
	ErrorCode string    `json:"error_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes the journal
type Stats struct {
	Entries     int64            `json:"entries"`
	Failures    int64            `json:"failures"`
	Sessions    int64            `json:"sessions"`
	ByOperation map[string]int64 `json:"by_operation"`
}

// Config holds configuration for the SQLite journal
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/journal.db",
	}
}

// Store is the SQLite-backed journal
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ dispatch.Recorder = (*Store)(nil)

// Open opens or creates the journal database
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		operand TEXT NOT NULL DEFAULT '',
		total TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		error_code TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_session ON entries(session_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record appends an entry. Missing ID and timestamp are filled in.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if e.Operation == "" {
		return fmt.Errorf("operation is required")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, session_id, operation, operand, total, error, error_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SessionID, e.Operation, e.Operand, e.Total, e.Error, e.ErrorCode, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record entry: %w", err)
	}
	return nil
}

// RecordExecution implements dispatch.Recorder
func (s *Store) RecordExecution(ctx context.Context, x dispatch.Execution) error {
	e := &Entry{
		SessionID: x.SessionID,
		Operation: x.Op.String(),
		Operand:   x.Operand,
		Total:     x.Total,
		CreatedAt: x.At,
	}
	if x.Err != nil {
		e.Error = x.Err.Error()
		e.ErrorCode = string(mdwerror.GetCode(x.Err))
	}
	return s.Record(ctx, e)
}

// List returns the entries of a session in execution order. With limit > 0
// only the last limit entries are returned. An empty sessionID lists all
// sessions.
func (s *Store) List(ctx context.Context, sessionID string, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, session_id, operation, operand, total, error, error_code, created_at
		FROM entries
		WHERE (? = '' OR session_id = ?)
		ORDER BY seq DESC
	`
	args := []interface{}{sessionID, sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Operation, &e.Operand, &e.Total, &e.Error, &e.ErrorCode, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	// Reverse into execution order
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return entries, nil
}

// Stats returns journal statistics
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByOperation: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT session_id)
		FROM entries
	`).Scan(&stats.Entries, &stats.Failures, &stats.Sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT operation, COUNT(*) FROM entries GROUP BY operation`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var op string
		var n int64
		if err := rows.Scan(&op, &n); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats.ByOperation[op] = n
	}
	return stats, rows.Err()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
