// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrStoreClosed  = errors.New("event store closed")
	ErrSchemaTooNew = errors.New("event store schema is newer than this binary")
	ErrInvalidLimit = errors.New("limit must be positive")
)

// =============================================================================
// EVENT STORE
// =============================================================================

// Store persists slash command events in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the event database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the tables and checks the stored schema version.
func (s *Store) initSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return err
	}
	if _, err := s.db.Exec(InitMetadata); err != nil {
		return err
	}

	var raw string
	if err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&raw); err != nil {
		return err
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("bad schema version %q: %w", raw, err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: %d > %d", ErrSchemaTooNew, version, SchemaVersion)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Insert stores one event.
func (s *Store) Insert(ctx context.Context, ev SlashCommandEvent) error {
	if s.db == nil {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slash_command_events (id, command, subcommand, status, extension_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Command, ev.Subcommand, string(ev.Status), ev.ExtensionID, ev.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]SlashCommandEvent, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, subcommand, status, extension_id, created_at
		 FROM slash_command_events
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []SlashCommandEvent{}
	for rows.Next() {
		var ev SlashCommandEvent
		var status string
		var created int64
		if err := rows.Scan(&ev.ID, &ev.Command, &ev.Subcommand, &status, &ev.ExtensionID, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Status = EventStatus(status)
		ev.Timestamp = time.Unix(0, created).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CommandCount aggregates events for one command.
type CommandCount struct {
	Command string `json:"command"`
	Total   int    `json:"total"`
	Errors  int    `json:"errors"`
}

// CountByCommand returns per-command totals, most used first.
func (s *Store) CountByCommand(ctx context.Context) ([]CommandCount, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT command,
		        COUNT(*),
		        SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END)
		 FROM slash_command_events
		 GROUP BY command
		 ORDER BY COUNT(*) DESC, command ASC`)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := []CommandCount{}
	for rows.Next() {
		var c CommandCount
		if err := rows.Scan(&c.Command, &c.Total, &c.Errors); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
