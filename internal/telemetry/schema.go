// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema for the event store.
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per executed slash command
CREATE TABLE IF NOT EXISTS slash_command_events (
    id TEXT PRIMARY KEY,
    command TEXT NOT NULL,
    subcommand TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,          -- success, error
    extension_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL    -- Unix nanoseconds
);

CREATE INDEX IF NOT EXISTS idx_events_created_at ON slash_command_events(created_at);
CREATE INDEX IF NOT EXISTS idx_events_command ON slash_command_events(command);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
