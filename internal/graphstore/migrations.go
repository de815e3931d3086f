package graphstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Representations table: one row per file path per namespace
CREATE TABLE IF NOT EXISTS representations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    namespace TEXT NOT NULL,
    file_path TEXT NOT NULL,
    content TEXT NOT NULL,
    textual_json TEXT NOT NULL,
    structural_json TEXT NOT NULL,
    semantic_json TEXT NOT NULL,
    relationships_json TEXT,
    bias_score REAL NOT NULL DEFAULT 0,
    embedding BLOB,
    embedding_dim INTEGER NOT NULL DEFAULT 0,
    last_modified TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(namespace, file_path)
);

CREATE INDEX IF NOT EXISTS idx_representations_ns ON representations(namespace);
CREATE INDEX IF NOT EXISTS idx_representations_path ON representations(namespace, file_path);

-- Relationships table: typed weighted edges
CREATE TABLE IF NOT EXISTS relationships (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    namespace TEXT NOT NULL,
    from_path TEXT NOT NULL,
    to_path TEXT NOT NULL,
    rel_type TEXT NOT NULL,
    weight REAL NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 0,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(namespace, from_path, to_path, rel_type, line_number)
);

CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(namespace, from_path);
CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(namespace, to_path);
CREATE INDEX IF NOT EXISTS idx_relationships_type ON relationships(namespace, rel_type);
`

const migrationV1Down = `
DROP TABLE IF EXISTS relationships;
DROP TABLE IF EXISTS representations;
DROP TABLE IF EXISTS schema_version;
`

// runMigrations applies all migrations newer than the recorded version.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var current string
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1`).Scan(&current)
	if err != nil {
		// Fresh database: no schema_version table yet.
		current = "0.0.0"
	}

	currentVer, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("invalid recorded schema version %q: %w", current, err)
	}

	for _, m := range AllMigrations {
		ver, err := semver.NewVersion(m.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %q: %w", m.Version, err)
		}
		if !ver.GreaterThan(currentVer) {
			continue
		}

		if _, err := db.ExecContext(ctx, m.Up); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.Version, err)
		}
	}

	return nil
}
