package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.1.0"
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
	{
		Version: "1.1.0",
		Up:      migrationV11Up,
		Down:    migrationV11Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Files table
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL UNIQUE,
    language TEXT NOT NULL,
    file_hash TEXT NOT NULL,
    summary TEXT,
    detailed_summary TEXT,
    is_entry_point BOOLEAN DEFAULT 0,
    is_core_file BOOLEAN DEFAULT 0,
    last_indexed TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);

-- Methods table
CREATE TABLE IF NOT EXISTS methods (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    method_name TEXT NOT NULL,
    method_type TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    summary TEXT,
    detailed_summary TEXT,
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_methods_file ON methods(file_path);
CREATE INDEX IF NOT EXISTS idx_methods_name ON methods(method_name);

-- Relationships table
CREATE TABLE IF NOT EXISTS relationships (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_file TEXT NOT NULL,
    target_file TEXT NOT NULL,
    relationship_type TEXT NOT NULL,
    FOREIGN KEY (source_file) REFERENCES files(file_path) ON DELETE CASCADE,
    FOREIGN KEY (target_file) REFERENCES files(file_path) ON DELETE CASCADE,
    UNIQUE(source_file, target_file, relationship_type)
);

CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_file);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_file);

-- Single-row indexing status
CREATE TABLE IF NOT EXISTS indexing_status (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    total_files INTEGER DEFAULT 0,
    processed_files INTEGER DEFAULT 0,
    failed_files INTEGER DEFAULT 0,
    success_rate REAL DEFAULT 0,
    languages TEXT,
    is_complete BOOLEAN DEFAULT 0,
    is_loading BOOLEAN DEFAULT 0,
    repo_root TEXT,
    last_updated TIMESTAMP
);
`

const migrationV1Down = `
DROP TABLE IF EXISTS indexing_status;
DROP TABLE IF EXISTS relationships;
DROP TABLE IF EXISTS methods;
DROP TABLE IF EXISTS files;
DROP TABLE IF EXISTS schema_version;
`

// 1.1.0 records the file purpose, the failure details and the build window
const migrationV11Up = `
ALTER TABLE files ADD COLUMN purpose TEXT;
ALTER TABLE indexing_status ADD COLUMN failed_files_details TEXT;
ALTER TABLE indexing_status ADD COLUMN generation TEXT;
ALTER TABLE indexing_status ADD COLUMN started_at TIMESTAMP;
ALTER TABLE indexing_status ADD COLUMN finished_at TIMESTAMP;

CREATE INDEX IF NOT EXISTS idx_files_hash ON files(file_hash);
`

const migrationV11Down = `
DROP INDEX IF EXISTS idx_files_hash;
ALTER TABLE indexing_status DROP COLUMN finished_at;
ALTER TABLE indexing_status DROP COLUMN started_at;
ALTER TABLE indexing_status DROP COLUMN generation;
ALTER TABLE indexing_status DROP COLUMN failed_files_details;
ALTER TABLE files DROP COLUMN purpose;
`

// SchemaVersion returns the highest applied migration, 0.0.0 for a fresh
// database
func SchemaVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}
	defer func() { _ = rows.Close() }()

	current := semver.MustParse("0.0.0")
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid schema version %s: %w", s, err)
		}
		if v.GreaterThan(current) {
			current = v
		}
	}
	return current, rows.Err()
}

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	currentVersion, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !currentVersion.LessThan(migrationVersion) {
			continue
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		currentVersion = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if current.Equal(semver.MustParse("0.0.0")) {
		return fmt.Errorf("no migrations to rollback")
	}

	var migration *Migration
	for i := range AllMigrations {
		if semver.MustParse(AllMigrations[i].Version).Equal(current) {
			migration = &AllMigrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %s not found", current)
	}

	if _, err := db.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", migration.Version, err)
	}

	// The first migration drops schema_version itself
	if migration.Version == AllMigrations[0].Version {
		return nil
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", migration.Version); err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", migration.Version, err)
	}

	return nil
}
