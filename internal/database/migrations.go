package database

import (
	"fmt"
	"strings"

	"spelltimer/internal/log"
)

// Migration represents a database migration
type Migration struct {
	ID          int
	Description string
	SQL         string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		ID:          1,
		Description: "Create sessions table",
		SQL: `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL
);`,
	},
	{
		ID:          2,
		Description: "Create variables table",
		SQL: `
CREATE TABLE IF NOT EXISTS variables (
	session_id TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, name),
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_variables_name ON variables(name);`,
	},
}

// MigrationStatus reports whether a migration has been applied
type MigrationStatus struct {
	ID          int
	Description string
	Applied     bool
}

// runMigrations executes all pending migrations
func (d *SQLiteDatabase) runMigrations() error {
	if err := d.ensureSchemaVersionTable(); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion, err := d.getCurrentSchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.ID <= currentVersion {
			continue
		}
		log.Debug("applying migration", "id", migration.ID, "description", migration.Description)
		if err := d.applyMigration(migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.ID, err)
		}
	}
	return nil
}

// ensureSchemaVersionTable creates the schema_version table if it doesn't exist
func (d *SQLiteDatabase) ensureSchemaVersionTable() error {
	_, err := d.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

// getCurrentSchemaVersion returns the current schema version
func (d *SQLiteDatabase) getCurrentSchemaVersion() (int, error) {
	var version int
	err := d.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version;`).Scan(&version)
	return version, err
}

// applyMigration applies a single migration in its own transaction
func (d *SQLiteDatabase) applyMigration(migration Migration) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(migration.SQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute migration statement: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?);`, migration.ID); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// MigrationStatus returns the status of all known migrations
func (d *SQLiteDatabase) MigrationStatus() ([]MigrationStatus, error) {
	if !d.dbOpen {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := d.conn().Query(`SELECT version FROM schema_version ORDER BY version;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	status := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		status = append(status, MigrationStatus{ID: m.ID, Description: m.Description, Applied: applied[m.ID]})
	}
	return status, nil
}
