// Package database stores the variables a host receives from the plugin.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"spelltimer/internal/log"
)

// ErrNotFound is returned when a variable has never been set
var ErrNotFound = errors.New("variable not found")

// Database is the variable store used by the harness host
type Database interface {
	OpenDatabase(filename string) error
	CreateDatabase(filename string) error
	CloseDatabase() error
	GetDatabaseOpen() bool

	StartSession() (string, error)
	LoadSession(id string) (Session, error)

	SaveVariable(session, name, value string) error
	LoadVariable(session, name string) (string, error)
	LoadVariables(session string) (map[string]string, error)

	BeginTransaction() error
	CommitTransaction() error
	RollbackTransaction() error
}

// SQLiteDatabase implements Database on SQLite
type SQLiteDatabase struct {
	db       *sql.DB
	dbOpen   bool
	filename string
	tx       *sql.Tx // current transaction
}

// NewDatabase creates an unopened SQLite database
func NewDatabase() *SQLiteDatabase {
	return &SQLiteDatabase{}
}

// OpenDatabase opens filename, creating it and its schema if needed
func (d *SQLiteDatabase) OpenDatabase(filename string) error {
	if d.dbOpen {
		return fmt.Errorf("database already open")
	}

	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err = db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d.db = db
	if err = d.runMigrations(); err != nil {
		db.Close()
		d.db = nil
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.filename = filename
	d.dbOpen = true
	log.Debug("variable store opened", "file", filename)
	return nil
}

// CreateDatabase opens filename and ensures the schema exists
func (d *SQLiteDatabase) CreateDatabase(filename string) error {
	return d.OpenDatabase(filename)
}

// CloseDatabase closes the connection, rolling back an open transaction
func (d *SQLiteDatabase) CloseDatabase() error {
	if !d.dbOpen {
		return nil
	}

	if d.tx != nil {
		d.tx.Rollback()
		d.tx = nil
	}

	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	d.dbOpen = false
	d.filename = ""
	return nil
}

func (d *SQLiteDatabase) GetDatabaseOpen() bool {
	return d.dbOpen
}

// GetDB exposes the connection for ad-hoc queries
func (d *SQLiteDatabase) GetDB() *sql.DB {
	return d.db
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func (d *SQLiteDatabase) conn() execer {
	if d.tx != nil {
		return d.tx
	}
	return d.db
}

// StartSession records a new harness session and returns its id
func (d *SQLiteDatabase) StartSession() (string, error) {
	if !d.dbOpen {
		return "", fmt.Errorf("database not open")
	}

	id := uuid.NewString()
	_, err := d.conn().Exec(`INSERT INTO sessions (id, started_at) VALUES (?, ?);`, id, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return id, nil
}

// LoadSession returns the stored session and its variable count
func (d *SQLiteDatabase) LoadSession(id string) (Session, error) {
	if !d.dbOpen {
		return Session{}, fmt.Errorf("database not open")
	}

	s := Session{ID: id}
	var started int64
	err := d.conn().QueryRow(`
	SELECT s.started_at, COUNT(v.name)
	FROM sessions s LEFT JOIN variables v ON v.session_id = s.id
	WHERE s.id = ?
	GROUP BY s.id;`, id).Scan(&started, &s.Variables)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return Session{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	s.StartedAt = time.Unix(started, 0)
	return s, nil
}

// SaveVariable stores value under name for session, replacing any
// previous value
func (d *SQLiteDatabase) SaveVariable(session, name, value string) error {
	if !d.dbOpen {
		return fmt.Errorf("database not open")
	}

	query := `
	INSERT INTO variables (session_id, name, value, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (session_id, name) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at;`

	if _, err := d.conn().Exec(query, session, name, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save variable %s: %w", name, err)
	}
	return nil
}

// LoadVariable returns the stored value or ErrNotFound
func (d *SQLiteDatabase) LoadVariable(session, name string) (string, error) {
	if !d.dbOpen {
		return "", fmt.Errorf("database not open")
	}

	var value string
	err := d.conn().QueryRow(`SELECT value FROM variables WHERE session_id = ? AND name = ?;`, session, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("variable %s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("failed to load variable %s: %w", name, err)
	}
	return value, nil
}

// LoadVariables returns every variable stored for session
func (d *SQLiteDatabase) LoadVariables(session string) (map[string]string, error) {
	if !d.dbOpen {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := d.conn().Query(`SELECT name, value FROM variables WHERE session_id = ?;`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to query variables: %w", err)
	}
	defer rows.Close()

	vars := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		vars[name] = value
	}
	return vars, rows.Err()
}

// Transaction methods
func (d *SQLiteDatabase) BeginTransaction() error {
	if !d.dbOpen {
		return fmt.Errorf("database not open")
	}
	if d.tx != nil {
		return fmt.Errorf("transaction already active")
	}

	var err error
	d.tx, err = d.db.Begin()
	return err
}

func (d *SQLiteDatabase) CommitTransaction() error {
	if d.tx == nil {
		return fmt.Errorf("no active transaction")
	}

	err := d.tx.Commit()
	d.tx = nil
	return err
}

func (d *SQLiteDatabase) RollbackTransaction() error {
	if d.tx == nil {
		return fmt.Errorf("no active transaction")
	}

	err := d.tx.Rollback()
	d.tx = nil
	return err
}
