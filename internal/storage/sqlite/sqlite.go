// Package sqlite is the SQLite dialect for sqldb, built on mattn/go-sqlite3.
//
// SQLite keeps the whole database in a single file, so there is no server to
// reach and no database to create: the file appears on first connection.
// Importing go-sqlite3 registers the "sqlite3" database/sql driver.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-records/internal/config"
)

// busyTimeout is how long, in milliseconds, a connection waits on a locked
// database file before failing.
const busyTimeout = 5000

// Dialect implements sqldb.Dialect for SQLite.
type Dialect struct{}

func (Dialect) DriverName() string { return "sqlite3" }

// DSN returns a file: URI for cfg.Path with the path percent-escaped, so
// '?' or '#' in a file name is not read as URI syntax. withDatabase is
// ignored; the file is the database.
func (Dialect) DSN(cfg config.Database, _ bool) (string, error) {
	if cfg.Path == "" {
		return "", errors.New("sqlite: database path is empty")
	}
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(busyTimeout))
	return "file:" + (&url.URL{Path: cfg.Path}).EscapedPath() + "?" + q.Encode(), nil
}

// CreateDatabase is a no-op: opening the file creates it.
func (Dialect) CreateDatabase(context.Context, *sqlx.Conn, string) error { return nil }

// CreateTable uses AUTOINCREMENT so ids of deleted rows are never handed
// out again.
func (Dialect) CreateTable() string {
	return `
		CREATE TABLE IF NOT EXISTS students (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			name   TEXT NOT NULL,
			email  TEXT NOT NULL UNIQUE,
			phone  TEXT,
			course TEXT
		)`
}

func (Dialect) SupportsReturning() bool { return false }

// IsUniqueViolation matches SQLITE_CONSTRAINT_UNIQUE.
func (Dialect) IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrConstraint && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
