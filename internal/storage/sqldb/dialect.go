// Package sqldb is the relational implementation of storage.Storage.
//
// It owns the whole persistence lifecycle: acquiring a connection
// (Provider), creating the schema (EnsureSchema) and running the student
// statements inside scoped connections and transactions (Repository).
// Everything that differs between stores lives behind the Dialect interface
// and is implemented in the mysql, postgres and sqlite packages.
package sqldb

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/student-records/internal/config"
)

// Dialect captures what differs between relational stores.
type Dialect interface {
	// DriverName is the database/sql driver name, e.g. "mysql" or "pgx".
	DriverName() string

	// DSN builds the data source name. With withDatabase false the DSN
	// targets the server itself, for creating the database.
	DSN(cfg config.Database, withDatabase bool) (string, error)

	// CreateDatabase creates the named database if it is absent.
	// conn is a server-level connection.
	CreateDatabase(ctx context.Context, conn *sqlx.Conn, name string) error

	// CreateTable returns the idempotent DDL for the students table.
	CreateTable() string

	// SupportsReturning reports whether INSERT ... RETURNING id is available.
	// Without it the generated id comes from LastInsertId.
	SupportsReturning() bool

	// IsUniqueViolation reports whether err is the store's unique-constraint
	// violation, judged from the driver's structured error code.
	IsUniqueViolation(err error) bool
}
