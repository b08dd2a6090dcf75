// Package postgres is the PostgreSQL dialect for sqldb, using pgx through
// its database/sql adapter (driver name "pgx").
package postgres

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/student-records/internal/config"
)

// SQLSTATE codes.
const (
	uniqueViolation   = "23505"
	duplicateDatabase = "42P04"
)

// maintenanceDB is the database a server-level connection lands in.
const maintenanceDB = "postgres"

// Dialect implements sqldb.Dialect for PostgreSQL.
type Dialect struct{}

func (Dialect) DriverName() string { return "pgx" }

// DSN builds a postgres:// URL. User and password are URL-escaped by
// url.UserPassword.
func (Dialect) DSN(cfg config.Database, withDatabase bool) (string, error) {
	db := maintenanceDB
	if withDatabase {
		db = cfg.Name
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + db,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String(), nil
}

// CreateDatabase creates the database unless pg_database already lists it.
// Postgres has no CREATE DATABASE IF NOT EXISTS; losing a race to another
// creator (42P04) counts as success.
func (Dialect) CreateDatabase(ctx context.Context, conn *sqlx.Conn, name string) error {
	var exists bool
	err := conn.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = conn.ExecContext(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == duplicateDatabase {
		return nil
	}
	return err
}

// CreateTable uses an identity column; identity values are never reused.
func (Dialect) CreateTable() string {
	return `
		CREATE TABLE IF NOT EXISTS students (
			id     BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			name   VARCHAR(100) NOT NULL,
			email  VARCHAR(100) NOT NULL UNIQUE,
			phone  VARCHAR(20),
			course VARCHAR(100)
		)`
}

// SupportsReturning is true: pgx's database/sql adapter has no LastInsertId.
func (Dialect) SupportsReturning() bool { return true }

func (Dialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
