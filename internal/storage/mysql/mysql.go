// Package mysql is the MySQL dialect for sqldb, built on go-sql-driver/mysql.
package mysql

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/student-records/internal/config"
)

// erDupEntry is MySQL's ER_DUP_ENTRY, raised by a unique index.
const erDupEntry = 1062

// Dialect implements sqldb.Dialect for MySQL.
type Dialect struct{}

func (Dialect) DriverName() string { return "mysql" }

// DSN formats a go-sql-driver DSN.
//
// clientFoundRows makes RowsAffected count matched rows rather than changed
// rows, so an update that rewrites identical values is still seen as a hit.
func (Dialect) DSN(cfg config.Database, withDatabase bool) (string, error) {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	if withDatabase {
		c.DBName = cfg.Name
	}
	c.ClientFoundRows = true
	c.ParseTime = true
	return c.FormatDSN(), nil
}

// CreateDatabase runs CREATE DATABASE IF NOT EXISTS. The name is an
// identifier and cannot be bound, so it is backtick-quoted instead.
func (Dialect) CreateDatabase(ctx context.Context, conn *sqlx.Conn, name string) error {
	_, err := conn.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+quoteIdent(name))
	return err
}

func (Dialect) CreateTable() string {
	return `
		CREATE TABLE IF NOT EXISTS students (
			id     INT AUTO_INCREMENT PRIMARY KEY,
			name   VARCHAR(100) NOT NULL,
			email  VARCHAR(100) NOT NULL UNIQUE,
			phone  VARCHAR(20),
			course VARCHAR(100)
		)`
}

func (Dialect) SupportsReturning() bool { return false }

func (Dialect) IsUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
