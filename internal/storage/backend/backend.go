// Package backend wires a configured store into a ready repository: it picks
// the dialect for the configured driver, ensures the schema exists and
// builds the connection provider.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage/mysql"
	"github.com/aanand-mishra/student-records/internal/storage/postgres"
	"github.com/aanand-mishra/student-records/internal/storage/sqldb"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
)

// DialectFor returns the dialect for a config.Driver* value.
func DialectFor(driver string) (sqldb.Dialect, error) {
	switch driver {
	case config.DriverMySQL:
		return mysql.Dialect{}, nil
	case config.DriverPostgres:
		return postgres.Dialect{}, nil
	case config.DriverSQLite:
		return sqlite.Dialect{}, nil
	default:
		return nil, fmt.Errorf("backend: unsupported database driver %q", driver)
	}
}

// Open ensures the schema and returns a repository for cfg.
// The caller must Close the repository.
//
// Schema initialisation is bounded by cfg.StartupTimeout unless ctx already
// carries a deadline.
func Open(ctx context.Context, cfg config.Database, log *slog.Logger) (*sqldb.Repository, error) {
	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	initCtx, cancel := startupContext(ctx, cfg.StartupTimeout)
	defer cancel()

	if err := sqldb.EnsureSchema(initCtx, cfg, d); err != nil {
		return nil, err
	}

	p, err := sqldb.NewProvider(cfg, d)
	if err != nil {
		return nil, err
	}

	return sqldb.NewRepository(p, cfg.OpTimeout, log), nil
}

func startupContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
