package sqldb

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
)

// EnsureSchema creates the database and the students table if they do not
// exist yet. It never drops or alters anything, so it is safe to run on
// every startup. Failures are *storage.Error of KindSchema.
func EnsureSchema(ctx context.Context, cfg config.Database, d Dialect) error {
	if err := ensureDatabase(ctx, cfg, d); err != nil {
		return &storage.Error{Kind: storage.KindSchema, Op: "EnsureSchema", Err: err}
	}
	if err := ensureTable(ctx, cfg, d); err != nil {
		return &storage.Error{Kind: storage.KindSchema, Op: "EnsureSchema", Err: err}
	}
	return nil
}

func ensureDatabase(ctx context.Context, cfg config.Database, d Dialect) error {
	server, err := newServerProvider(cfg, d)
	if err != nil {
		return err
	}
	defer server.Close()

	conn, err := server.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := d.CreateDatabase(ctx, conn, cfg.Name); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	return nil
}

func ensureTable(ctx context.Context, cfg config.Database, d Dialect) error {
	p, err := NewProvider(cfg, d)
	if err != nil {
		return err
	}
	defer p.Close()

	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, d.CreateTable()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}
