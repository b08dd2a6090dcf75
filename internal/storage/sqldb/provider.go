package sqldb

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
)

// Provider hands out connections to the store.
//
// The underlying *sqlx.DB keeps no idle connections: every Acquire dials a
// fresh physical connection and closing it closes the socket (or file).
type Provider struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewProvider prepares a provider for the database named in cfg.
// No connection is made until Acquire.
func NewProvider(cfg config.Database, d Dialect) (*Provider, error) {
	return newProvider(cfg, d, true)
}

// newServerProvider targets the server without selecting a database.
func newServerProvider(cfg config.Database, d Dialect) (*Provider, error) {
	return newProvider(cfg, d, false)
}

func newProvider(cfg config.Database, d Dialect, withDatabase bool) (*Provider, error) {
	dsn, err := d.DSN(cfg, withDatabase)
	if err != nil {
		return nil, &storage.Error{Kind: storage.KindConnection, Op: "NewProvider", Err: err}
	}

	// sqlx.Open only validates the driver name; it does not dial.
	db, err := sqlx.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, &storage.Error{Kind: storage.KindConnection, Op: "NewProvider", Err: err}
	}
	db.SetMaxIdleConns(0)

	return &Provider{db: db, dialect: d}, nil
}

// Acquire opens a live connection. The caller must Close it.
//
// Failures are returned as *storage.Error of KindConnection, or KindTimeout
// when ctx's deadline passed first.
func (p *Provider) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, acquireError(ctx, err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, acquireError(ctx, err)
	}

	return conn, nil
}

// Dialect returns the dialect the provider was built with.
func (p *Provider) Dialect() Dialect { return p.dialect }

// Close releases the provider's handle. Connections already handed out
// stay valid until they are closed.
func (p *Provider) Close() error {
	return p.db.Close()
}

func acquireError(ctx context.Context, err error) error {
	kind := storage.KindConnection
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = storage.KindTimeout
	}
	return &storage.Error{Kind: kind, Op: "Acquire", Err: err}
}
