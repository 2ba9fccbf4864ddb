// Package pgdb is the Postgres datascope engine, built on pgx v5's pool.
// Read-only handles set default_transaction_read_only on every session, so
// Postgres itself rejects writes (SQLSTATE 25006).
package pgdb

import (
	"context"
	"errors"
	"fmt"

	"seisadapt/internal/datascope"
	"seisadapt/internal/datascope/sqlview"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is a pgxpool backed datascope.Database.
type DB struct {
	pool *pgxpool.Pool
}

var _ datascope.Database = (*DB)(nil)

// rows adapts pgx.Rows to sqlview.Rows.
type rows struct{ pgx.Rows }

func (r rows) Columns() ([]string, error) {
	fds := r.FieldDescriptions()
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = fd.Name
	}
	return out, nil
}

func (r rows) Close() error {
	r.Rows.Close()
	return r.Rows.Err()
}

type conn struct{ pool *pgxpool.Pool }

func (c conn) Query(ctx context.Context, q string, args ...any) (sqlview.Rows, error) {
	rs, err := c.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return rows{rs}, nil
}

func (c conn) Exec(ctx context.Context, q string, args ...any) error {
	_, err := c.pool.Exec(ctx, q, args...)
	return err
}

// Conn exposes the pool to sqlview helpers.
func (d *DB) Conn() sqlview.Conn { return conn{d.pool} }

func (d *DB) Dialect() sqlview.Dialect { return sqlview.Postgres }

func (d *DB) Lookup(ctx context.Context, table string) (datascope.View, error) {
	return sqlview.Lookup(ctx, conn{d.pool}, sqlview.Postgres, table)
}

func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

// poolConfig parses cfg.DSN and applies the read-only session setting and
// pool options.
func poolConfig(cfg datascope.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgdb: parse dsn: %w", err)
	}
	if cfg.ReadOnly {
		if pc.ConnConfig.RuntimeParams == nil {
			pc.ConnConfig.RuntimeParams = map[string]string{}
		}
		pc.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	}
	if n := cfg.Options.Int("max_conns", 0); n > 0 {
		pc.MaxConns = int32(n)
	}
	if app := cfg.Options.String("application_name", "seisadapt"); app != "" {
		if pc.ConnConfig.RuntimeParams == nil {
			pc.ConnConfig.RuntimeParams = map[string]string{}
		}
		if _, set := pc.ConnConfig.RuntimeParams["application_name"]; !set {
			pc.ConnConfig.RuntimeParams["application_name"] = app
		}
	}
	return pc, nil
}

// newPool is a test hook.
var newPool = pgxpool.NewWithConfig

// Open connects to Postgres.
func Open(ctx context.Context, cfg datascope.Config) (*DB, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := newPool(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("pgdb: pgxpool: %w", err)
	}
	return &DB{pool: pool}, nil
}

// IsReadOnlyViolation reports whether err is Postgres refusing a write in a
// read-only transaction.
func IsReadOnlyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "25006"
}

func init() {
	datascope.Register("postgres", func(ctx context.Context, cfg datascope.Config) (datascope.Database, error) {
		return Open(ctx, cfg)
	})
}
