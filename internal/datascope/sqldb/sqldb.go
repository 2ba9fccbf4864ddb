// Package sqldb opens datascope databases through database/sql. It
// registers three engines:
//
//   - "sqlite" (modernc.org/sqlite, pure Go)
//   - "mysql"  (github.com/go-sql-driver/mysql)
//   - "mssql"  (github.com/microsoft/go-mssqldb)
//
// Read-only handles are enforced by the engine where it offers a connection
// setting for it, so a rejected write surfaces the engine's own error.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"seisadapt/internal/datascope"
	"seisadapt/internal/datascope/sqlview"

	"github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	_ "modernc.org/sqlite"
)

// DB is a database/sql backed datascope.Database.
type DB struct {
	db *sql.DB
	d  sqlview.Dialect
}

var _ datascope.Database = (*DB)(nil)

// conn adapts *sql.DB to sqlview.Conn.
type conn struct{ db *sql.DB }

func (c conn) Query(ctx context.Context, q string, args ...any) (sqlview.Rows, error) {
	return c.db.QueryContext(ctx, q, args...)
}

func (c conn) Exec(ctx context.Context, q string, args ...any) error {
	_, err := c.db.ExecContext(ctx, q, args...)
	return err
}

// Conn exposes the handle to sqlview helpers (EnsureTable, Insert).
func (d *DB) Conn() sqlview.Conn { return conn{d.db} }

// Dialect returns the SQL dialect of the handle.
func (d *DB) Dialect() sqlview.Dialect { return d.d }

func (d *DB) Lookup(ctx context.Context, table string) (datascope.View, error) {
	return sqlview.Lookup(ctx, conn{d.db}, d.d, table)
}

func (d *DB) Close() error { return d.db.Close() }

// driverFor returns the database/sql driver name, dialect and effective DSN
// for an engine kind.
func driverFor(cfg datascope.Config) (driver string, d sqlview.Dialect, dsn string, err error) {
	switch cfg.Engine {
	case "sqlite":
		dsn, err = sqliteDSN(cfg.DSN, cfg.ReadOnly)
		return "sqlite", sqlview.SQLite, dsn, err
	case "mysql":
		dsn, err = mysqlDSN(cfg.DSN, cfg.ReadOnly)
		return "mysql", sqlview.MySQL, dsn, err
	case "mssql":
		if _, err := msdsn.Parse(cfg.DSN); err != nil {
			return "", sqlview.Dialect{}, "", fmt.Errorf("sqldb: mssql dsn: %w", err)
		}
		if cfg.ReadOnly {
			log.Printf("sqldb: mssql read-only is not enforced by the driver, relying on login permissions")
		}
		return "sqlserver", sqlview.MSSQL, cfg.DSN, nil
	}
	return "", sqlview.Dialect{}, "", fmt.Errorf("sqldb: unsupported engine %q", cfg.Engine)
}

// sqliteDSN turns a path or file: URI into a modernc DSN. Read-only handles
// set query_only so writes fail inside SQLite.
func sqliteDSN(dsn string, readOnly bool) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("sqldb: sqlite DSN must not be empty")
	}
	if !readOnly {
		return dsn, nil
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=query_only(1)", nil
}

// mysqlDSN sets transaction_read_only on every session of a read-only handle.
func mysqlDSN(dsn string, readOnly bool) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("sqldb: mysql dsn: %w", err)
	}
	if readOnly {
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params["transaction_read_only"] = "1"
	}
	return cfg.FormatDSN(), nil
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// sqlOpen is a test hook.
var sqlOpen = sql.Open

// Open opens a handle for cfg.Engine.
func Open(ctx context.Context, cfg datascope.Config) (*DB, error) {
	driver, d, dsn, err := driverFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: %s: open: %w", cfg.Engine, err)
	}
	if driver == "sqlite" && isMemory(dsn) {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if n := cfg.Options.Int("max_open_conns", 0); n > 0 {
		db.SetMaxOpenConns(n)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqldb: %s: ping: %w", cfg.Engine, err)
	}
	return &DB{db: db, d: d}, nil
}

func init() {
	for _, kind := range []string{"sqlite", "mysql", "mssql"} {
		datascope.Register(kind, func(ctx context.Context, cfg datascope.Config) (datascope.Database, error) {
			return Open(ctx, cfg)
		})
	}
}
