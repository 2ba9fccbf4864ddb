// Command css2sql copies CSS3.0 flat-file tables into a SQL database so the
// SQL datascope engines can serve them.
//
//	css2sql --src /data/db/land --engine sqlite --dsn /data/db/land.db
//	css2sql --src /data/db/land --tables wfdisc,site --engine postgres \
//	    --dsn postgres://seis@localhost/land --batch 2000 --dedupe
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"seisadapt/internal/config"
	"seisadapt/internal/cssfile"
	"seisadapt/internal/datascope"
	"seisadapt/internal/datascope/sqlview"
	"seisadapt/internal/metrics"
	"seisadapt/internal/metrics/setup"
	"seisadapt/internal/schema"

	_ "seisadapt/internal/datascope/all"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "css2sql: %v\n", err)
		os.Exit(1)
	}
}

// sqlDB is a datascope handle backed by a SQL engine.
type sqlDB interface {
	datascope.Database
	Conn() sqlview.Conn
	Dialect() sqlview.Dialect
}

func run(ctx context.Context, args []string, stdout io.Writer, getenv func(string) string) error {
	var (
		cfgPath string
		src     string
		tables  []string
		engine  string
		dsn     string
		batch   int
		dedupe  bool
		create  bool
		verbose bool
	)
	fs := pflag.NewFlagSet("css2sql", pflag.ContinueOnError)
	fs.StringVar(&cfgPath, "config", "", "config file (.json, .jsonc, .yaml)")
	fs.StringVar(&src, "src", "", "flat-file database path prefix")
	fs.StringSliceVar(&tables, "tables", nil, "tables to copy (default: every CSS3.0 table present)")
	fs.StringVar(&engine, "engine", "", "target SQL engine (sqlite, mysql, mssql, postgres)")
	fs.StringVar(&dsn, "dsn", "", "target DSN")
	fs.IntVar(&batch, "batch", 500, "rows per insert batch")
	fs.BoolVar(&dedupe, "dedupe", false, "skip lines identical to an earlier line")
	fs.BoolVar(&create, "create", true, "create missing tables")
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg config.Config
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	config.ApplyEnv(&cfg, getenv)
	if cfg.Job == "" {
		cfg.Job = "css2sql"
	}
	if engine != "" {
		cfg.Database.Engine = engine
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errors.New("configuration is invalid")
	}
	if src == "" || cfg.Database.Engine == "" {
		return errors.New("--src, --engine and --dsn are required")
	}
	if len(tables) == 0 {
		tables = present(src)
	}
	if len(tables) == 0 {
		return fmt.Errorf("no CSS3.0 tables found at %s", src)
	}

	if verbose {
		log.Printf("css2sql: src=%s engine=%s tables=%v", src, cfg.Database.Engine, tables)
	}

	flush, err := setup.Install(cfg.Metrics, cfg.Job)
	if err != nil {
		log.Printf("metrics: %v; using nop", err)
	}
	defer flush()

	h, err := datascope.Open(ctx, datascope.Config{
		Engine:  cfg.Database.Engine,
		DSN:     cfg.Database.DSN,
		Options: cfg.Database.Options,
	})
	if err != nil {
		return err
	}
	defer h.Close()
	db, ok := h.(sqlDB)
	if !ok {
		return fmt.Errorf("engine %s is not a SQL engine", cfg.Database.Engine)
	}

	opt := config.Options{"dedupe": dedupe}
	for _, name := range tables {
		t, ok := schema.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown CSS3.0 table %q", name)
		}
		began := time.Now()
		n, err := copyTable(ctx, db, t, src, opt, batch, create)
		metrics.RecordStep(cfg.Job, "copy_"+name, err, time.Since(began))
		if err != nil {
			return err
		}
		metrics.RecordRow(cfg.Job, name, n)
		fmt.Fprintf(stdout, "%s: %d rows\n", name, n)
	}
	return nil
}

// copyTable streams one flat file into the target table. Rows that fail
// to parse are logged and skipped.
func copyTable(ctx context.Context, db sqlDB, t schema.Table, src string, opt config.Options, batch int, create bool) (int64, error) {
	if create {
		if err := sqlview.EnsureTable(ctx, db.Conn(), db.Dialect(), t); err != nil {
			return 0, err
		}
	}
	f, err := os.Open(cssfile.Path(src, t.Name))
	if err != nil {
		return 0, err
	}

	columns := t.FieldNames()
	rows := make(chan []any, batch)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		return cssfile.StreamRows(gctx, f, t, opt, rows, func(line int, err error) {
			log.Printf("css2sql: %s line %d skipped: %v", t.Name, line, err)
		})
	})
	var total int64
	g.Go(func() error {
		var err error
		total, err = cssfile.LoadBatches(gctx, t.Name, columns, rows, batch,
			func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
				if err := sqlview.Insert(ctx, db.Conn(), db.Dialect(), t.Name, cols, rows); err != nil {
					return 0, err
				}
				return int64(len(rows)), nil
			})
		return err
	})
	return total, g.Wait()
}

// present lists the CSS3.0 tables with a file at prefix.
func present(prefix string) []string {
	var out []string
	for _, name := range schema.Names() {
		if _, err := os.Stat(cssfile.Path(prefix, name)); err == nil {
			out = append(out, name)
		}
	}
	return out
}
