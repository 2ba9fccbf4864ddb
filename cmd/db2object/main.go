// Command db2object dumps the rows of a datascope table as text or JSON
// lines, either snapshotting each row or reading fields on demand. With
// --set it writes fields of one record through a lazy record.
//
//	db2object --engine sqlite --dsn css.db --table wfdisc --sta 'TOL.' --format json
//	db2object --engine sqlite --dsn css.db --table wfdisc --record 3 --set calib=0.5
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"seisadapt/internal/config"
	"seisadapt/internal/datascope"
	"seisadapt/internal/datascope/pgdb"
	"seisadapt/internal/metrics/setup"

	_ "seisadapt/internal/datascope/all"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "db2object: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	format string
	lazy   bool
	sta    string
	chn    string
	set    map[string]string
	record int
}

func run(ctx context.Context, args []string, stdout io.Writer, getenv func(string) string) error {
	var (
		cfgPath  string
		engine   string
		dsn      string
		table    string
		readOnly bool
		verbose  bool
		o        options
	)
	fs := pflag.NewFlagSet("db2object", pflag.ContinueOnError)
	fs.StringVar(&cfgPath, "config", "", "config file (.json, .jsonc, .yaml)")
	fs.StringVar(&engine, "engine", "", fmt.Sprintf("database engine %v", datascope.Engines()))
	fs.StringVar(&dsn, "dsn", "", "engine DSN")
	fs.StringVar(&table, "table", "", "table to dump")
	fs.BoolVar(&readOnly, "read-only", false, "open the database read-only")
	fs.StringVar(&o.format, "format", "text", "output format: text or json")
	fs.BoolVar(&o.lazy, "lazy", false, "read fields on demand instead of snapshotting rows")
	fs.StringVar(&o.sta, "sta", "", "station expression to subset")
	fs.StringVar(&o.chn, "chan", "", "channel expression to subset")
	fs.StringToStringVar(&o.set, "set", nil, "field=value to write through (requires --record)")
	fs.IntVar(&o.record, "record", -1, "record number for --set")
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
		cfg.Job = "db2object"
	}
	if engine != "" {
		cfg.Database.Engine = engine
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if table != "" {
		cfg.Database.Table = table
	}
	cfg.Database.ReadOnly = cfg.Database.ReadOnly || readOnly
	if err := report(config.Validate(cfg)); err != nil {
		return err
	}
	if cfg.Database.Engine == "" || cfg.Database.Table == "" {
		return errors.New("--engine, --dsn and --table are required")
	}
	if o.format != "text" && o.format != "json" {
		return fmt.Errorf("unknown format %q", o.format)
	}
	if len(o.set) > 0 && o.record < 0 {
		return errors.New("--set requires --record")
	}

	flush, err := setup.Install(cfg.Metrics, cfg.Job)
	if err != nil {
		log.Printf("metrics: %v; using nop", err)
	}
	defer flush()

	db, err := datascope.Open(ctx, datascope.Config{
		Engine:   cfg.Database.Engine,
		DSN:      cfg.Database.DSN,
		ReadOnly: cfg.Database.ReadOnly,
		Options:  cfg.Database.Options,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := db.Lookup(ctx, cfg.Database.Table)
	if err != nil {
		return err
	}
	if v, err = subset(ctx, v, o); err != nil {
		return err
	}
	if verbose {
		n, _ := v.Count(ctx)
		log.Printf("db2object: engine=%s table=%s records=%d lazy=%v", cfg.Database.Engine, v.Name(), n, o.lazy)
	}

	if len(o.set) > 0 {
		return setFields(ctx, stdout, v, o)
	}
	if o.lazy {
		return dumpLazy(ctx, stdout, v, o.format)
	}
	return dumpEager(ctx, stdout, v, o.format)
}

func subset(ctx context.Context, v datascope.View, o options) (datascope.View, error) {
	var err error
	if o.sta != "" {
		if v, err = v.Subset(ctx, datascope.Match{Field: "sta", Pattern: o.sta}); err != nil {
			return nil, err
		}
	}
	if o.chn != "" {
		if v, err = v.Subset(ctx, datascope.Match{Field: "chan", Pattern: o.chn}); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func dumpEager(ctx context.Context, w io.Writer, v datascope.View, format string) error {
	recs, err := datascope.Materialize(ctx, v)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if err := writeRecord(w, r, format); err != nil {
			return err
		}
	}
	return nil
}

// dumpLazy reads each field through the view as it is printed.
func dumpLazy(ctx context.Context, w io.Writer, v datascope.View, format string) error {
	list, err := datascope.NewLazyList(ctx, v)
	if err != nil {
		return err
	}
	fields := v.Fields()
	for _, lr := range list.All() {
		vals := make(map[string]any, len(fields))
		text := make([]string, 0, len(fields))
		for _, f := range fields {
			val, err := lr.Get(ctx, f)
			if err != nil {
				val = nil
			}
			vals[f] = val
			text = append(text, datascope.ValueString(val))
		}
		if format == "json" {
			if err := json.NewEncoder(w).Encode(vals); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, strings.Join(text, " ")); err != nil {
			return err
		}
	}
	return nil
}

func setFields(ctx context.Context, w io.Writer, v datascope.View, o options) error {
	lr, err := datascope.NewLazyRecord(ctx, datascope.Pointer{View: v, Record: o.record})
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(o.set))
	for k := range o.set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, field := range keys {
		if err := lr.Set(ctx, field, parseValue(o.set[field])); err != nil {
			if pgdb.IsReadOnlyViolation(err) {
				log.Printf("db2object: database refused the write; open without --read-only to modify it")
			}
			return err
		}
	}
	r, err := lr.Snapshot(ctx)
	if err != nil {
		return err
	}
	return writeRecord(w, r, o.format)
}

func writeRecord(w io.Writer, r *datascope.Record, format string) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(r.Map())
	}
	_, err := fmt.Fprintln(w, r.String())
	return err
}

// parseValue turns a flag value into the narrowest of int64, float64 or
// string.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func report(issues []config.Issue) error {
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errors.New("configuration is invalid")
	}
	return nil
}
