// Command wfread reads waveform descriptor rows into traces and prints a
// summary of each trace.
//
//	wfread --engine sqlite --dsn /data/db/land.db --root /data/db \
//	    --sta TOL0 --chan 'LH.' --start 2008-06-13T00:00:00Z --end 2008-06-14T00:00:00Z
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"seisadapt/internal/config"
	"seisadapt/internal/datascope"
	"seisadapt/internal/metrics/setup"
	"seisadapt/internal/waveform"

	_ "seisadapt/internal/datascope/all"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "wfread: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, getenv func(string) string) error {
	var (
		cfgPath string
		engine  string
		dsn     string
		table   string
		root    string
		network string
		start   string
		end     string
		records bool
		verbose bool
		q       waveform.Query
	)
	fs := pflag.NewFlagSet("wfread", pflag.ContinueOnError)
	fs.StringVar(&cfgPath, "config", "", "config file (.json, .jsonc, .yaml)")
	fs.StringVar(&engine, "engine", "", fmt.Sprintf("database engine %v", datascope.Engines()))
	fs.StringVar(&dsn, "dsn", "", "engine DSN")
	fs.StringVar(&table, "table", "", "descriptor table (default wfdisc)")
	fs.StringVar(&root, "root", "", "directory relative dir values resolve against")
	fs.StringVar(&network, "network", "", "network code for trace ids")
	fs.StringVar(&q.Station, "sta", "", "station expression")
	fs.StringVar(&q.Channel, "chan", "", "channel expression")
	fs.StringVar(&start, "start", "", "window start, RFC 3339 or epoch seconds")
	fs.StringVar(&end, "end", "", "window end, RFC 3339 or epoch seconds")
	fs.BoolVar(&records, "records", false, "print the source record of each trace")
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if q.Start, err = parseTime(start); err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	if q.End, err = parseTime(end); err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	var cfg config.Config
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	config.ApplyEnv(&cfg, getenv)
	if cfg.Job == "" {
		cfg.Job = "wfread"
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
	if root != "" {
		cfg.Waveform.Root = root
	}
	if network != "" {
		cfg.Waveform.Network = network
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errors.New("configuration is invalid")
	}
	if cfg.Database.Engine == "" {
		return errors.New("--engine and --dsn are required")
	}

	flush, err := setup.Install(cfg.Metrics, cfg.Job)
	if err != nil {
		log.Printf("metrics: %v; using nop", err)
	}
	defer flush()

	began := time.Now()
	st, err := waveform.ReadDatabase(ctx,
		datascope.Config{Engine: cfg.Database.Engine, DSN: cfg.Database.DSN, Options: cfg.Database.Options},
		q,
		waveform.Options{Root: cfg.Waveform.Root, Network: cfg.Waveform.Network, Table: cfg.Database.Table},
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, st)
	if records {
		for _, tr := range st {
			fmt.Fprintln(stdout, tr.Record.Key())
		}
	}
	if verbose {
		log.Printf("wfread: traces=%d in %s", len(st), time.Since(began).Truncate(time.Millisecond))
	}
	return nil
}

// parseTime accepts RFC 3339 or epoch seconds. Empty is the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor epoch seconds", s)
	}
	return waveform.FromEpoch(f), nil
}
