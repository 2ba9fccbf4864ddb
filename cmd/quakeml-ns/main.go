// Command quakeml-ns exports a JSON event catalog as QuakeML with extra
// namespaced attributes on every event and focalMechanism element.
//
//	quakeml-ns --catalog events.json --preset anss \
//	    --attr datasource=XX --attr dataid=999999 --out events.xml
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"os"

	"seisadapt/internal/config"
	"seisadapt/internal/metrics"
	"seisadapt/internal/metrics/setup"
	"seisadapt/internal/quakeml"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "quakeml-ns: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, getenv func(string) string) error {
	var (
		cfgPath      string
		catalogPath  string
		outPath      string
		preset       string
		attrs        map[string]string
		pretty       bool
		strict       bool
		dropUnmapped bool
		validateOnly bool
		verbose      bool
	)
	fs := pflag.NewFlagSet("quakeml-ns", pflag.ContinueOnError)
	fs.StringVar(&cfgPath, "config", "", "config file (.json, .jsonc, .yaml)")
	fs.StringVar(&catalogPath, "catalog", "-", "catalog JSON path, - for stdin")
	fs.StringVarP(&outPath, "out", "o", "-", "output path, - for stdout")
	fs.StringVar(&preset, "preset", "", "namespace preset (anss); overrides the config")
	fs.StringToStringVar(&attrs, "attr", nil, "attribute to add, name=value (repeatable)")
	fs.BoolVar(&pretty, "pretty", false, "indent the output")
	fs.BoolVar(&strict, "strict", false, "fail on attributes no prefix owns")
	fs.BoolVar(&dropUnmapped, "drop-unmapped", false, "omit attributes no prefix owns")
	fs.BoolVar(&validateOnly, "validate", false, "validate the configuration and exit")
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strict && dropUnmapped {
		return errors.New("--strict and --drop-unmapped are mutually exclusive")
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
		cfg.Job = "quakeml-ns"
	}
	if preset != "" {
		cfg.Export.Preset = preset
	}
	if len(attrs) > 0 {
		if cfg.Export.Attributes == nil {
			cfg.Export.Attributes = map[string]string{}
		}
		maps.Copy(cfg.Export.Attributes, attrs)
	}
	switch {
	case strict:
		cfg.Export.Unmapped = "strict"
	case dropUnmapped:
		cfg.Export.Unmapped = "drop"
	}
	cfg.Export.Pretty = cfg.Export.Pretty || pretty

	if err := report(config.Validate(cfg)); err != nil {
		return err
	}
	opts, err := quakeml.OptionsFromConfig(cfg.Export)
	if err != nil {
		return err
	}
	if validateOnly {
		log.Printf("quakeml-ns: configuration is valid")
		return nil
	}

	flush, err := setup.Install(cfg.Metrics, cfg.Job)
	if err != nil {
		log.Printf("metrics: %v; using nop", err)
	}
	defer flush()

	in := stdin
	if catalogPath != "-" {
		f, err := os.Open(catalogPath)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		in = f
	}
	cat, err := quakeml.ReadCatalogJSON(in)
	if err != nil {
		return err
	}
	metrics.RecordRow(cfg.Job, "events", int64(len(cat.Events)))

	if outPath == "-" {
		err = quakeml.Write(stdout, cat, opts)
	} else {
		err = quakeml.WriteFile(outPath, cat, opts)
	}
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("quakeml-ns: wrote events=%d attributes=%d unmapped=%s out=%s", len(cat.Events), len(opts.Attributes), opts.Unmapped, outPath)
	}
	return nil
}

// report prints issues to stderr and fails when any is an error.
func report(issues []config.Issue) error {
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errors.New("configuration is invalid")
	}
	return nil
}
