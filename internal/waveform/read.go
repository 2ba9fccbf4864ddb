package waveform

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"seisadapt/internal/datascope"
	"seisadapt/internal/metrics"
	"seisadapt/internal/schema"
)

// DefaultTable is the descriptor table ReadDatabase looks up.
const DefaultTable = "wfdisc"

// ReadView reads one trace per row of v that matches q. v is not closed.
// Traces follow the row order of the filtered view.
func ReadView(ctx context.Context, v datascope.View, q Query, opts Options) (Stream, error) {
	start := time.Now()
	st, err := readView(ctx, v, q, opts)
	metrics.RecordStep("waveform", "read", err, time.Since(start))
	if err == nil {
		metrics.RecordRow("waveform", "traces", int64(len(st)))
	}
	return st, err
}

func readView(ctx context.Context, v datascope.View, q Query, opts Options) (Stream, error) {
	windowed, err := q.window()
	if err != nil {
		return nil, err
	}

	var preds []datascope.Predicate
	if q.Station != "" {
		preds = append(preds, datascope.Match{Field: "sta", Pattern: q.Station})
	}
	if q.Channel != "" {
		preds = append(preds, datascope.Match{Field: "chan", Pattern: q.Channel})
	}
	var win *[2]float64
	if windowed {
		win = &[2]float64{Epoch(q.Start), Epoch(q.End)}
		preds = append(preds, datascope.Overlap{StartField: "time", EndField: "endtime", Start: win[0], End: win[1]})
	}
	for _, p := range preds {
		if v, err = v.Subset(ctx, p); err != nil {
			return nil, fmt.Errorf("waveform: subset %s: %w", p, err)
		}
	}

	n, err := v.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("waveform: count %s: %w", v.Name(), err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no %s rows match %v", ErrEmptyResult, v.Name(), preds)
	}

	recs, err := datascope.Materialize(ctx, v)
	if err != nil {
		return nil, err
	}
	st := make(Stream, 0, len(recs))
	for _, rec := range recs {
		tr, err := readTrace(rec, win, opts)
		if err != nil {
			return nil, err
		}
		st = append(st, tr)
	}
	return st, nil
}

// readTrace reads the samples of rec that fall inside win (or all of them
// when win is nil).
func readTrace(rec *datascope.Record, win *[2]float64, opts Options) (*Trace, error) {
	t0, okStart := rec.Float("time")
	t1, okEnd := rec.Float("endtime")
	rate, okRate := rec.Float("samprate")
	if !okStart || !okEnd || !okRate || rate <= 0 {
		return nil, fmt.Errorf("waveform: %s: incomplete timing fields", rec.Key())
	}
	nsamp, ok := rec.Int("nsamp")
	if !ok || nsamp < 0 {
		// Null nsamp: count the samples from the row's time span.
		if t1 == schema.NullEndTime || t1 < t0 {
			return nil, fmt.Errorf("waveform: %s: null nsamp and no endtime to derive it from", rec.Key())
		}
		nsamp = int64(math.Round((t1-t0)*rate)) + 1
	}

	ws, we := t0, t1
	if win != nil {
		ws, we = math.Max(t0, win[0]), math.Min(t1, win[1])
	}
	i0 := max(int64(math.Round((ws-t0)*rate)), 0)
	i1 := min(int64(math.Round((we-t0)*rate)), nsamp-1)
	npts := max(i1-i0+1, 0)

	datatype := rec.StringField("datatype")
	c, err := lookupCodec(datatype)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Key(), err)
	}
	path := samplePath(opts.Root, rec.StringField("dir"), rec.StringField("dfile"))
	foff, _ := rec.Int("foff")

	data, err := readSamples(path, foff+i0*int64(c.size), int(npts), datatype)
	if err != nil {
		return nil, err
	}

	calib, _ := rec.Float("calib")
	calper, _ := rec.Float("calper")
	return &Trace{
		Stats: Stats{
			Network:    opts.Network,
			Station:    rec.StringField("sta"),
			Channel:    rec.StringField("chan"),
			StartTime:  FromEpoch(t0 + float64(i0)/rate),
			SampleRate: rate,
			Npts:       len(data),
			Calib:      calib,
			Calper:     calper,
		},
		Data:   data,
		Path:   path,
		Record: rec,
	}, nil
}

func samplePath(root, dir, dfile string) string {
	if filepath.IsAbs(dir) || root == "" {
		return filepath.Join(dir, dfile)
	}
	return filepath.Join(root, dir, dfile)
}

// ReadDatabase opens cfg read-only, reads opts.Table (wfdisc by default)
// and closes the handle before returning. For the flatfile engine an empty
// opts.Root defaults to the database directory.
func ReadDatabase(ctx context.Context, cfg datascope.Config, q Query, opts Options) (Stream, error) {
	if _, err := q.window(); err != nil {
		return nil, err
	}
	table := opts.Table
	if table == "" {
		table = DefaultTable
	}
	if opts.Root == "" && cfg.Engine == "flatfile" {
		// dir is relative to the descriptor file.
		opts.Root = filepath.Dir(cfg.DSN)
	}
	cfg.ReadOnly = true
	db, err := datascope.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("waveform: open %s database: %w", cfg.Engine, err)
	}
	defer db.Close()

	v, err := db.Lookup(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("waveform: lookup %s: %w", table, err)
	}
	return ReadView(ctx, v, q, opts)
}
