package waveform

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"seisadapt/internal/cssfile"
	"seisadapt/internal/datascope"
	_ "seisadapt/internal/datascope/flatfile"
	"seisadapt/internal/datascope/memdb"
	"seisadapt/internal/schema"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var wfFields = []string{"sta", "chan", "time", "endtime", "nsamp", "samprate", "calib", "calper", "datatype", "dir", "dfile", "foff"}

func ramp(from float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)
	}
	return out
}

func writeSamples(tb testing.TB, path, datatype string, data []float64, header int) {
	tb.Helper()
	b, err := Encode(datatype, data)
	if err != nil {
		tb.Fatalf("Encode(%s): %v", datatype, err)
	}
	b = append(make([]byte, header), b...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		tb.Fatal(err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".zst":
		w, err := zstd.NewWriter(f)
		if err != nil {
			tb.Fatal(err)
		}
		if _, err := w.Write(b); err != nil {
			tb.Fatal(err)
		}
		if err := w.Close(); err != nil {
			tb.Fatal(err)
		}
	case ".lz4":
		w := lz4.NewWriter(f)
		if _, err := w.Write(b); err != nil {
			tb.Fatal(err)
		}
		if err := w.Close(); err != nil {
			tb.Fatal(err)
		}
	default:
		if _, err := f.Write(b); err != nil {
			tb.Fatal(err)
		}
	}
}

func row(sta, chn string, t0, t1 float64, nsamp int64, rate float64, datatype, dfile string, foff int64) map[string]any {
	return map[string]any{
		"sta": sta, "chan": chn, "time": t0, "endtime": t1, "nsamp": nsamp, "samprate": rate,
		"calib": 1.0, "calper": 20.0, "datatype": datatype, "dir": "wf", "dfile": dfile, "foff": foff,
	}
}

// fixture writes three sample files under a temp root: a plain s4 file, a
// zstd i4 file and an lz4 f8 file with an 8 byte header.
func fixture(tb testing.TB) (string, memdb.Table) {
	tb.Helper()
	root := tb.TempDir()
	writeSamples(tb, filepath.Join(root, "wf", "tol0.lhz"), "s4", ramp(0, 10), 0)
	writeSamples(tb, filepath.Join(root, "wf", "tol0.lhe.zst"), "i4", ramp(100, 10), 0)
	writeSamples(tb, filepath.Join(root, "wf", "hood.bhz.lz4"), "f8", []float64{0.5, 1.5, 2.5, 3.5}, 8)

	return root, memdb.Table{
		Name:       "wfdisc",
		PrimaryKey: []string{"sta", "chan", "time::endtime"},
		Fields:     wfFields,
		Rows: []map[string]any{
			row("TOL0", "LHZ", 1000, 1009, 10, 1, "s4", "tol0.lhz", 0),
			row("TOL0", "LHE", 1000, 1009, 10, 1, "i4", "tol0.lhe.zst", 0),
			row("HOOD", "BHZ", 1000, 1000.75, 4, 4, "f8", "hood.bhz.lz4", 8),
		},
	}
}

func lookup(tb testing.TB, t memdb.Table) datascope.View {
	tb.Helper()
	db := memdb.New(t).Handle(true)
	tb.Cleanup(func() { _ = db.Close() })
	v, err := db.Lookup(context.Background(), t.Name)
	if err != nil {
		tb.Fatal(err)
	}
	return v
}

func epoch(sec float64) time.Time { return FromEpoch(sec) }

func TestReadViewWholeRows(t *testing.T) {
	t.Parallel()
	root, tbl := fixture(t)

	st, err := ReadView(context.Background(), lookup(t, tbl), Query{}, Options{Root: root})
	if err != nil {
		t.Fatalf("ReadView() error = %v", err)
	}
	if len(st) != 3 {
		t.Fatalf("len = %d, want 3", len(st))
	}
	// Row order, not sorted by station.
	want := [][]float64{ramp(0, 10), ramp(100, 10), {0.5, 1.5, 2.5, 3.5}}
	for i, tr := range st {
		if diff := cmp.Diff(want[i], tr.Data); diff != "" {
			t.Errorf("trace %d data mismatch (-want +got):\n%s", i, diff)
		}
		if tr.Stats.Npts != len(want[i]) {
			t.Errorf("trace %d Npts = %d", i, tr.Stats.Npts)
		}
		if !tr.Stats.StartTime.Equal(epoch(1000)) {
			t.Errorf("trace %d StartTime = %v", i, tr.Stats.StartTime)
		}
	}
	if got := st[2].Record.StringField("dfile"); got != "hood.bhz.lz4" {
		t.Fatalf("Record.dfile = %q", got)
	}
	if got := st[2].Stats.EndTime(); !got.Equal(epoch(1000.75)) {
		t.Fatalf("EndTime() = %v", got)
	}
	if st[0].Stats.Calper != 20 {
		t.Fatalf("Calper = %v", st[0].Stats.Calper)
	}
}

func TestReadViewWindow(t *testing.T) {
	t.Parallel()
	root, tbl := fixture(t)

	tests := []struct {
		name      string
		q         Query
		wantData  [][]float64
		wantStart float64
	}{
		{
			name:      "inside row span",
			q:         Query{Station: "TOL0", Start: epoch(1003), End: epoch(1006)},
			wantData:  [][]float64{{3, 4, 5, 6}, {103, 104, 105, 106}},
			wantStart: 1003,
		},
		{
			name:      "window starts before row",
			q:         Query{Channel: "LH.", Start: epoch(990), End: epoch(1002)},
			wantData:  [][]float64{{0, 1, 2}, {100, 101, 102}},
			wantStart: 1000,
		},
		{
			name:      "pattern is anchored",
			q:         Query{Channel: "BH", Start: epoch(990), End: epoch(1002)},
			wantData:  nil,
			wantStart: 0,
		},
		{
			name:      "whole short row",
			q:         Query{Station: "HO.*", Start: epoch(990), End: epoch(1002)},
			wantData:  [][]float64{{0.5, 1.5, 2.5, 3.5}},
			wantStart: 1000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st, err := ReadView(context.Background(), lookup(t, tbl), tt.q, Options{Root: root})
			if tt.wantData == nil {
				if !errors.Is(err, ErrEmptyResult) {
					t.Fatalf("ReadView() error = %v, want ErrEmptyResult", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadView() error = %v", err)
			}
			var got [][]float64
			for _, tr := range st {
				got = append(got, tr.Data)
				if !tr.Stats.StartTime.Equal(epoch(tt.wantStart)) {
					t.Errorf("%s StartTime = %v, want %v", tr.Stats.ID(), tr.Stats.StartTime, epoch(tt.wantStart))
				}
			}
			if diff := cmp.Diff(tt.wantData, got); diff != "" {
				t.Fatalf("data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadViewErrors(t *testing.T) {
	t.Parallel()
	root, tbl := fixture(t)

	tests := []struct {
		name string
		q    Query
		want error
	}{
		{name: "start only", q: Query{Start: epoch(1000)}, want: ErrParameter},
		{name: "end only", q: Query{End: epoch(1000)}, want: ErrParameter},
		{name: "no station", q: Query{Station: "XXX"}, want: ErrEmptyResult},
		{name: "start after end", q: Query{Start: epoch(2000), End: epoch(1500)}, want: ErrEmptyResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadView(context.Background(), lookup(t, tbl), tt.q, Options{Root: root})
			if !errors.Is(err, tt.want) {
				t.Fatalf("ReadView() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadViewFileErrors(t *testing.T) {
	t.Parallel()
	root, tbl := fixture(t)

	missing := tbl
	missing.Rows = []map[string]any{row("GONE", "BHZ", 1000, 1009, 10, 1, "s4", "gone.bhz", 0)}
	_, err := ReadView(context.Background(), lookup(t, missing), Query{}, Options{Root: root})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file error = %v, want fs.ErrNotExist", err)
	}

	badType := tbl
	badType.Rows = []map[string]any{row("TOL0", "LHZ", 1000, 1009, 10, 1, "s3", "tol0.lhz", 0)}
	if _, err := ReadView(context.Background(), lookup(t, badType), Query{}, Options{Root: root}); err == nil {
		t.Fatal("unsupported datatype error = nil")
	}

	short := tbl
	short.Rows = []map[string]any{row("TOL0", "LHZ", 1000, 1019, 20, 1, "s4", "tol0.lhz", 0)}
	if _, err := ReadView(context.Background(), lookup(t, short), Query{}, Options{Root: root}); err == nil {
		t.Fatal("short file error = nil")
	}
}

func TestReadViewNullNsamp(t *testing.T) {
	t.Parallel()
	root, tbl := fixture(t)

	derived := tbl
	derived.Rows = []map[string]any{
		row("TOL0", "LHZ", 1000, 1009, -1, 1, "s4", "tol0.lhz", 0),
		row("HOOD", "BHZ", 1000, 1000.75, -1, 4, "f8", "hood.bhz.lz4", 8),
	}
	st, err := ReadView(context.Background(), lookup(t, derived), Query{}, Options{Root: root})
	if err != nil {
		t.Fatalf("ReadView() error = %v", err)
	}
	if diff := cmp.Diff(ramp(0, 10), st[0].Data); diff != "" {
		t.Errorf("TOL0 data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, 1.5, 2.5, 3.5}, st[1].Data); diff != "" {
		t.Errorf("HOOD data mismatch (-want +got):\n%s", diff)
	}

	open := tbl
	open.Rows = []map[string]any{row("TOL0", "LHZ", 1000, schema.NullEndTime, -1, 1, "s4", "tol0.lhz", 0)}
	_, err = ReadView(context.Background(), lookup(t, open), Query{}, Options{Root: root})
	if err == nil || !strings.Contains(err.Error(), "TOL0 LHZ") {
		t.Fatalf("ReadView() error = %v, want one naming the record", err)
	}
}

func TestStreamString(t *testing.T) {
	t.Parallel()
	root, tbl := fixture(t)

	st, err := ReadView(context.Background(), lookup(t, tbl), Query{Station: "TOL0", Start: epoch(1003), End: epoch(1006)}, Options{Root: root, Network: "XA"})
	if err != nil {
		t.Fatalf("ReadView() error = %v", err)
	}
	want := "2 Trace(s) in Stream:\n" +
		"XA.TOL0..LHZ | 1970-01-01T00:16:43.000000Z - 1970-01-01T00:16:46.000000Z | 1.0 Hz, 4 samples\n" +
		"XA.TOL0..LHE | 1970-01-01T00:16:43.000000Z - 1970-01-01T00:16:46.000000Z | 1.0 Hz, 4 samples"
	if got := st.String(); got != want {
		t.Fatalf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestReadDatabase(t *testing.T) {
	root, tbl := fixture(t)
	memdb.Publish("waveform-test", memdb.New(tbl))
	t.Cleanup(func() { memdb.Unpublish("waveform-test") })

	cfg := datascope.Config{Engine: "memdb", DSN: "waveform-test"}
	st, err := ReadDatabase(context.Background(), cfg, Query{Channel: "LHZ"}, Options{Root: root})
	if err != nil {
		t.Fatalf("ReadDatabase() error = %v", err)
	}
	if len(st) != 1 || st[0].Stats.Channel != "LHZ" {
		t.Fatalf("ReadDatabase() = %v", st)
	}

	// Parameters are checked before anything is opened.
	_, err = ReadDatabase(context.Background(), datascope.Config{Engine: "nope"}, Query{End: epoch(1)}, Options{})
	if !errors.Is(err, ErrParameter) {
		t.Fatalf("ReadDatabase(end only) error = %v, want ErrParameter", err)
	}
	if _, err := ReadDatabase(context.Background(), cfg, Query{}, Options{Table: "site"}); err == nil {
		t.Fatal("ReadDatabase(missing table) error = nil")
	}
}

func TestCodecs(t *testing.T) {
	t.Parallel()
	data := []float64{-2, 0, 3, 1200}
	for dt := range codecs {
		b, err := Encode(dt, data)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", dt, err)
		}
		c := codecs[dt]
		for i, want := range data {
			if got := c.decode(b[i*c.size:]); got != want {
				t.Errorf("%s sample %d = %v, want %v", dt, i, got, want)
			}
		}
	}
	// s4 is big-endian, i4 little-endian.
	s4, _ := Encode("s4", []float64{1})
	i4, _ := Encode("i4", []float64{1})
	if s4[3] != 1 || i4[0] != 1 {
		t.Fatalf("byte order: s4=%v i4=%v", s4, i4)
	}
	if _, err := Encode("zz", data); err == nil {
		t.Fatal("Encode(zz) error = nil")
	}
}

func TestReadDatabaseFlatFile(t *testing.T) {
	root, _ := fixture(t)
	wf, _ := schema.Lookup("wfdisc")
	prefix := filepath.Join(root, "land")
	f, err := os.Create(cssfile.Path(prefix, "wfdisc"))
	if err != nil {
		t.Fatal(err)
	}
	err = cssfile.WriteTable(f, wf, [][]any{{
		"TOL0", "LHZ", 1000.0, int64(1), int64(-1), int64(1970001), 1009.0, int64(10), 1.0, 1.0, 20.0,
		"-", "o", "s4", "-", "wf", "tol0.lhz", int64(0), int64(-1), 0.0,
	}})
	f.Close()
	if err != nil {
		t.Fatal(err)
	}

	cfg := datascope.Config{Engine: "flatfile", DSN: prefix}
	st, err := ReadDatabase(context.Background(), cfg, Query{Start: epoch(1002), End: epoch(1004)}, Options{})
	if err != nil {
		t.Fatalf("ReadDatabase() error = %v", err)
	}
	if len(st) != 1 {
		t.Fatalf("ReadDatabase() = %v", st)
	}
	if diff := cmp.Diff([]float64{2, 3, 4}, st[0].Data); diff != "" {
		t.Fatalf("Data mismatch (-want +got):\n%s", diff)
	}
}
