package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// -----------------------------------------------------------------------------
// Config decoding tests
// -----------------------------------------------------------------------------

const jsoncConfig = `{
  // comments and trailing commas are allowed
  "job": "anss-export",
  "export": {
    "preset": "anss",
    "attributes": { "datasource": "XX", "dataid": "999999", },
    "unmapped": "strict",
    "pretty": true
  },
  "database": {
    "engine": "sqlite",
    "dsn": "css.db",
    "read_only": true,
    "options": { "max_open_conns": 4 }
  },
  "waveform": { "root": "/data/db", "network": "XA" },
  "metrics": { "backend": "prometheus", "pushgateway_url": "http://pgw:9091" }
}`

const yamlConfig = `
job: anss-export
export:
  preset: anss
  attributes:
    datasource: XX
    dataid: "999999"
  unmapped: strict
  pretty: true
database:
  engine: sqlite
  dsn: css.db
  read_only: true
  options:
    max_open_conns: 4
waveform:
  root: /data/db
  network: XA
metrics:
  backend: prometheus
  pushgateway_url: http://pgw:9091
`

func TestParse_JSONCAndYAMLAgree(t *testing.T) {
	t.Parallel()

	fromJSON, err := Parse([]byte(jsoncConfig), ".json")
	if err != nil {
		t.Fatalf("Parse(json) error = %v", err)
	}
	fromYAML, err := Parse([]byte(yamlConfig), ".yaml")
	if err != nil {
		t.Fatalf("Parse(yaml) error = %v", err)
	}

	// Numbers differ in dynamic type (float64 vs int); compare through Int.
	if a, b := fromJSON.Database.Options.Int("max_open_conns", 0), fromYAML.Database.Options.Int("max_open_conns", 0); a != 4 || b != 4 {
		t.Fatalf("max_open_conns json=%d yaml=%d, want 4", a, b)
	}
	fromJSON.Database.Options, fromYAML.Database.Options = nil, nil
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("json and yaml disagree (-json +yaml):\n%s", diff)
	}

	want := Export{
		Preset:     "anss",
		Attributes: map[string]string{"datasource": "XX", "dataid": "999999"},
		Unmapped:   "strict",
		Pretty:     true,
	}
	if diff := cmp.Diff(want, fromJSON.Export); diff != "" {
		t.Fatalf("export mismatch (-want +got):\n%s", diff)
	}
	if !fromJSON.Database.ReadOnly || fromJSON.Waveform.Network != "XA" {
		t.Fatalf("decoded = %+v", fromJSON)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte(`{"databse": {}}`), ".json"); err == nil {
		t.Fatal("Parse(json) with misspelled key: error = nil")
	}
	if _, err := Parse([]byte("databse: {}\n"), ".yml"); err == nil {
		t.Fatal("Parse(yaml) with misspelled key: error = nil")
	}
	if cfg, err := Parse(nil, ".yaml"); err != nil || cfg.Job != "" {
		t.Fatalf("Parse(empty yaml) = %+v, %v", cfg, err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := filepath.Join(dir, "seis.yaml")
	if err := os.WriteFile(path, []byte(yamlConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Job != "anss-export" {
		t.Fatalf("Job = %q", cfg.Job)
	}

	_, err = Load(filepath.Join(dir, "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "missing.json") {
		t.Fatalf("Load(missing) error = %v, want path in message", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"SEIS_DB_ENGINE":     "postgres",
		"SEIS_DB_DSN":        "postgres://db/css",
		"SEIS_WAVEFORM_ROOT": " /srv/wf ",
		"METRICS_BACKEND":    "datadog",
		"DD_AGENT_ADDR":      "127.0.0.1:8125",
	}
	cfg := Config{Database: Database{DSN: "file.db"}}
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	if cfg.Database.Engine != "postgres" {
		t.Fatalf("engine = %q", cfg.Database.Engine)
	}
	// Values already set are kept.
	if cfg.Database.DSN != "file.db" {
		t.Fatalf("dsn = %q, want file.db", cfg.Database.DSN)
	}
	if cfg.Waveform.Root != "/srv/wf" || cfg.Metrics.DatadogAddr != "127.0.0.1:8125" || cfg.Metrics.PushgatewayURL != "" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

// -----------------------------------------------------------------------------
// Options helper tests
// -----------------------------------------------------------------------------

func TestOptions_String_Bool_Int_DefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":  "hello",
		"b":  true,
		"i":  float64(42), // encoding/json decodes numbers as float64
		"iy": 7,           // yaml.v3 decodes integers as int
	}

	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("missing", "def"); got != "def" {
		t.Fatalf("String(missing) = %q, want def", got)
	}
	if got := o.String("b", "def"); got != "def" {
		t.Fatalf("String(b) = %q, want def for non-string", got)
	}
	if got := o.Bool("b", false); got != true {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Bool("missing", true); got != true {
		t.Fatalf("Bool(missing) = %v, want true", got)
	}
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("iy", 0); got != 7 {
		t.Fatalf("Int(iy) = %d, want 7", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Fatalf("Int(missing) = %d, want 7", got)
	}
}

func TestOptions_StringMap_StringSlice(t *testing.T) {
	t.Parallel()

	o := Options{
		"m":  map[string]any{"A": "a", "B": "b", "X": 1}, // non-string value "X" must be ignored
		"s1": []any{"alpha", "beta", 3},
		"s2": []string{"gamma", "delta"},
	}

	if sm := o.StringMap("m"); !reflect.DeepEqual(sm, map[string]string{"A": "a", "B": "b"}) {
		t.Fatalf("StringMap(m) = %#v, want {A:a B:b}", sm)
	}
	if sm := o.StringMap("missing"); sm == nil || len(sm) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", sm)
	}
	if ss := o.StringSlice("s1"); !reflect.DeepEqual(ss, []string{"alpha", "beta"}) {
		t.Fatalf("StringSlice(s1) = %#v, want [alpha beta]", ss)
	}
	if ss := o.StringSlice("s2"); !reflect.DeepEqual(ss, []string{"gamma", "delta"}) {
		t.Fatalf("StringSlice(s2) = %#v, want [gamma delta]", ss)
	}
	if got := o.StringSlice("missing"); got != nil {
		t.Fatalf("StringSlice(missing) = %#v, want nil", got)
	}
}

func TestOptions_UnmarshalJSON_NullYieldsEmptyMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"options": null}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after null unmarshal = %#v, want non-nil empty map", w.Opts)
	}

	if err := json.Unmarshal([]byte(`{"options": {"dsn_param": "x"}}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts.String("dsn_param", "") != "x" {
		t.Fatalf("Opts = %#v", w.Opts)
	}
}
