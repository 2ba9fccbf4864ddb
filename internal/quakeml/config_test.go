package quakeml

import (
	"errors"
	"strings"
	"testing"

	"seisadapt/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	opts, err := OptionsFromConfig(config.Export{
		Preset:     "anss",
		Namespaces: map[string]string{"usgs": "http://usgs.gov/xmlns/1.0"},
		Owners:     map[string][]string{"usgs": {"reviewstatus"}},
		Attributes: map[string]string{"datasource": "XX", "dataid": "999999", "reviewstatus": "reviewed"},
		Unmapped:   "strict",
	})
	if err != nil {
		t.Fatalf("OptionsFromConfig() error = %v", err)
	}
	if opts.Unmapped != UnmappedStrict {
		t.Fatalf("Unmapped = %v", opts.Unmapped)
	}
	out, err := Dumps(NewCatalog(Event{ResourceID: "smi:local/evt1"}), opts)
	if err != nil {
		t.Fatalf("Dumps() error = %v", err)
	}
	for _, want := range []string{`catalog:dataid="999999"`, `catalog:datasource="XX"`, `usgs:reviewstatus="reviewed"`, `xmlns:usgs="http://usgs.gov/xmlns/1.0"`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output lacks %s:\n%s", want, out)
		}
	}
}

func TestOptionsFromConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		e    config.Export
	}{
		{"unknown preset", config.Export{Preset: "usgs"}},
		{"bad policy", config.Export{Unmapped: "keep"}},
		{"unbound owner", config.Export{Owners: map[string][]string{"x": {"a"}}}},
		{"relative URI", config.Export{Namespaces: map[string]string{"x": "not a uri"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := OptionsFromConfig(tt.e); !errors.Is(err, ErrConfiguration) {
				t.Fatalf("OptionsFromConfig() error = %v, want ErrConfiguration", err)
			}
		})
	}
}
