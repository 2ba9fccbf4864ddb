// Package config defines the configuration model shared by the seisadapt
// binaries. A file holds up to four sections, each optional:
//
//	{
//	  "job":      "anss-export",
//	  "export":   { "preset": "anss", "attributes": { "datasource": "XX" } },
//	  "database": { "engine": "sqlite", "dsn": "css.db", "read_only": true },
//	  "waveform": { "root": "/data/db", "network": "XA" },
//	  "metrics":  { "backend": "prometheus", "pushgateway_url": "http://pgw:9091" }
//	}
//
// The same shape is accepted as YAML. JSON files may carry comments and
// trailing commas.
package config

import "encoding/json"

// Config is the top-level object decoded from a config file.
type Config struct {
	// Job names the run in metrics.
	Job string `json:"job" yaml:"job"`

	Export   Export   `json:"export" yaml:"export"`
	Database Database `json:"database" yaml:"database"`
	Waveform Waveform `json:"waveform" yaml:"waveform"`
	Metrics  Metrics  `json:"metrics" yaml:"metrics"`
}

// Export configures namespaced QuakeML export.
type Export struct {
	// Preset seeds the namespaces: "" (plain QuakeML) or "anss".
	Preset string `json:"preset" yaml:"preset"`

	// Default overrides the unprefixed document namespace.
	Default string `json:"default_namespace" yaml:"default_namespace"`

	// Namespaces binds prefixes to URIs on top of the preset.
	Namespaces map[string]string `json:"namespaces" yaml:"namespaces"`

	// Owners lists, per prefix, the attribute names the prefix owns.
	Owners map[string][]string `json:"owners" yaml:"owners"`

	// Attributes is the bag added to event and focalMechanism elements.
	Attributes map[string]string `json:"attributes" yaml:"attributes"`

	// Unmapped is "bare", "drop" or "strict".
	Unmapped string `json:"unmapped" yaml:"unmapped"`

	Pretty bool `json:"pretty" yaml:"pretty"`
}

// Database selects a datascope engine.
type Database struct {
	Engine   string  `json:"engine" yaml:"engine"`
	DSN      string  `json:"dsn" yaml:"dsn"`
	Table    string  `json:"table" yaml:"table"`
	ReadOnly bool    `json:"read_only" yaml:"read_only"`
	Options  Options `json:"options" yaml:"options"`
}

// Waveform configures sample file resolution.
type Waveform struct {
	// Root is prepended to relative wfdisc dir values.
	Root    string `json:"root" yaml:"root"`
	Network string `json:"network" yaml:"network"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "prometheus" or "datadog". Empty means none.
	Backend        string   `json:"backend" yaml:"backend"`
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string   `json:"namespace" yaml:"namespace"`
	Tags           []string `json:"tags" yaml:"tags"`
}

// Options is a small helper to fetch typed values from engine-specific maps
// without declaring a struct per engine. It performs only minimal coercion
// and returns the provided default when a key is absent or of an unexpected
// type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
