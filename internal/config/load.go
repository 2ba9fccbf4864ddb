package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load reads a config file. .yaml and .yml files are YAML; anything else is
// JSON with comments and trailing commas allowed. Unknown keys are errors.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data. ext selects the format the way Load does.
func Parse(data []byte, ext string) (Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse json: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv fills empty settings from the environment. It runs once at
// process start; flags applied afterwards win over both.
//
//	SEIS_DB_ENGINE      database.engine
//	SEIS_DB_DSN         database.dsn
//	SEIS_WAVEFORM_ROOT  waveform.root
//	METRICS_BACKEND     metrics.backend
//	PUSHGATEWAY_URL     metrics.pushgateway_url
//	DD_AGENT_ADDR       metrics.datadog_addr
func ApplyEnv(cfg *Config, getenv func(string) string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = strings.TrimSpace(getenv(key))
		}
	}
	fill(&cfg.Database.Engine, "SEIS_DB_ENGINE")
	fill(&cfg.Database.DSN, "SEIS_DB_DSN")
	fill(&cfg.Waveform.Root, "SEIS_WAVEFORM_ROOT")
	fill(&cfg.Metrics.Backend, "METRICS_BACKEND")
	fill(&cfg.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	fill(&cfg.Metrics.DatadogAddr, "DD_AGENT_ADDR")
}
