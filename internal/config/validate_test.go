package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	return Config{
		Job: "anss-export",
		Export: Export{
			Preset:     "anss",
			Attributes: map[string]string{"datasource": "XX"},
		},
		Database: Database{Engine: "sqlite", DSN: "css.db"},
		Metrics:  Metrics{Backend: "datadog", DatadogAddr: "127.0.0.1:8125"},
	}
}

func TestValidate_ValidMinimal(t *testing.T) {
	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
	if issues := Validate(Config{Job: "plain"}); len(issues) != 0 {
		t.Fatalf("expected no issues for plain export, got %+v", issues)
	}
}

func TestValidate_Findings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"missing job", func(c *Config) { c.Job = "" }, SeverityWarning, "job", "job is empty"},
		{"unknown preset", func(c *Config) { c.Export.Preset = "usgs" }, SeverityError, "export.preset", "unknown preset"},
		{"unknown unmapped policy", func(c *Config) { c.Export.Unmapped = "keep" }, SeverityError, "export.unmapped", "unknown unmapped policy"},
		{"empty URI", func(c *Config) { c.Export.Namespaces = map[string]string{"x": " "} }, SeverityError, "export.namespaces.x", "URI must not be empty"},
		{"owner without binding", func(c *Config) { c.Export.Owners = map[string][]string{"x": {"dataid"}} }, SeverityError, "export.owners.x", "not bound"},
		{
			"attribute owned twice",
			func(c *Config) {
				c.Export.Namespaces = map[string]string{"x": "urn:x", "y": "urn:y"}
				c.Export.Owners = map[string][]string{"x": {"dataid"}, "y": {"dataid"}}
			},
			SeverityError, "export.owners.y", "already owned by prefix \"x\"",
		},
		{"preset without attributes", func(c *Config) { c.Export.Attributes = nil }, SeverityWarning, "export.attributes", "no attributes"},
		{"dsn without engine", func(c *Config) { c.Database.Engine = "" }, SeverityError, "database.engine", "engine is empty"},
		{"unknown engine", func(c *Config) { c.Database.Engine = "oracle" }, SeverityWarning, "database.engine", "unknown engine"},
		{"engine without dsn", func(c *Config) { c.Database.DSN = "" }, SeverityError, "database.dsn", "must not be empty"},
		{"prometheus without url", func(c *Config) { c.Metrics = Metrics{Backend: "prometheus"} }, SeverityError, "metrics.pushgateway_url", "requires a pushgateway URL"},
		{"datadog without addr", func(c *Config) { c.Metrics.DatadogAddr = "" }, SeverityError, "metrics.datadog_addr", "DogStatsD"},
		{"unknown backend", func(c *Config) { c.Metrics.Backend = "statsd" }, SeverityError, "metrics.backend", "unknown metrics backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			issues := Validate(cfg)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
			if got, want := HasErrors(issues), tt.sev == SeverityError; got != want {
				t.Fatalf("HasErrors() = %v, want %v", got, want)
			}
		})
	}
}

func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "database.dsn", Message: "database.dsn must not be empty"}
	if got, want := iss.Error(), "error at database.dsn: database.dsn must not be empty"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
