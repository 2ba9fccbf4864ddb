package config

import (
	"fmt"
	"slices"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users
	// but need not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "metrics.pushgateway_url",
// "export.owners.catalog"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	return slices.ContainsFunc(issues, func(i Issue) bool { return i.Severity == SeverityError })
}

// Validate performs static checks over cfg. It does not mutate cfg.
// Namespace URIs and attribute names are checked again, fully, when an
// export is built.
func Validate(cfg Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics will be labeled with the binary's default job",
		})
	}
	issues = append(issues, validateExport(cfg.Export)...)
	issues = append(issues, validateDatabase(cfg.Database)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)

	return issues
}

// presetPrefixes lists the prefixes each preset binds.
var presetPrefixes = map[string][]string{
	"":     {"q"},
	"anss": {"q", "catalog"},
}

func validateExport(e Export) []Issue {
	var issues []Issue

	bound, ok := presetPrefixes[e.Preset]
	bound = slices.Clone(bound)
	if !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.preset",
			Message:  fmt.Sprintf("unknown preset %q; use \"anss\" or leave empty", e.Preset),
		})
	}
	switch e.Unmapped {
	case "", "bare", "drop", "strict":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.unmapped",
			Message:  fmt.Sprintf("unknown unmapped policy %q; use bare, drop or strict", e.Unmapped),
		})
	}

	for prefix, uri := range e.Namespaces {
		path := "export.namespaces." + prefix
		if strings.TrimSpace(prefix) == "" {
			issues = append(issues, Issue{Severity: SeverityError, Path: "export.namespaces", Message: "namespace prefix must not be empty"})
			continue
		}
		if strings.TrimSpace(uri) == "" {
			issues = append(issues, Issue{Severity: SeverityError, Path: path, Message: "namespace URI must not be empty"})
		}
		bound = append(bound, prefix)
	}

	owner := map[string]string{}
	for _, prefix := range sortedKeys(e.Owners) {
		path := "export.owners." + prefix
		if !slices.Contains(bound, prefix) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("prefix %q owns attributes but is not bound to a namespace", prefix),
			})
		}
		for _, name := range e.Owners[prefix] {
			if prev, dup := owner[name]; dup && prev != prefix {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path,
					Message:  fmt.Sprintf("attribute %q is already owned by prefix %q", name, prev),
				})
				continue
			}
			owner[name] = prefix
		}
	}

	if len(e.Attributes) == 0 && (len(e.Owners) > 0 || e.Preset != "") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "export.attributes",
			Message:  "namespaces are configured but no attributes are set; output equals plain QuakeML",
		})
	}
	return issues
}

var knownEngines = []string{"flatfile", "memdb", "mssql", "mysql", "postgres", "sqlite"}

func validateDatabase(d Database) []Issue {
	var issues []Issue

	if d.Engine == "" {
		if d.DSN != "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "database.engine",
				Message:  "database.dsn is set but database.engine is empty",
			})
		}
		return issues
	}
	if !slices.Contains(knownEngines, d.Engine) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "database.engine",
			Message:  fmt.Sprintf("unknown engine %q; ensure a matching engine is registered", d.Engine),
		})
	}
	if strings.TrimSpace(d.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "database.dsn",
			Message:  "database.dsn must not be empty",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch strings.ToLower(m.Backend) {
	case "", "none":
	case "prometheus", "prom":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires a pushgateway URL",
			})
		}
	case "datadog", "dd":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires a DogStatsD address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q", m.Backend),
		})
	}
	return issues
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
