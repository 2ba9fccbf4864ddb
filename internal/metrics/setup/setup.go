// Package setup installs the metrics backend named in the config as the
// global metrics backend.
package setup

import (
	"fmt"
	"log"
	"strings"

	"seisadapt/internal/config"
	"seisadapt/internal/metrics"
	"seisadapt/internal/metrics/datadog"
	"seisadapt/internal/metrics/prompush"
)

// Install selects the backend named by cfg.Backend and installs it with
// metrics.SetBackend. The returned flush pushes buffered metrics and must be
// called before exit; it logs instead of failing. On error the nop backend
// stays installed.
func Install(cfg config.Metrics, job string) (flush func(), err error) {
	var b metrics.Backend
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return func() {}, nil
	case "prometheus", "prom", "pushgateway":
		b, err = prompush.NewBackend(job, cfg.PushgatewayURL)
		if err == nil {
			log.Printf("metrics: backend=prometheus url=%s job=%s", cfg.PushgatewayURL, job)
		}
	case "datadog", "dd":
		tags := cfg.Tags
		if job != "" {
			tags = append(tags[:len(tags):len(tags)], "job:"+job)
		}
		b, err = datadog.NewBackend(datadog.Config{Addr: cfg.DatadogAddr, Namespace: cfg.Namespace, GlobalTags: tags})
		if err == nil {
			log.Printf("metrics: backend=datadog addr=%s job=%s", cfg.DatadogAddr, job)
		}
	default:
		return func() {}, fmt.Errorf("metrics: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return func() {}, err
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}, nil
}
