// Package datadog sends metrics to a DogStatsD agent. Labels become
// "key:value" tags; step durations are sent as distributions so the agent
// can aggregate percentiles across hosts.
package datadog

import (
	"errors"
	"fmt"
	"slices"

	"seisadapt/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config selects the agent and the tags shared by every metric.
type Config struct {
	// Addr is "host:port" or "unix:///path/to/dsd.socket".
	Addr string

	Namespace string // prefix such as "seis."

	// GlobalTags are sent with every metric, e.g. "env:prod".
	GlobalTags []string
}

// Backend implements metrics.Backend. A zero Backend drops everything.
type Backend struct {
	client statsd.ClientInterface
}

// NewBackend connects a statsd client for cfg.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("datadog: agent address is required")
	}
	opts := []statsd.Option{statsd.WithTags(cfg.GlobalTags)}
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: connect %s: %w", cfg.Addr, err)
	}
	return &Backend{client: c}, nil
}

// IncCounter sends a count. DogStatsD counts are integers, so delta is
// truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Count(name, int64(delta), tags(labels), 1)
}

// ObserveHistogram sends durations as distributions and other values as
// histograms.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	if name == metrics.StepDurationSeconds {
		_ = b.client.Distribution(name, value, tags(labels), 1)
		return
	}
	_ = b.client.Histogram(name, value, tags(labels), 1)
}

// Flush closes the client, sending anything still buffered. The backend
// drops metrics afterwards.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

func tags(labels metrics.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		out = append(out, k+":"+v)
	}
	slices.Sort(out)
	return out
}
