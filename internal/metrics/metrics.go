// Package metrics records step counts, step durations and item counts for
// the binaries. Calls go to a global Backend that does nothing until one of
// the subpackages (prompush, datadog) is installed with SetBackend.
package metrics

import "time"

// Metric names shared by all backends.
const (
	StepTotal           = "seis_step_total"
	StepDurationSeconds = "seis_step_duration_seconds"
	ItemsTotal          = "seis_items_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one operation, e.g.
// job "quakeml" step "dumps" or job "waveform" step "read".
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments an item counter for the given job and kind.
//
// Kinds in use: "events" (quakeml), "records" (datascope), "traces"
// (waveform) and the CSS3.0 table names (css2sql).
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(ItemsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
