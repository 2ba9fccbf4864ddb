package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type call struct {
	Kind   string
	Name   string
	Value  float64
	Labels Labels
}

// recorder is an in-memory Backend.
type recorder struct {
	calls   []call
	flushes int
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.calls = append(r.calls, call{"counter", name, delta, labels})
}

func (r *recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.calls = append(r.calls, call{"histogram", name, value, labels})
}

func (r *recorder) Flush() error {
	r.flushes++
	return nil
}

func install(t *testing.T) *recorder {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	r := &recorder{}
	SetBackend(r)
	return r
}

func TestRecordStep(t *testing.T) {
	r := install(t)

	RecordStep("quakeml-ns", "write", nil, 2*time.Second)
	RecordStep("wfread", "read", errors.New("short file"), 1500*time.Millisecond)

	ok := Labels{"job": "quakeml-ns", "step": "write", "status": "success"}
	failed := Labels{"job": "wfread", "step": "read", "status": "failure"}
	want := []call{
		{"counter", StepTotal, 1, ok},
		{"histogram", StepDurationSeconds, 2, ok},
		{"counter", StepTotal, 1, failed},
		{"histogram", StepDurationSeconds, 1.5, failed},
	}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRowSkipsNonPositive(t *testing.T) {
	r := install(t)

	RecordRow("css2sql", "wfdisc", 3)
	RecordRow("css2sql", "site", 0)
	RecordRow("wfread", "traces", -1)
	RecordRow("quakeml-ns", "events", 5)

	want := []call{
		{"counter", ItemsTotal, 3, Labels{"job": "css2sql", "kind": "wfdisc"}},
		{"counter", ItemsTotal, 5, Labels{"job": "quakeml-ns", "kind": "events"}},
	}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	r := install(t)
	if err := Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	SetBackend(nil)
	if backend != Backend(r) {
		t.Fatal("SetBackend(nil) replaced the backend")
	}
	if r.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", r.flushes)
	}
}
