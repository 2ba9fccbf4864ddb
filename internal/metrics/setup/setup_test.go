package setup

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"seisadapt/internal/config"
	"seisadapt/internal/metrics"
)

func TestInstallRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Metrics
	}{
		{"unknown backend", config.Metrics{Backend: "statsd"}},
		{"prometheus without url", config.Metrics{Backend: "prometheus"}},
		{"datadog without addr", config.Metrics{Backend: "datadog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flush, err := Install(tt.cfg, "wfread")
			if err == nil {
				t.Fatal("Install() error = nil")
			}
			flush() // always safe to call
		})
	}
}

func TestInstallNone(t *testing.T) {
	for _, name := range []string{"", "none"} {
		flush, err := Install(config.Metrics{Backend: name}, "wfread")
		if err != nil {
			t.Fatalf("Install(%q) error = %v", name, err)
		}
		flush()
	}
}

func TestInstallPrometheusPushesOnFlush(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	flush, err := Install(config.Metrics{Backend: "prometheus", PushgatewayURL: srv.URL}, "wfread")
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	metrics.RecordStep("waveform", "read", nil, 10*time.Millisecond)
	flush()

	mu.Lock()
	defer mu.Unlock()
	if len(paths) == 0 || paths[0] != "/metrics/job/wfread" {
		t.Fatalf("pushgateway requests = %v, want /metrics/job/wfread", paths)
	}
}

func TestInstallDatadog(t *testing.T) {
	flush, err := Install(config.Metrics{Backend: "dd", DatadogAddr: "127.0.0.1:8125", Tags: []string{"env:test"}}, "quakeml-ns")
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	metrics.RecordRow("quakeml", "events", 3)
	flush()
}
