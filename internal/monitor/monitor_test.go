package monitor

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"energy-dashboard/internal/config"
)

// syncBuffer lets the detached probe goroutine log while the test reads
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestMonitor(t *testing.T, baseURL string, timeoutMS int) (*Monitor, *syncBuffer) {
	t.Helper()
	cfg := config.Default()
	cfg.InfluxURL = baseURL
	cfg.HealthTimeoutMS = timeoutMS

	m := New(cfg)
	out := &syncBuffer{}
	m.SetLogger(log.New(out, "", 0))
	t.Cleanup(m.Stop)
	return m, out
}

func TestNewDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.InfluxURL = "http://influx:8086/"
	cfg.HealthTimeoutMS = 0

	m := New(cfg)
	if m.Target() != "http://influx:8086/health" {
		t.Errorf("Unexpected target %s", m.Target())
	}
	if m.Timeout() != 2*time.Second {
		t.Errorf("Expected 2s fallback timeout, got %v", m.Timeout())
	}
	if got := m.GetStatus().Status; got != StatusPending {
		t.Errorf("Expected pending before first probe, got %s", got)
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantErr       bool
		wantUnhealthy bool
	}{
		{"pass", http.StatusOK, `{"name":"influxdb","status":"pass"}`, false, false},
		{"fail status", http.StatusOK, `{"status":"fail"}`, true, true},
		{"no status field", http.StatusOK, `{"name":"influxdb"}`, false, false},
		{"non json body", http.StatusOK, `ok`, false, false},
		{"service unavailable", http.StatusServiceUnavailable, `{"status":"fail"}`, true, true},
		{"not found", http.StatusNotFound, ``, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("Expected /health, got %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			m, _ := newTestMonitor(t, srv.URL, 2000)
			err := m.Probe(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrUnhealthy) != tt.wantUnhealthy {
				t.Errorf("errors.Is(err, ErrUnhealthy) = %v, want %v", errors.Is(err, ErrUnhealthy), tt.wantUnhealthy)
			}
		})
	}
}

func TestProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	m, _ := newTestMonitor(t, srv.URL, 50)

	start := time.Now()
	err := m.Probe(context.Background())
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Probe took %v, expected it to stop near 50ms", elapsed)
	}
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m, _ := newTestMonitor(t, url, 500)
	err := m.Probe(context.Background())
	if err == nil {
		t.Fatal("Expected connection error")
	}
	if errors.Is(err, ErrUnhealthy) {
		t.Error("Connection failure should not be reported as ErrUnhealthy")
	}
}

func TestProbeAsyncLogsWarningAndRecordsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail"}`))
	}))
	defer srv.Close()

	m, out := newTestMonitor(t, srv.URL, 2000)
	m.ProbeAsync()
	m.Wait()

	status := m.GetStatus()
	if status.Status != StatusFailed {
		t.Errorf("Expected failed status, got %s", status.Status)
	}
	if status.LastError == "" || status.LastCheck.IsZero() {
		t.Errorf("Expected error and timestamp recorded, got %+v", status)
	}
	if !strings.Contains(out.String(), "reports unhealthy") {
		t.Errorf("Expected unhealthy warning, got %q", out.String())
	}
}

func TestProbeAsyncReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.Write([]byte(`{"status":"pass"}`))
	}))
	defer srv.Close()

	m, _ := newTestMonitor(t, srv.URL, 2000)

	start := time.Now()
	m.ProbeAsync()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("ProbeAsync blocked for %v", elapsed)
	}

	close(release)
	m.Wait()
	if got := m.GetStatus().Status; got != StatusOK {
		t.Errorf("Expected ok after release, got %s", got)
	}
}

func TestRunCheckRecovery(t *testing.T) {
	var mu sync.Mutex
	healthy := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"pass"}`))
	}))
	defer srv.Close()

	m, out := newTestMonitor(t, srv.URL, 2000)

	if got := m.RunCheck(context.Background()).Status; got != StatusFailed {
		t.Fatalf("Expected failed, got %s", got)
	}

	mu.Lock()
	healthy = true
	mu.Unlock()

	status := m.RunCheck(context.Background())
	if status.Status != StatusOK || status.LastError != "" {
		t.Errorf("Expected ok with cleared error, got %+v", status)
	}
	if !strings.Contains(out.String(), "recovered") {
		t.Errorf("Expected recovery log line, got %q", out.String())
	}
}

func TestStartPeriodic(t *testing.T) {
	hits := make(chan struct{}, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case hits <- struct{}{}:
		default:
		}
		w.Write([]byte(`{"status":"pass"}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.InfluxURL = srv.URL
	cfg.MonitorIntervalSeconds = 3600
	m := New(cfg)
	m.SetLogger(log.New(&syncBuffer{}, "", 0))
	m.Start()
	defer m.Stop()

	select {
	case <-hits:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected an immediate probe on Start")
	}
}

func TestStartDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("No probe expected when interval is 0")
	}))
	defer srv.Close()

	m, _ := newTestMonitor(t, srv.URL, 2000)
	m.Start()
	time.Sleep(50 * time.Millisecond)

	if got := m.GetStatus().Status; got != StatusPending {
		t.Errorf("Expected pending, got %s", got)
	}
}
