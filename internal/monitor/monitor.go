package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"energy-dashboard/internal/config"
)

// ErrUnhealthy is wrapped by Probe when the database answers but is not healthy
var ErrUnhealthy = errors.New("time-series database unhealthy")

const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// CheckStatus is the last known state of the upstream health endpoint
type CheckStatus struct {
	Target    string    `json:"target"`
	Status    string    `json:"status"` // "ok", "failed", "pending"
	LastCheck time.Time `json:"last_check,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Interval  int       `json:"interval"`
}

// healthResponse is the subset of the InfluxDB /health body we read
type healthResponse struct {
	Status string `json:"status"`
}

// Monitor probes the time-series database health endpoint. Results are
// advisory: nothing in the login path waits on or branches on them.
type Monitor struct {
	mu       sync.RWMutex
	target   string
	timeout  time.Duration
	interval time.Duration
	status   CheckStatus
	ctx      context.Context
	cancel   context.CancelFunc
	client   *http.Client
	logger   *log.Logger
	inflight sync.WaitGroup
}

// New creates a Monitor for cfg.InfluxURL
func New(cfg *config.Config) *Monitor {
	timeout := time.Duration(cfg.HealthTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	target := strings.TrimSuffix(cfg.InfluxURL, "/") + "/health"

	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		target:   target,
		timeout:  timeout,
		interval: time.Duration(cfg.MonitorIntervalSeconds) * time.Second,
		status: CheckStatus{
			Target:   target,
			Status:   StatusPending,
			Interval: cfg.MonitorIntervalSeconds,
		},
		ctx:    ctx,
		cancel: cancel,
		client: &http.Client{},
		logger: log.Default(),
	}
}

// SetLogger replaces the logger used for probe warnings
func (m *Monitor) SetLogger(l *log.Logger) {
	m.logger = l
}

// Target returns the full health URL being probed
func (m *Monitor) Target() string {
	return m.target
}

// Timeout returns the per-probe deadline
func (m *Monitor) Timeout() time.Duration {
	return m.timeout
}

// Probe performs a single GET of the health endpoint bounded by the
// monitor's timeout. A body that isn't JSON or has no status is not an error.
func (m *Monitor) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.target, nil)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: expected 2xx, got %d", ErrUnhealthy, resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&health); err != nil {
		return nil
	}
	if health.Status != "" && health.Status != "pass" {
		return fmt.Errorf("%w: reported status %q", ErrUnhealthy, health.Status)
	}
	return nil
}

// ProbeAsync runs a detached probe whose outcome is only recorded and logged.
// It returns immediately and ignores the caller's cancellation.
func (m *Monitor) ProbeAsync() {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.executeCheck(context.Background())
	}()
}

// Wait blocks until every probe started by ProbeAsync has finished
func (m *Monitor) Wait() {
	m.inflight.Wait()
}

// Start begins periodic probing when an interval is configured
func (m *Monitor) Start() {
	if m.interval <= 0 {
		return
	}
	go m.run()
}

// Stop halts periodic probing
func (m *Monitor) Stop() {
	m.cancel()
}

// GetStatus returns a copy of the last probe result
func (m *Monitor) GetStatus() CheckStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// RunCheck probes synchronously and returns the resulting status
func (m *Monitor) RunCheck(ctx context.Context) CheckStatus {
	m.executeCheck(ctx)
	return m.GetStatus()
}

func (m *Monitor) run() {
	m.executeCheck(m.ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.executeCheck(m.ctx)
		}
	}
}

// executeCheck probes once, records the result and warns on failure
func (m *Monitor) executeCheck(ctx context.Context) {
	err := m.Probe(ctx)

	m.mu.Lock()
	previous := m.status.Status
	m.status.LastCheck = time.Now()
	if err != nil {
		m.status.Status = StatusFailed
		m.status.LastError = err.Error()
	} else {
		m.status.Status = StatusOK
		m.status.LastError = ""
	}
	m.mu.Unlock()

	switch {
	case errors.Is(err, ErrUnhealthy):
		m.logger.Printf("[Health] WARNING: InfluxDB at %s reports unhealthy, allowing login in development mode: %v", m.target, err)
	case err != nil:
		m.logger.Printf("[Health] WARNING: failed to reach InfluxDB at %s, allowing login in development mode: %v", m.target, err)
	case previous == StatusFailed:
		m.logger.Printf("[Health] InfluxDB at %s recovered", m.target)
	}
}
