package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/console/internal/console/domain"
)

// DefaultInterval between scheduled checks.
const DefaultInterval = 30 * time.Second

// Service names shown on the dashboard.
const (
	SalesService = "Sales Service"
	AuthService  = "Auth Service"
)

// PingFunc returns nil when the service is alive.
type PingFunc func(ctx context.Context) error

// Check is one monitored service.
type Check struct {
	Name  string
	Ping PingFunc
}

// Ticker abstracts time.Ticker so tests can drive the loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Summary holds the dashboard counters.
type Summary struct {
	Total   int `json:"total"`
	Healthy int `json:"healthy"`
	Alerts  int `json:"alerts"`
}

// Monitor periodically checks the upstream services while an operator is
// signed in. Start and Stop are idempotent.
type Monitor struct {
	Logger   *slog.Logger
	Interval time.Duration

	// NewTicker is swapped out in tests.
	NewTicker func(time.Duration) Ticker

	// OnResult, when set, is called after every check.
	OnResult func(name string, healthy bool)

	now    func() time.Time
	checks []Check

	statusMu sync.RWMutex
	statuses []domain.ServiceStatus

	// lifecycle
	mu     sync.Mutex
	cancel context.CancelFunc
	doneCh chan struct{}
}

type loopKey struct{}

// NewMonitor builds a stopped monitor. Every service starts as unknown.
// If interval is 0 or negative, defaults to DefaultInterval.
func NewMonitor(logger *slog.Logger, interval time.Duration, checks ...Check) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m := &Monitor{
		Logger:   logger,
		Interval: interval,
		NewTicker: func(d time.Duration) Ticker {
			return realTicker{t: time.NewTicker(d)}
		},
		now:    time.Now,
		checks: checks,
	}

	now := m.now()
	for _, c := range checks {
		m.statuses = append(m.statuses, domain.ServiceStatus{
			Name:        c.Name,
			Status:      domain.HealthUnknown,
			LastChecked: now,
		})
	}

	return m
}

// Start runs one check immediately and then one per interval until Stop.
// It is non-blocking. Starting a running monitor does nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), loopKey{}, m))
	m.cancel = cancel
	m.doneCh = make(chan struct{})

	go m.run(ctx, m.doneCh)
	m.Logger.Info("health monitor started", "interval", m.Interval)
}

// Stop cancels the loop and blocks until it has exited, so no check runs
// after Stop returns. Stopping a stopped monitor does nothing.
//
// When Stop is reached from inside a check (a check's 401 signs the operator
// out, which stops the monitor) it only cancels: waiting there would wait on
// itself.
func (m *Monitor) Stop(ctx context.Context) {
	m.mu.Lock()
	if m.cancel == nil {
		m.mu.Unlock()
		return
	}

	m.cancel()
	m.cancel = nil
	done := m.doneCh
	m.mu.Unlock()

	if ctx.Value(loopKey{}) == m {
		return
	}

	<-done
	m.Logger.Info("health monitor stopped")
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cancel != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := m.NewTicker(m.Interval)
	defer ticker.Stop()

	// Check immediately on start
	m.CheckNow(ctx)

	for {
		select {
		case <-ticker.C():
			m.CheckNow(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckNow checks every service once, concurrently, and records the results.
// The dashboard's Refresh button calls it directly.
func (m *Monitor) CheckNow(ctx context.Context) {
	var wg sync.WaitGroup
	for _, c := range m.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ping(ctx, c)
		}()
	}
	wg.Wait()
}

func (m *Monitor) ping(ctx context.Context, c Check) {
	err := c.Ping(ctx)

	// A cancelled loop says nothing about the service
	if ctx.Err() != nil {
		return
	}

	state := domain.HealthHealthy
	if err != nil {
		state = domain.HealthUnhealthy
		m.Logger.Debug("health check failed", "service", c.Name, "error", err)
	}

	m.statusMu.Lock()
	for i := range m.statuses {
		if m.statuses[i].Name == c.Name {
			m.statuses[i].Status = state
			m.statuses[i].LastChecked = m.now()
		}
	}
	m.statusMu.Unlock()

	if m.OnResult != nil {
		m.OnResult(c.Name, err == nil)
	}
}

// Statuses returns a copy of the latest status of every service, in the
// order the checks were registered.
func (m *Monitor) Statuses() []domain.ServiceStatus {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	return append([]domain.ServiceStatus(nil), m.statuses...)
}

// Summary counts services by state. Unknown services are neither healthy
// nor alerts.
func (m *Monitor) Summary() Summary {
	statuses := m.Statuses()

	sum := Summary{Total: len(statuses)}
	for _, s := range statuses {
		switch s.Status {
		case domain.HealthHealthy:
			sum.Healthy++
		case domain.HealthUnhealthy:
			sum.Alerts++
		}
	}
	return sum
}
