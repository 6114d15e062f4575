package connectivity

import (
	"context"
	"sync"
	"time"
)

const (
	defaultInterval     = 30 * time.Second
	defaultProbeTimeout = 5 * time.Second
)

// Prober checks whether the watched dependency is reachable.
type Prober interface {
	HealthCheck(ctx context.Context) error
}

// Announcer publishes connectivity transitions.
type Announcer interface {
	SendDisconnected(ctx context.Context) error
	SendReconnected(ctx context.Context) error
}

// Logger defines the logging interface used by the monitor.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds Monitor settings.
type Config struct {
	// Interval between probes. Default: 30 seconds.
	Interval time.Duration

	// ProbeTimeout bounds a single probe. Default: 5 seconds.
	ProbeTimeout time.Duration

	Prober    Prober
	Announcer Announcer
}

// Monitor tracks reachability of a Prober.
type Monitor struct {
	interval     time.Duration
	probeTimeout time.Duration
	prober       Prober
	announcer    Announcer

	mu          sync.Mutex
	up          bool
	lastChecked time.Time

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a Monitor. Call Start to begin probing.
func New(cfg Config) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}

	return &Monitor{
		interval:     interval,
		probeTimeout: probeTimeout,
		prober:       cfg.Prober,
		announcer:    cfg.Announcer,
		up:           true,
		done:         make(chan struct{}),
	}
}

// SetLogger sets the logger for this monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.loggerMu.Lock()
	m.logger = logger
	m.loggerMu.Unlock()
}

// Start begins periodic probing until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.loop(ctx)
}

// Stop halts probing and waits for the loop to exit.
// Safe to call multiple times.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

// Up reports the last observed state.
func (m *Monitor) Up() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.up
}

// LastChecked returns the time of the most recent probe.
func (m *Monitor) LastChecked() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastChecked
}

// Check runs one probe and announces a transition if the state changed.
// It returns the probe error.
func (m *Monitor) Check(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	probeErr := m.prober.HealthCheck(probeCtx)
	cancel()

	m.mu.Lock()
	wasUp := m.up
	m.up = probeErr == nil
	m.lastChecked = time.Now()
	m.mu.Unlock()

	switch {
	case wasUp && probeErr != nil:
		m.logWarn("remote authority unreachable", "error", probeErr)
		if err := m.announcer.SendDisconnected(ctx); err != nil {
			m.logError("failed to announce disconnect", err)
		}
	case !wasUp && probeErr == nil:
		m.logInfo("remote authority reachable again")
		if err := m.announcer.SendReconnected(ctx); err != nil {
			m.logError("failed to announce reconnect", err)
		}
	}
	return probeErr
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			_ = m.Check(ctx) //nolint:errcheck // transitions are logged and announced by Check
		}
	}
}

func (m *Monitor) getLogger() Logger {
	m.loggerMu.RLock()
	defer m.loggerMu.RUnlock()
	return m.logger
}

func (m *Monitor) logInfo(msg string, args ...any) {
	if l := m.getLogger(); l != nil {
		l.Info(msg, args...)
	}
}

func (m *Monitor) logWarn(msg string, args ...any) {
	if l := m.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

func (m *Monitor) logError(msg string, err error) {
	if l := m.getLogger(); l != nil {
		l.Error(msg, "error", err)
	}
}
