package api

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-connector/internal/events"
	"github.com/nerrad567/gray-logic-connector/internal/schemasync"
)

// Metrics counts published events and sync outcomes in memory.
// It is safe for concurrent use.
type Metrics struct {
	mu        sync.Mutex
	published map[string]*PublishCount
	syncOK    int64
	syncFail  map[schemasync.Step]int64
}

// PublishCount holds per-routing-key publish counters.
type PublishCount struct {
	OK     int64 `json:"ok"`
	Failed int64 `json:"failed"`
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		published: make(map[string]*PublishCount),
		syncFail:  make(map[schemasync.Step]int64),
	}
}

// ObservePublish counts one send. It satisfies events.Observer.
func (m *Metrics) ObservePublish(_ events.Kind, route events.Route, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.published[route.RoutingKey]
	if !ok {
		c = &PublishCount{}
		m.published[route.RoutingKey] = c
	}
	if err != nil {
		c.Failed++
		return
	}
	c.OK++
}

// RecordSync counts one synchronisation. It satisfies schemasync.Recorder.
func (m *Metrics) RecordSync(result schemasync.Result, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if result.OK() {
		m.syncOK++
		return
	}
	m.syncFail[result.Step]++
}

// SyncMetrics summarises synchronisation outcomes.
type SyncMetrics struct {
	Succeeded int64            `json:"succeeded"`
	Failed    int64            `json:"failed"`
	ByStep    map[string]int64 `json:"failed_by_step"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// MetricsSnapshot is the GET /metrics body.
type MetricsSnapshot struct {
	Timestamp     string                  `json:"timestamp"`
	Version       string                  `json:"version"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Published     map[string]PublishCount `json:"published"`
	Sync          SyncMetrics             `json:"sync"`
	Runtime       RuntimeMetrics          `json:"runtime"`
}

// snapshot copies the counters.
func (m *Metrics) snapshot() (map[string]PublishCount, SyncMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	published := make(map[string]PublishCount, len(m.published))
	for k, c := range m.published {
		published[k] = *c
	}

	stats := SyncMetrics{Succeeded: m.syncOK, ByStep: make(map[string]int64, len(m.syncFail))}
	for step, n := range m.syncFail {
		stats.ByStep[string(step)] = n
		stats.Failed += n
	}
	return published, stats
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	published, syncStats := s.metrics.snapshot()

	writeJSON(w, http.StatusOK, MetricsSnapshot{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Published:     published,
		Sync:          syncStats,
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	})
}
