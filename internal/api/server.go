package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-connector/internal/audit"
	"github.com/nerrad567/gray-logic-connector/internal/device"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-connector/internal/schemasync"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// HealthCheckFunc reports the health of one dependency.
type HealthCheckFunc func(ctx context.Context) error

// Syncer runs a schema synchronisation and reports its result.
type Syncer interface {
	Run(ctx context.Context, dev device.Device) (schemasync.Result, error)
}

// DeviceReader reads local device records.
type DeviceReader interface {
	GetByID(ctx context.Context, id string) (*device.Device, error)
	List(ctx context.Context) ([]device.Device, error)
}

// HistoryReader reads the persisted sync history.
type HistoryReader interface {
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Syncer  Syncer
	Devices DeviceReader
	Metrics *Metrics

	// History is optional; without it the sync-history routes are not mounted.
	History HistoryReader

	// Checks are run by GET /health, keyed by component name.
	Checks map[string]HealthCheckFunc

	Version string
}

// Server is the connector's HTTP API server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	syncer    Syncer
	devices   DeviceReader
	metrics   *Metrics
	history   HistoryReader
	checks    map[string]HealthCheckFunc
	version   string
	startTime time.Time
	server    *http.Server
}

// New creates a new API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Syncer == nil {
		return nil, fmt.Errorf("schema syncer is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device reader is required")
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		syncer:    deps.Syncer,
		devices:   deps.Devices,
		metrics:   metrics,
		history:   deps.History,
		checks:    deps.Checks,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start launches the HTTP listener in a background goroutine.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
