package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-adapter/internal/adapter"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusSource is the view of the adapter the API needs. *adapter.Adapter
// satisfies it.
type StatusSource interface {
	Status() adapter.Status
	Stats() adapter.StatsSnapshot
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc reports the health of one dependency.
type HealthCheckFunc func(ctx context.Context) error

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Adapter StatusSource

	// Checks are extra dependencies reported by /health (database, influxdb).
	Checks map[string]HealthCheckFunc

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	adapter StatusSource
	checks  map[string]HealthCheckFunc
	version string
	started time.Time

	metrics *metrics

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Adapter == nil {
		return nil, fmt.Errorf("adapter is required")
	}

	s := &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		adapter: deps.Adapter,
		checks:  deps.Checks,
		version: deps.Version,
		started: time.Now(),
	}
	s.metrics = newMetrics(prometheus.NewRegistry(), deps.Adapter)
	return s, nil
}

// Start binds the listener and serves in a background goroutine.
//
// Returns:
//   - error: If the address cannot be bound (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("binding api listener: %w", err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
