package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/spritewire/internal/automation"
	"github.com/nerrad567/spritewire/internal/dispatch"
	"github.com/nerrad567/spritewire/internal/infrastructure/config"
	"github.com/nerrad567/spritewire/internal/infrastructure/logging"
	"github.com/nerrad567/spritewire/internal/source"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Reconciler resynchronises cron timers after catalog mutations. The
// scheduler implements it; the indirection avoids a package cycle.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// HealthChecker reports the liveness of a backing component.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Repo       automation.Repository
	Registry   *source.Registry
	Dispatcher *dispatch.Dispatcher
	Scheduler  Reconciler
	Database   HealthChecker
	Version    string
}

// Server is the HTTP server for spritewire.
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	repo       automation.Repository
	registry   *source.Registry
	dispatcher *dispatch.Dispatcher
	scheduler  Reconciler
	database   HealthChecker
	version    string
	server     *http.Server
}

// New creates an API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("automation repository is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("source registry is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		repo:       deps.Repo,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		scheduler:  deps.Scheduler,
		database:   deps.Database,
		version:    deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine. The server
// is stopped with Close.
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
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting for in-flight
// requests up to the shutdown timeout.
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
