package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/ladyxxa/Web4/internal/api/middleware"
	v1 "github.com/ladyxxa/Web4/internal/api/v1"
	"github.com/ladyxxa/Web4/internal/buildinfo"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/observability"
)

// Server is the HTTP server of the dashboard. It owns the echo instance,
// the middleware stack and the routes.
type Server struct {
	echo      *echo.Echo
	config    *Config
	slogger   *slog.Logger
	dashboard v1.Dashboard
	suggester v1.Suggester
	metrics   *observability.Metrics
	build     buildinfo.BuildInfo
	startTime time.Time

	apiController *v1.Controller
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithSuggester enables GET /api/v1/suggest
func WithSuggester(s v1.Suggester) ServerOption {
	return func(srv *Server) { srv.suggester = s }
}

// WithMetrics exposes the registry on /metrics
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(srv *Server) { srv.metrics = m }
}

// WithBuildInfo sets the version reported by /health
func WithBuildInfo(b buildinfo.BuildInfo) ServerOption {
	return func(srv *Server) { srv.build = b }
}

// New creates the server. It does not start listening.
func New(settings *conf.Settings, dash v1.Dashboard, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		slogger:   getLogger(),
		dashboard: dash,
		build:     (*buildinfo.Context)(nil),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.slogger.Info("HTTP server initialized", "address", config.Listen, "debug", config.Debug)
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.slogger, mw.SkipPaths("/health", "/metrics")))
	s.echo.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: s.config.AllowedOrigins}))
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
	s.apiController = v1.New(s.echo, s.dashboard, s.suggester)
}

func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.build.GetVersion(),
		"build_date":     s.build.GetBuildDate(),
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"cities":         len(s.dashboard.View().Cities),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.slogger.Info("Starting HTTP server", "address", s.config.Listen)
		if err := s.echo.Start(s.config.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.slogger.Error("Error during server shutdown", "error", err)
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.slogger.Info("Server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
