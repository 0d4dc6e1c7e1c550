package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/aescanero/stargazer/internal/application/pages"
	"github.com/aescanero/stargazer/pkg/render"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StaticPrefix is the URL prefix static assets are served under
const StaticPrefix = "/static"

// MetricsRecorder receives request and render observations
type MetricsRecorder interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
	IncRenderFailures(page string)
}

// ClockStreamer serves the live clock stream
type ClockStreamer interface {
	HandleClock(c *gin.Context)
}

// HealthCheck reports a problem with a dependency by returning an error
type HealthCheck func() error

// Server represents the HTTP site server
type Server struct {
	router   *gin.Engine
	server   *http.Server
	pages    *pages.Service
	renderer *render.Renderer
	metrics  MetricsRecorder
	checks   map[string]HealthCheck
	logger   *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port              int
	ReadHeaderTimeout time.Duration

	Pages    *pages.Service
	Renderer *render.Renderer
	Static   fs.FS

	// Optional collaborators
	Metrics        MetricsRecorder
	MetricsHandler http.Handler
	Clock          ClockStreamer
	Checks         map[string]HealthCheck

	Logger *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	s := &Server{
		router:   router,
		pages:    cfg.Pages,
		renderer: cfg.Renderer,
		metrics:  metrics,
		checks:   cfg.Checks,
		logger:   logger,
	}

	router.Use(requestID())
	router.Use(requestLogger(logger))
	router.Use(requestMetrics(metrics))
	router.Use(gin.CustomRecovery(s.handlePanic))
	router.Use(s.errorHandler())

	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return s
}

// setupRoutes configures site routes
func (s *Server) setupRoutes(cfg *Config) {
	// Pages
	s.router.GET("/", s.handleIndex)
	s.router.GET("/advice", s.handleAdvice)
	s.router.GET("/apod", s.handleAPOD)
	s.router.GET("/params", s.handleParams)

	// Static assets
	if cfg.Static != nil {
		s.router.StaticFS(StaticPrefix, fileSystem{http.FS(cfg.Static)})
	}

	// Live clock
	if cfg.Clock != nil {
		s.router.GET("/ws/clock", cfg.Clock.HandleClock)
	}

	// Operations
	s.router.GET("/health", s.handleHealth)
	if cfg.MetricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	s.router.NoRoute(s.handleNotFound)
	s.router.NoMethod(s.handleMethodNotAllowed)
}

// Handler returns the HTTP handler serving the site
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveRequest(string, string, int, time.Duration) {}
func (noopMetrics) IncRenderFailures(string)                          {}
