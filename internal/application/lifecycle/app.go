package lifecycle

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/aescanero/stargazer/internal/application/pages"
	"github.com/aescanero/stargazer/internal/config"
	"github.com/aescanero/stargazer/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/stargazer/pkg/adapters/upstream"
	"github.com/aescanero/stargazer/pkg/api/grpc"
	"github.com/aescanero/stargazer/pkg/api/http"
	"github.com/aescanero/stargazer/pkg/api/websocket"
	"github.com/aescanero/stargazer/pkg/render"
	"github.com/aescanero/stargazer/web"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App is a fully wired site ready to serve
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	renderer *render.Renderer
	metrics  *prometheus.Collector
	registry promclient.Gatherer
	static   fs.FS

	// client is the upstream client of the current or last Run
	client *upstream.Client
}

// Option customizes Build
type Option func(*App)

// WithRegistry registers metrics with reg instead of the default registry
func WithRegistry(reg *promclient.Registry) Option {
	return func(a *App) {
		a.metrics = prometheus.NewCollector(reg)
		a.registry = reg
	}
}

// Build loads templates and static assets and prepares metrics. It does not
// open any listener or outbound client; Run does.
func Build(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = prometheus.NewCollector(promclient.DefaultRegisterer)
		a.registry = promclient.DefaultGatherer
	}

	templates := web.Templates()
	if dir := cfg.Assets.TemplateDir; dir != "" {
		templates = os.DirFS(dir)
	}
	renderer, err := render.New(templates, pages.LayoutFile, pages.Catalog()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	a.renderer = renderer

	a.static = web.Static()
	if dir := cfg.Assets.StaticDir; dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("static dir is not a directory: %s", dir)
		}
		a.static = os.DirFS(dir)
	}

	logger.Info("site assets loaded",
		zap.Strings("pages", renderer.Pages()),
		zap.String("template_dir", cfg.Assets.TemplateDir),
		zap.String("static_dir", cfg.Assets.StaticDir))

	return a, nil
}

// Run serves the site until ctx is done or a server fails. The upstream
// client is opened here and closed on every return path.
func (a *App) Run(ctx context.Context) error {
	client := upstream.New(upstream.Options{
		Timeout:      a.cfg.Upstream.RequestTimeout,
		RateLimit:    a.cfg.Upstream.RateLimit,
		RateBurst:    a.cfg.Upstream.RateBurst,
		MaxBodyBytes: a.cfg.Upstream.MaxBodyBytes,
		Observer:     a.metrics,
		Logger:       a.logger.Named("upstream"),
	})
	defer func() { _ = client.Close() }()
	a.client = client

	service := pages.NewService(&pages.Config{
		Fetcher:   client,
		AdviceURL: a.cfg.Upstream.AdviceURL,
		APODURL:   a.cfg.APODURL(),
	})

	clock := websocket.NewHandler(&websocket.Config{
		Now:      service.ServerTime,
		Interval: a.cfg.Timeouts.ClockInterval,
		Metrics:  a.metrics,
		Logger:   a.logger.Named("websocket"),
	})
	defer clock.Close()

	httpServer := http.NewServer(&http.Config{
		Port:              a.cfg.HTTPPort,
		ReadHeaderTimeout: a.cfg.Timeouts.ReadHeaderTimeout,
		Pages:             service,
		Renderer:          a.renderer,
		Static:            a.static,
		Metrics:           a.metrics,
		MetricsHandler:    promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		Clock:             clock,
		Checks: map[string]http.HealthCheck{
			"upstream_client": func() error {
				if client.Closed() {
					return upstream.ErrClosed
				}
				return nil
			},
		},
		Logger: a.logger,
	})

	var grpcServer *grpc.Server
	if a.cfg.GRPCEnabled {
		var err error
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Port:   a.cfg.GRPCPort,
			Logger: a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create gRPC server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)
	if grpcServer != nil {
		g.Go(grpcServer.Start)
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeouts.ShutdownTimeout)
		defer cancel()

		// Live streams hold hijacked connections that Shutdown does not wait for.
		clock.Close()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
		if grpcServer != nil {
			if err := grpcServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("gRPC server shutdown error", zap.Error(err))
			}
		}
		return nil
	})

	a.logger.Info("Stargazer started",
		zap.Int("http_port", a.cfg.HTTPPort),
		zap.Bool("grpc_enabled", a.cfg.GRPCEnabled),
		zap.Int("grpc_port", a.cfg.GRPCPort))

	err := g.Wait()
	a.logger.Info("Stargazer stopped")
	return err
}

// Run builds the site and serves it until ctx is done
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	app, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
