// Package app wires configuration, services, and HTTP routes into the
// running application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tracevis/internal/config"
	"tracevis/internal/infrastructure"
	custommw "tracevis/internal/middleware"
	"tracevis/internal/registry"
	"tracevis/internal/render"
	"tracevis/internal/services"
	handlers "tracevis/internal/transport/http"
)

// Version is set at build time.
var Version = "dev"

// Application holds the assembled service graph.
type Application struct {
	Config   *config.Config
	Router   *chi.Mux
	Server   *http.Server
	Registry *registry.Registry
	Service  *services.TraceService
	Logger   *slog.Logger
}

// NewApplication builds the application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	reg := registry.New(logger)
	renderer := render.New(render.Options{
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
		DPI:    cfg.Render.DPI,
	}, logger)
	svc := services.NewTraceService(reg, renderer, cfg.Defaults, logger)

	app := &Application{
		Config:   cfg,
		Registry: reg,
		Service:  svc,
		Logger:   logger,
	}
	app.Router = app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func (a *Application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	if a.Config.RateLimit.Enabled {
		r.Use(custommw.RateLimit(a.Config.RateLimit))
	}
	r.Use(custommw.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, Version)
	})
	r.Handle("/metrics", promhttp.Handler())

	traceHandler := handlers.NewTraceHandler(a.Service, a.Logger)
	r.Mount("/api", traceHandler.Routes())

	return r
}

// Start begins serving HTTP. It returns once the listener is up; serve
// errors cancel the run via the provided cancel func.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.String("addr", a.Server.Addr),
		slog.String("version", Version))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
