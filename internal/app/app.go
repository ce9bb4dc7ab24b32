package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"databoard/internal/config"
	apierrors "databoard/internal/errors"
	"databoard/internal/infrastructure"
	"databoard/internal/services"
	handlers "databoard/internal/transport/http"
	"databoard/internal/watch"
	ws "databoard/internal/websocket"
	"databoard/pkg/contracts"
)

// AppName is the human-readable product name logged at startup.
const AppName = "DataBoard"

// Application is the composed server: configuration, services, the HTTP
// server, and the background workers that feed it.
type Application struct {
	Config           *config.Config
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	WebSocketHub     *ws.Hub
	Watcher          *watch.Watcher
}

// NewApplication loads configuration and wires every component. Nothing is
// started: Run (or Start/Stop) controls the lifecycle.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitOTel(cfg.Observability, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(metrics); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices builds the hub, the dashboard and health services, the
// dataset watcher, and the router.
func (a *Application) initializeServices(metrics *infrastructure.BusinessMetrics) error {
	hub := ws.NewHub(a.Logger)
	hub.SetMetrics(metrics)
	a.WebSocketHub = hub

	a.DashboardService = services.NewDashboardService(a.Config, a.Logger, metrics)
	a.HealthService = services.NewHealthService(a.Config, a.Logger, hub.ClientCount)

	if a.Config.Datasets.WatchEnabled {
		watcher, err := watch.New(map[string]string{
			"ridership": a.Config.Datasets.RidershipPath,
			"bakery":    a.Config.Datasets.BakeryPath,
		}, a.DashboardService, hub, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create dataset watcher: %w", err)
		}
		a.Watcher = watcher
	}

	return nil
}

// createServer assembles the router and the HTTP server around it.
func (a *Application) createServer() {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	boardHandler := handlers.NewBoardHandler(
		a.DashboardService,
		a.Logger,
		errorHandler,
		a.Config.Datasets.MaxUploadBytes,
	)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:       a.Config,
		Logger:       a.Logger,
		ErrorHandler: errorHandler,
		Board:        boardHandler,
		Health:       healthHandler,
		Hub:          a.WebSocketHub,
		Registry:     a.OTelProviders.Registry,
	})

	a.Server = &http.Server{
		Addr:           a.Config.ListenAddr(),
		Handler:        router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start launches the hub, the watcher, and the HTTP listener. A listener
// error other than graceful close cancels the supplied context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.String("addr", a.Config.ListenAddr()),
		slog.String("ridership_path", a.Config.Datasets.RidershipPath),
		slog.String("bakery_path", a.Config.Datasets.BakeryPath),
		slog.Bool("watch_enabled", a.Config.Datasets.WatchEnabled))

	a.WebSocketHub.Start()

	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start dataset watcher: %w", err)
		}
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop shuts down in reverse start order: listener, watcher, hub, then the
// observability providers and the log file.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		firstErr = fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "observability shutdown failed", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")

	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}

// Run starts the application and blocks until an interrupt or a fatal
// listener error, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "context cancelled")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stopCancel()

	return a.Stop(stopCtx)
}
