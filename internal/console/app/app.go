package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aussiebroadwan/console/internal/console/domain"
	"github.com/aussiebroadwan/console/internal/console/health"
	httpapi "github.com/aussiebroadwan/console/internal/console/http"
	"github.com/aussiebroadwan/console/internal/console/metrics"
	"github.com/aussiebroadwan/console/internal/console/session"
	"github.com/aussiebroadwan/console/internal/console/settings"
	"github.com/aussiebroadwan/console/internal/console/store"
	"github.com/aussiebroadwan/console/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/console/internal/console/store/drivers/redis"
	"github.com/aussiebroadwan/console/internal/console/store/drivers/sqlite"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/aussiebroadwan/console/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the console with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	client  *consolesdk.Client
	session *session.Store
	monitor *health.Monitor

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// A session stored by a previous run is restored before it returns.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "console",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	// Rehydrate after the router exists so its listeners see the restore
	if err := app.session.Rehydrate(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return app, nil
}

// Handler returns the console's HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("console starting",
		"addr", app.server.Addr,
		"version", BuildVersion,
		"auth_base_url", app.cfg.AuthBaseURL,
		"sales_base_url", app.cfg.SalesBaseURL,
		"session_store", app.cfg.SessionStore,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.monitor.Stop(context.Background())
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application. The stored session is
// kept, a restart restores it.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down console...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop polling the backends
	app.monitor.Stop(ctx)

	// Close the session store
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("console stopped")
	return nil
}

// initDatabase opens the configured session record driver and applies its
// migrations.
func (app *Application) initDatabase() error {
	switch app.cfg.SessionStore {
	case StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		db, err := redis.NewStore(ctx, redis.Config{
			Addr: app.cfg.SessionRedisAddr,
			DB:   app.cfg.SessionRedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.db = db

	case StoreMemory:
		app.db = memory.NewStore()
		app.logger.Warn("session store is in memory, sign-ins will not survive a restart")

	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.SessionDBFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("session store ready", "driver", app.cfg.SessionStore)
	return nil
}

// initServices builds the API client, the session and the health monitor
// and ties them together.
func (app *Application) initServices() error {
	sealer, err := InitSealer(app.cfg, app.logger)
	if err != nil {
		return err
	}

	app.client = consolesdk.NewClient(app.cfg.AuthBaseURL, app.cfg.SalesBaseURL)
	app.client.TokenKeyID = app.cfg.TokenKeyID
	app.client.HTTPClient.Timeout = app.cfg.UpstreamTimeout
	app.client.Observer = metrics.ObserveUpstream

	app.session = session.New(app.client, app.db.SessionRecords(), sealer, app.cfg.SessionRecordName)

	// The client reads its bearer from the session, and a 401 from either
	// backend signs the operator out
	app.client.Authorizer = app.session
	app.client.OnUnauthorized = app.session.HandleUnauthorized

	app.monitor = health.NewMonitor(app.logger, app.cfg.HealthInterval,
		health.Check{Name: health.SalesService, Ping: app.client.CheckLiveness},
		health.Check{Name: health.AuthService, Ping: app.client.CheckAuthLiveness},
	)
	app.monitor.OnResult = metrics.ObserveHealth

	// Poll only while someone is signed in
	app.session.OnChange(func(ctx context.Context, sess domain.Session) {
		metrics.ObserveSession(sess.IsAuthenticated())

		if sess.IsAuthenticated() {
			app.monitor.Start()
			return
		}
		app.monitor.Stop(ctx)
	})

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	router, err := httpapi.NewRouter(BuildVersion, httpapi.Deps{
		Store:    app.db,
		Client:   app.client,
		Session:  app.session,
		Monitor:  app.monitor,
		Settings: settings.NewStore(),
	}, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              net.JoinHostPort(app.cfg.Host, strconv.Itoa(app.cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
