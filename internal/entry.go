// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/sse"
)

// Components are the long-lived objects every command works with.
type Components struct {
	Logger  *slog.Logger
	Repo    *content.Repository
	DB      *index.DB
	Service *contentservice.Service
}

// Close releases the index database.
func (c *Components) Close() error {
	return c.DB.Close()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errors.New("config is required")
	}
	return app, nil
}

// Open builds the repository, index and content service described by the
// options. Service options (a notifier, for instance) are applied on top of
// the logger.
func Open(opts []Option, svcOpts ...contentservice.Option) (*Components, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	return app.open(svcOpts...)
}

func (app *application) open(svcOpts ...contentservice.Option) (*Components, error) {
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	roots, err := cfg.Content.Roots()
	if err != nil {
		return nil, errors.Wrap(err, "content roots")
	}
	for c, dir := range roots.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s root", c)
		}
	}

	repo, err := content.NewRepository(roots, content.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "init repository")
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, errors.Wrap(err, "init index")
	}

	svcOpts = append([]contentservice.Option{contentservice.WithLogger(logger)}, svcOpts...)
	return &Components{
		Logger:  logger,
		Repo:    repo,
		DB:      db,
		Service: contentservice.NewService(repo, db, svcOpts...),
	}, nil
}

// Reindex runs a full index sync and returns its statistics.
func Reindex(ctx context.Context, opts ...Option) (index.SyncStats, error) {
	comp, err := Open(opts)
	if err != nil {
		return index.SyncStats{}, err
	}
	defer comp.Close()
	return comp.Service.Reindex(ctx)
}

// RunMCP serves the MCP tools over stdio until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	comp, err := app.open()
	if err != nil {
		return err
	}
	defer comp.Close()

	if _, err := index.Sync(comp.DB, comp.Repo, comp.Logger); err != nil {
		comp.Logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return mcpserver.New(comp.Service, app.version).ServeStdio()
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.IndexThrottle())
	defer broker.Close()

	comp, err := app.open(contentservice.WithNotifier(broker.PublishDocumentEvent))
	if err != nil {
		return err
	}
	defer comp.Close()
	logger := comp.Logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_root", cfg.Content.Root),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Run initial sync.
	stats, err := index.Sync(comp.DB, comp.Repo, logger)
	if err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("initial sync done",
			slog.Int("indexed", stats.Indexed),
			slog.Int("unchanged", stats.Unchanged),
			slog.Int("removed", stats.Removed),
			slog.Int("failed", stats.Failed))
	}

	r := newRouter(comp, broker)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := index.Watch(gCtx, comp.DB, comp.Repo, logger, broker.PublishDocumentEvent); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "HTTP server error")
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams never end on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func newRouter(comp *Components, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := comp.DB.Ping(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(comp.Service, events))
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, `{"status":"`+status+`"}`)
}
