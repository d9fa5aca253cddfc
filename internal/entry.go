// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/taskflow/internal/api"
	"github.com/starford/taskflow/internal/autosave"
	"github.com/starford/taskflow/internal/exchange"
	"github.com/starford/taskflow/internal/persist"
	"github.com/starford/taskflow/internal/sse"
	"github.com/starford/taskflow/internal/workspace"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(cfg.App.LogLevel, os.Stdout)
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.Int64("quota_bytes", cfg.Storage.QuotaBytes),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker receives store events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	store, closer, err := OpenStore(cfg, logger, persist.WithNotifier(broker))
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer closer.Close()

	// Migrate, validate and snapshot before serving.
	report, err := store.Initialize()
	if err != nil {
		logger.Warn("startup snapshot failed", slog.String("error", err.Error()))
	}
	logger.Info("Storage initialized",
		slog.Int("migrated", len(report.Migration.Migrated)),
		slog.String("snapshot_id", report.SnapshotID))

	ws, err := workspace.New(store)
	if err != nil {
		logger.Warn("seeding default documents failed", slog.String("error", err.Error()))
	}
	saver := autosave.New(ws, store, cfg.Persistence.AutosaveInterval, logger)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := store.Stats(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes, SSE included, under /api.
	r.Mount("/api", api.NewRouter(store, ws, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	// Periodic save; the final flush runs once gCtx is cancelled.
	g.Go(func() error {
		return saver.Run(gCtx)
	})

	// Import inbox.
	if dir := cfg.Exchange.InboxDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create inbox dir: %w", err)
		}
		importFn := func(data []byte) (exchange.ImportResult, error) {
			res, err := exchange.Import(store, data)
			if err == nil {
				ws.Reload()
			}
			return res, err
		}
		g.Go(func() error {
			return exchange.WatchInbox(gCtx, dir, importFn, logger, func(name string, res exchange.ImportResult, err error) {
				if err != nil {
					logger.Warn("inbox import rejected", slog.String("file", name), slog.String("error", err.Error()))
					broker.Publish(sse.Event{Type: sse.EventImportRejected, Data: map[string]any{"file": name, "errors": res.Errors}})
					return
				}
				logger.Info("inbox import done", slog.String("file", name), slog.Int("lists", res.ListsImported))
				broker.Publish(sse.Event{Type: sse.EventImportAccepted, Data: map[string]any{"file": name, "result": res}})
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stops the autosaver and inbox watcher.
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
