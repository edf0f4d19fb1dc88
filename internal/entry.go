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

	"github.com/odden/ansuz/internal/api"
	"github.com/odden/ansuz/internal/docstore"
	"github.com/odden/ansuz/internal/index"
	"github.com/odden/ansuz/internal/mcpserver"
	"github.com/odden/ansuz/internal/preview"
	"github.com/odden/ansuz/internal/schema"
	"github.com/odden/ansuz/internal/sse"
	"github.com/odden/ansuz/internal/storage"
	"github.com/odden/ansuz/internal/syncctl"
	"github.com/odden/ansuz/internal/validate"
	"github.com/odden/ansuz/internal/workspace"
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

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	logOut := os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("snapshot_path", cfg.Workspace.SnapshotPath),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Snapshot persistence + document store.
	persist, err := storage.NewFile(cfg.Workspace.SnapshotPath, logger)
	if err != nil {
		return fmt.Errorf("init snapshot storage: %w", err)
	}
	store := docstore.New(persist, logger)

	// Search index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Rebuild(db, store, logger); err != nil {
		logger.Warn("initial index rebuild failed", slog.String("error", err.Error()))
	}
	defer index.Follow(db, store, logger)()

	// Field table: built-in catalog unless an external file is configured.
	table, err := loadTable(cfg.Schema.FieldTablePath)
	if err != nil {
		return err
	}

	// Header schema validator.
	validator, err := loadValidator(cfg.Schema.HeaderSchemaPath)
	if err != nil {
		return err
	}

	renderer := preview.New()
	ctrl := syncctl.New(store, table, validator, renderer, nil)
	defer ctrl.Stop()

	svc := workspace.NewService(store, db, ctrl, table, validator, renderer, logger)

	if app.mcp {
		logger.Info("Starting MCP stdio server")
		return mcpserver.New(svc).ServeStdio()
	}

	// SSE broker, fed by store mutations and open-document refreshes.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	defer sse.FollowStore(broker, store)()
	defer sse.FollowController(broker, ctrl)()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Hot-reload the header schema when it changes on disk. The field table
	// is read once at startup; changing it needs a restart.
	if cfg.Schema.HeaderSchemaPath != "" {
		schemaPath := cfg.Schema.HeaderSchemaPath
		g.Go(func() error {
			reload := func() {
				raw, err := os.ReadFile(schemaPath)
				if err != nil {
					logger.Warn("schema reload read failed", slog.String("error", err.Error()))
					return
				}
				if err := validator.Reload(raw); err != nil {
					logger.Warn("schema reload rejected", slog.String("error", err.Error()))
					return
				}
				logger.Info("header schema reloaded", slog.String("path", schemaPath))
			}
			if err := schema.Watch(gCtx, logger, reload, schemaPath); err != nil {
				logger.Warn("schema watcher failed", slog.String("error", err.Error()))
			}
			return nil
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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func loadTable(path string) (*schema.Table, error) {
	if path == "" {
		return schema.Default(), nil
	}
	table, err := schema.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load field table: %w", err)
	}
	return table, nil
}

func loadValidator(path string) (*validate.Adapter, error) {
	if path == "" {
		return validate.New([]byte(schema.DefaultSchemaJSON))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read header schema: %w", err)
	}
	v, err := validate.New(raw)
	if err != nil {
		return nil, fmt.Errorf("compile header schema: %w", err)
	}
	return v, nil
}
