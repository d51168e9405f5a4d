// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/docsite/internal/api"
	"github.com/starford/docsite/internal/catalog"
	"github.com/starford/docsite/internal/docservice"
	"github.com/starford/docsite/internal/index"
	"github.com/starford/docsite/internal/manifest"
	"github.com/starford/docsite/internal/mcpserver"
	"github.com/starford/docsite/internal/models"
	"github.com/starford/docsite/internal/prefs"
	"github.com/starford/docsite/internal/scaffold"
	"github.com/starford/docsite/internal/sse"
	"github.com/starford/docsite/internal/storage"
)

// manifestThrottle spaces out manifest.updated events during bulk edits.
const manifestThrottle = 2 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger builds the structured JSON logger and installs it as the default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func (a *application) builder(logger *slog.Logger) *manifest.Builder {
	b := manifest.NewBuilder(a.config.Content.Root, logger)
	b.ManifestFile = a.config.Content.ManifestFile
	b.Now = a.now
	return b
}

// BuildManifest scans the content root once and writes the manifest.
func BuildManifest(ctx context.Context, opts ...Option) (models.Manifest, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	logger := app.logger()
	return app.builder(logger).Build(ctx)
}

// NewDoc scaffolds a document under the content root. The manifest is left
// for the next build or the running server's watcher to pick up.
func NewDoc(_ context.Context, title, category string, opts ...Option) (scaffold.Result, error) {
	app, err := newApplication(opts)
	if err != nil {
		return scaffold.Result{}, err
	}
	logger := app.logger()

	res, err := scaffold.Create(app.config.Content.Root, title, category, app.now())
	if err != nil {
		return scaffold.Result{}, err
	}
	logger.Info("document created",
		slog.String("title", res.Title),
		slog.String("category", res.Category),
		slog.String("slug", res.Slug),
		slog.String("path", res.Path))
	return res, nil
}

// services is the set of long-lived components shared by Serve and ServeMCP.
type services struct {
	svc    *docservice.Service
	db     *index.DB
	logger *slog.Logger
}

func (a *application) start(ctx context.Context) (*services, error) {
	cfg := a.config
	logger := a.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_root", cfg.Content.Root),
		slog.String("manifest", cfg.Content.ManifestPath()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Content.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	store.Logger = logger

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	fallback := prefs.Defaults()
	theme := cfg.Theme.Theme()
	fallback.MarkdownTheme = theme.Markdown
	fallback.HighlightTheme = theme.Highlight

	svc := docservice.NewService(docservice.Deps{
		Store:       store,
		DB:          db,
		Catalog:     catalog.NewStore(cfg.Content.ManifestPath(), logger),
		Prefs:       prefs.Open(cfg.Theme.PrefsPath, fallback, logger),
		Builder:     a.builder(logger),
		Logger:      logger,
		SearchLimit: cfg.Search.Limit,
	})

	if _, err := svc.Rebuild(ctx); err != nil {
		logger.Warn("initial build failed, serving the last written manifest", slog.String("error", err.Error()))
	}
	return &services{svc: svc, db: db, logger: logger}, nil
}

// Serve runs the hosting server: HTTP API, live reload events and the
// content watcher.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := app.start(ctx)
	if err != nil {
		return err
	}
	defer rt.db.Close()
	logger := rt.logger

	broker := sse.NewBroker(manifestThrottle)
	defer broker.Close()

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild on content changes and notify connected browsers.
	g.Go(func() error {
		return index.Watch(gCtx, cfg.Content.Root, logger, func(changes []index.Change) {
			onContentChange(gCtx, rt.svc, broker, logger, changes)
		})
	})

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
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// publisher is the part of the SSE broker the rebuild hook needs.
type publisher interface {
	PublishDocEvent(kind string, doc sse.DocEvent)
	ClientCount() int
}

// onContentChange rebuilds everything derived from the content tree and
// publishes one event per changed file. Slugs of deleted files are looked
// up before the rebuild drops them.
func onContentChange(ctx context.Context, svc *docservice.Service, pub publisher, logger *slog.Logger, changes []index.Change) {
	gone := make(map[string]string)
	for _, c := range changes {
		if c.Kind == index.ChangeDeleted {
			gone[c.Path] = svc.SlugForPath(c.Path)
		}
	}

	if _, err := svc.Rebuild(ctx); err != nil {
		logger.Error("rebuild failed", slog.String("error", err.Error()))
		return
	}

	for _, c := range changes {
		slug, ok := gone[c.Path]
		if !ok {
			slug = svc.SlugForPath(c.Path)
		}
		pub.PublishDocEvent(c.Kind, sse.DocEvent{Path: c.Path, Slug: slug})
	}
	logger.Info("content reloaded",
		slog.Int("changes", len(changes)),
		slog.Int("clients", pub.ClientCount()))
}

// ServeMCP exposes the documentation set as MCP tools over stdio. Logs go
// to stderr unless redirected, since stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.start(ctx)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	rt.logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(rt.svc).ServeStdio(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
