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

	"github.com/starford/inscribe/internal/api"
	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/blobstore"
	"github.com/starford/inscribe/internal/fee"
	"github.com/starford/inscribe/internal/identity"
	"github.com/starford/inscribe/internal/importer"
	"github.com/starford/inscribe/internal/kv"
	"github.com/starford/inscribe/internal/mcpserver"
	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/noteservice"
	"github.com/starford/inscribe/internal/sse"
)

// components are shared by every command.
type components struct {
	cfg    *Config
	logger *slog.Logger
	store  kv.Store
	blobs  *blobstore.FS
	svc    *noteservice.Service
}

func (c *components) Close() {
	if err := c.store.Close(); err != nil {
		c.logger.Error("close storage", slog.String("error", err.Error()))
	}
}

// setup applies opts, installs the logger and opens storage. extra service
// options are appended after the logger.
func setup(opts []Option, extra ...noteservice.Option) (*components, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("blobs_path", cfg.Blobs.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("fee_charge", cfg.Fees.Charge),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := kv.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	blobs, err := blobstore.NewFS(cfg.Blobs.Path)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init blobs: %w", err)
	}

	svcOpts := append([]noteservice.Option{noteservice.WithLogger(logger)}, extra...)
	svc := noteservice.NewService(store, identity.ContextVerifier{}, fee.NewPolicy(cfg.Fees.Transferer()), svcOpts...)

	c := &components{cfg: cfg, logger: logger, store: store, blobs: blobs, svc: svc}
	if err := c.bootstrap(context.Background()); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// bootstrap initializes the contract from configuration on first start.
func (c *components) bootstrap(ctx context.Context) error {
	op := c.cfg.Contract.Operator
	if op == "" {
		return nil
	}
	err := c.svc.Initialize(ctx, models.Identity(op), c.cfg.Contract.FeeOrDefault())
	if errors.Is(err, apperr.ErrAlreadyInitialized) {
		c.logger.Debug("contract already initialized, bootstrap skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap contract: %w", err)
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	// SSE broker, created once the config is known. Changes made while
	// bootstrapping have no subscribers yet.
	var broker *sse.Broker
	c, err := setup(opts, noteservice.WithObserver(func(ev noteservice.Event) {
		if broker != nil {
			broker.Observe(ev)
		}
	}))
	if err != nil {
		return err
	}
	defer c.Close()

	cfg, logger := c.cfg, c.logger
	broker = sse.NewBroker(cfg.Events.CounterThrottle)
	defer broker.Close()

	// Tokens are only consulted in token mode; nil selects header identities.
	var auth api.Authenticator
	var tokens *identity.Tokens
	if cfg.Auth.AuthEnabled() {
		tokens, err = identity.LoadTokens(cfg.Auth.TokensFile)
		if err != nil {
			return fmt.Errorf("load tokens: %w", err)
		}
		logger.Info("Tokens loaded", slog.Int("count", tokens.Len()))
		auth = tokens
	}

	apiRouter := api.NewRouter(c.svc, c.blobs, auth, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.svc.TotalCount(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Blob bodies are public: pointers are content hashes.
	r.Get("/blobs/{pointer}", api.NewBlobHandler(c.blobs).ServeBlob)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	// Reload tokens when the file changes.
	if tokens != nil {
		g.Go(func() error {
			if err := tokens.Watch(gCtx, logger); err != nil {
				logger.Warn("token watcher stopped", slog.String("error", err.Error()))
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
		// Stop the remaining workers.
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

// RunMCP serves the MCP tools on stdio, acting as the configured identity.
func RunMCP(_ context.Context, opts ...Option) error {
	c, err := setup(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	self := models.Identity(c.cfg.MCP.Identity)
	if self == "" {
		return fmt.Errorf("mcp: identity is required")
	}
	c.logger.Info("MCP server starting", slog.String("identity", self.String()))
	return mcpserver.New(c.svc, c.blobs, self).ServeStdio()
}

// RunImport creates one note per Markdown file under dir, owned by owner.
// The command line is trusted to act as owner.
func RunImport(ctx context.Context, owner models.Identity, dir string, opts ...Option) (importer.Result, error) {
	c, err := setup(opts)
	if err != nil {
		return importer.Result{}, err
	}
	defer c.Close()

	res, err := importer.Import(identity.WithPrincipal(ctx, owner), c.svc, c.blobs, dir, owner, c.logger)
	c.logger.Info("Import finished",
		slog.String("owner", owner.String()),
		slog.Int("created", len(res.Notes)),
		slog.Int("skipped", len(res.Skipped)))
	return res, err
}

// RunInitialize configures the contract operator and fee.
func RunInitialize(ctx context.Context, operator models.Identity, amount uint64, opts ...Option) error {
	c, err := setup(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.svc.Initialize(ctx, operator, amount)
}
