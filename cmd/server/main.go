package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/meshit/meshit/internal/app"
	"github.com/meshit/meshit/internal/auth"
	"github.com/meshit/meshit/internal/config"
	"github.com/meshit/meshit/internal/effects"
	"github.com/meshit/meshit/internal/embedding"
	"github.com/meshit/meshit/internal/events"
	"github.com/meshit/meshit/internal/logging"
	"github.com/meshit/meshit/internal/mcp"
	"github.com/meshit/meshit/internal/postgres"
	"github.com/meshit/meshit/internal/sqlite"
	"github.com/meshit/meshit/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	logger, logCloser, err := logging.New(logWriter, cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log error: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	deps := app.Deps{DB: db, Config: cfg, Logger: logger}

	if cfg.Vector.PostgresURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.Vector.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect vector store: %w", err)
		}
		defer pool.Close()
		store := postgres.NewStore(pool, logger.With("component", "vector"))
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("prepare vector store: %w", err)
		}
		deps.Vector = store
		logger.Info("vector similarity served by postgres")
	}

	if cfg.Redis.URL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		deps.Publisher = events.NewRedisPublisher(rdb)
		logger.Info("realtime events published to redis")
	}

	if cfg.Embedding.Endpoint != "" {
		deps.Generator = embedding.NewHTTPGenerator(cfg.Embedding.Endpoint, &http.Client{Timeout: 30 * time.Second})
	}

	runner := effects.NewRunner(logger.With("component", "effects"), effects.DefaultTimeout)
	deps.Launcher = runner
	defer func() {
		waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := runner.Wait(waitCtx); err != nil {
			logger.Warn("background effects still running at exit", "error", err)
		}
	}()

	a, err := app.New(deps)
	if err != nil {
		return err
	}

	if cfg.Skills.SeedPath != "" {
		n, err := app.LoadSkillTree(ctx, sqlite.NewSkillRepository(db), cfg.Skills.SeedPath)
		if err != nil {
			return fmt.Errorf("seed skill tree: %w", err)
		}
		logger.Info("skill tree seeded", "path", cfg.Skills.SeedPath, "created", n)
	}

	jobs := a.Scheduler(cfg.Scheduler, logger.With("component", "scheduler"))
	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { <-jobs.Stop().Done() }()

	var resolver auth.ActorResolver = auth.Static(cfg.Auth.DefaultActor)
	if cfg.Auth.Enabled && cfg.Transport.Mode == "http" {
		verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		resolver = verifier
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		Resolver:      resolver,
		AuthEnabled:   cfg.Auth.Enabled,
		DefaultActor:  cfg.Auth.DefaultActor,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, mcpServer, cfg.Auth.DefaultActor)
	}
	return runHTTPMode(ctx, logger, cfg, a, mcpServer, resolver)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, actorID string) error {
	logger.Info("starting stdio transport", "actor", actorID)

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, cfg config.Config, a *app.App, mcpServer *sdkmcp.Server, resolver auth.ActorResolver) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	authn := transport.AuthMiddleware(resolver)
	if !cfg.Auth.Enabled {
		authn = transport.StaticActorMiddleware(cfg.Auth.DefaultActor)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr: addr,
		Handler: transport.NewServer(a.HTTPServices(), authn, transport.Options{
			CORSOrigins: cfg.Server.CORSOrigins,
			Logger:      logger.With("component", "http"),
			MCP:         mcpHandler,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
