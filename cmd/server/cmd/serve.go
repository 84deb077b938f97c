package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/localevents/internal/api"
	"github.com/Togather-Foundation/localevents/internal/auth"
	"github.com/Togather-Foundation/localevents/internal/config"
	"github.com/Togather-Foundation/localevents/internal/metrics"
	"github.com/Togather-Foundation/localevents/internal/storage"
	"github.com/Togather-Foundation/localevents/internal/storage/memory"
	"github.com/Togather-Foundation/localevents/internal/storage/postgres"
	"github.com/Togather-Foundation/localevents/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// serveOptions override config values when set.
type serveOptions struct {
	host    string
	port    int
	storage string
}

func newServeCommand(global *globalOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the events HTTP server",
		Long: `Start the events HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Connect to PostgreSQL (or use the in-memory store with --storage memory)
- Apply migrations when DATABASE_AUTO_MIGRATE=true
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  localevents serve

  # Start on a specific host and port
  localevents serve --host 127.0.0.1 --port 9090

  # Run without a database
  localevents serve --storage memory --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 5000)")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "storage driver: postgres or memory (default: STORAGE_DRIVER)")
	return cmd
}

func runServer(ctx context.Context, global *globalOptions, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.storage != "" {
		// config.Load validates the driver, so the override goes in first.
		if err := os.Setenv("STORAGE_DRIVER", opts.storage); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(global)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("storage", cfg.Storage.Driver).Msg("starting events server")

	metrics.Init(Version, GitCommit, BuildDate, cfg.Storage.Driver)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version, cfg.Environment)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize tracing")
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	repo, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	handler := api.NewRouter(cfg, logger, repo, tokens, api.BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serveUntilDone(sigCtx, server, logger)
}

// serveUntilDone runs server until ctx ends or the listener fails, then
// drains in-flight requests.
func serveUntilDone(ctx context.Context, server *http.Server, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	})
	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.Repository, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("database migrations applied")
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := postgres.Open(openCtx, cfg.Database.URL, postgres.PoolConfig{
		MaxConns:        int32(cfg.Database.MaxConnections),
		MinConns:        int32(cfg.Database.MinConnections),
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go metrics.NewDBCollector(pool).Run(collectorCtx, 15*time.Second)
	logger.Info().Msg("database metrics collector started")

	return repo, func() {
		collectorCancel()
		repo.Close()
	}, nil
}

func loadConfig(global *globalOptions) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	// Override logging from flags if provided
	if global.logLevel != "" {
		cfg.Logging.Level = global.logLevel
	}
	if global.logFormat != "" {
		cfg.Logging.Format = global.logFormat
	}
	return cfg, nil
}
