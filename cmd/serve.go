package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/larkhq/lark/db"
	"github.com/larkhq/lark/internal/api"
	"github.com/larkhq/lark/internal/auth"
	"github.com/larkhq/lark/internal/chat"
	"github.com/larkhq/lark/internal/config"
	"github.com/larkhq/lark/internal/model"
	"github.com/larkhq/lark/internal/observability"
	"github.com/larkhq/lark/internal/store"
	"github.com/larkhq/lark/internal/tools"
	"github.com/larkhq/lark/internal/venues"
	"github.com/larkhq/lark/internal/weather"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // streaming responses need headroom
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var flagDev bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&flagDev, "dev", false, "serve from an in-memory store (no PostgreSQL)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("trace flush failed", "error", err)
			}
		}()
	}

	var (
		repo apiStore
		pool *pgxpool.Pool
	)
	if flagDev {
		logger.Warn("serving from in-memory store, data will not survive restarts")
		repo = store.NewMemory()
	} else {
		if err := db.Migrate(cfg.DatabaseURL()); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		repo = store.NewPostgres(pool, logger.With("component", "store"))
	}

	registry, err := tools.DefaultRegistry(
		venues.NewCatalog(),
		weather.New(),
		venues.DefaultLocation,
	)
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	gemini, err := model.NewGemini(ctx, cfg.GeminiAPIKey, cfg.ModelName,
		logger.With("component", "model"))
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}

	orchestrator, err := chat.New(chat.Config{
		Repo:     repo,
		Registry: registry,
		Model:    gemini,
		Logger:   logger.With("component", "chat"),
	})
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}

	server, err := api.NewServer(api.ServerConfig{
		Logger:      logger.With("component", "api"),
		Sender:      orchestrator,
		Store:       repo,
		Verifier:    auth.NewJWTVerifier([]byte(cfg.JWTSecret)),
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		IsDev:       flagDev,
		TrustProxy:  cfg.TrustProxy,
		RateRPS:     cfg.RateLimitRPS,
		RateBurst:   cfg.RateLimitBurst,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "model", cfg.ModelName)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// apiStore is what serve needs from either store implementation.
type apiStore interface {
	api.Store
	chat.Repository
}
