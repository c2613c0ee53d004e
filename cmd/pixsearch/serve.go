package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/pixsearch/internal/config"
	"github.com/kailas-cloud/pixsearch/internal/db"
	"github.com/kailas-cloud/pixsearch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/pixsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/pixsearch/internal/logger"
	"github.com/kailas-cloud/pixsearch/internal/metrics"
	sessionrepo "github.com/kailas-cloud/pixsearch/internal/repository/session"
	chiTransport "github.com/kailas-cloud/pixsearch/internal/transport/chi"
	"github.com/kailas-cloud/pixsearch/internal/transport/pixabay"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
	healthuc "github.com/kailas-cloud/pixsearch/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
	"github.com/kailas-cloud/pixsearch/internal/version"
)

const sweepInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web gallery and JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pixsearch server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("session_driver", cfg.Session.Driver),
		zap.Strings("session_addrs", cfg.Session.Addrs),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Session store ready", zap.String("driver", cfg.Session.Driver))

	metrics.RegisterPixabayMetrics()
	metrics.RegisterSessionMetrics()

	client := newPixabayClient(cfg.Pixabay, logger)
	renderer := gallery.NewRenderer(cfg.Pixabay.PageSize)
	registry := sessionuc.NewRegistry(client, renderer,
		sessionrepo.New(store, cfg.Session.KeyPrefix, cfg.Session.TTL())).
		WithTransitionHook(func(from, to sessionuc.Status) {
			metrics.ObserveTransition(string(from), string(to))
		}).
		WithStaleHook(metrics.SessionStaleResultsTotal.Inc)

	prometheus.MustRegister(metrics.NewLiveSessionsGauge(registry.Live))
	if mem, ok := store.(*memory.Store); ok {
		prometheus.MustRegister(metrics.NewStoredKeysGauge(mem.Len))
	}

	healthSvc := healthuc.New(store, client)

	server := chiTransport.NewServer(registry, client, renderer, healthSvc, logger).
		WithAPIKeys(cfg.Auth.APIKeys).
		WithSessionCookie(cfg.Session.TTL(), env == "prod")

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if mem, ok := store.(*memory.Store); ok {
		g.Go(func() error {
			mem.RunSweeper(gctx, sweepInterval)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// openStore creates the session store for the configured driver and waits until it answers.
func openStore(ctx context.Context, cfg config.SessionConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverValkey, config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Password:   cfg.Password,
			ClientName: "pixsearch",
		})
	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("session store not ready: %w", err)
	}
	return store, nil
}

func newPixabayClient(cfg config.PixabayConfig, logger *zap.Logger) *pixabay.Client {
	return pixabay.NewClient(&pixabay.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout(),
		MaxAttempts:  cfg.MaxAttempts,
		BaseBackoff:  cfg.BaseBackoff(),
		MaxBackoff:   cfg.MaxBackoff(),
		DefaultReset: cfg.DefaultReset(),
		Logger:       logger,
	})
}
