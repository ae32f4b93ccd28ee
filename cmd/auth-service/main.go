package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/local-auth/internal/config"
	"github.com/pribylovaa/local-auth/internal/hasher"
	"github.com/pribylovaa/local-auth/internal/limiter"
	"github.com/pribylovaa/local-auth/internal/metrics"
	"github.com/pribylovaa/local-auth/internal/pkg/log"
	"github.com/pribylovaa/local-auth/internal/service"
	"github.com/pribylovaa/local-auth/internal/storage"
	"github.com/pribylovaa/local-auth/internal/storage/memory"
	"github.com/pribylovaa/local-auth/internal/storage/postgres"
	"github.com/pribylovaa/local-auth/internal/tokens"
	authgrpc "github.com/pribylovaa/local-auth/internal/transport/grpc"
	authhttp "github.com/pribylovaa/local-auth/internal/transport/http"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	logger := log.New(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("starting application", slog.String("env", cfg.Env))

	if err := run(cfg, logger); err != nil {
		logger.Error("service_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger.Info("service_stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	st, err := openStorage(rootCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	passwords, err := hasher.New(cfg.Hashing.PasswordAlgorithm, cfg.Hashing.Argon2, cfg.Hashing.BcryptCost)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	// Refresh-токены длиннее 72 байт, поэтому только argon2id.
	refreshHashes, err := hasher.NewArgon2(cfg.Hashing.Argon2)
	if err != nil {
		return fmt.Errorf("refresh hasher: %w", err)
	}

	signer, err := tokens.New(cfg.Auth)
	if err != nil {
		return err
	}

	var opts []service.Option
	if cfg.Redis.RedisURL != "" {
		rctx, rcancel := context.WithTimeout(rootCtx, 5*time.Second)
		lim, err := limiter.NewFromURL(rctx, cfg.Redis.RedisURL, limiter.Config{
			MaxAttempts: cfg.Limiter.MaxAttempts,
			Cooldown:    cfg.Limiter.Cooldown,
			Prefix:      cfg.Limiter.Prefix,
		})
		rcancel()
		if err != nil {
			return fmt.Errorf("redis limiter: %w", err)
		}
		defer func() { _ = lim.Close() }()

		opts = append(opts, service.WithLimiter(lim))
		logger.Info("login_limiter_enabled", slog.Int("max_attempts", cfg.Limiter.MaxAttempts))
	}

	svc := service.New(st, signer, passwords, refreshHashes, opts...)
	logger.Info("service_initialized", slog.String("password_algorithm", cfg.Hashing.PasswordAlgorithm))

	// HTTP.
	m := metrics.New(prometheus.DefaultRegisterer)

	router := authhttp.NewRouter(svc, signer, authhttp.Options{
		Logger:         logger,
		Timeout:        cfg.Timeouts.Service,
		BasePath:       cfg.HTTP.BasePath,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
		Ready:          st.Ping,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 2)

	go func() {
		logger.Info("http_listen_start", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	// gRPC health.
	var grpcSrv *authgrpc.Server
	if cfg.GRPC.Enabled() {
		grpcSrv = authgrpc.New(authgrpc.Options{
			Logger:     logger,
			Timeout:    cfg.Timeouts.Service,
			Reflection: cfg.Env == log.EnvLocal || cfg.Env == log.EnvDev,
			Metrics:    true,
		})

		lis, err := net.Listen("tcp", cfg.GRPC.Addr())
		if err != nil {
			_ = httpSrv.Close()
			return fmt.Errorf("grpc listen %s: %w", cfg.GRPC.Addr(), err)
		}
		logger.Info("grpc_listen_start", slog.String("addr", cfg.GRPC.Addr()))

		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				serveErrCh <- err
			}
		}()

		go grpcSrv.WatchReadiness(rootCtx, st.Ping, 5*time.Second)
	}

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown_requested")
	case runErr = <-serveErrCh:
	}

	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer shutdownCancel()

	if grpcSrv != nil {
		grpcSrv.Shutdown(shutdownCtx)
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_shutdown_failed", slog.String("err", err.Error()))
	}

	return runErr
}

// openStorage подключает хранилище по cfg.DB.Driver и при необходимости
// применяет миграции.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.DB.Driver == config.StorageDriverMemory {
		logger.Warn("storage_memory", slog.String("note", "data is lost on restart"))
		return memory.New(), nil
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	if !cfg.DB.SkipMigrate {
		if err := postgres.Migrate(dbCtx, cfg.DB.DatabaseURL); err != nil {
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		logger.Info("postgres_migrated")
	}

	st, err := postgres.New(dbCtx, cfg.DB.DatabaseURL,
		postgres.WithMaxConns(cfg.DB.MaxConns),
		postgres.WithMaxConnIdleTime(cfg.DB.MaxConnIdleTime),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	logger.Info("postgres_connected")

	return st, nil
}
