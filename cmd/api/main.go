package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"courtfinder/internal/api"
	"courtfinder/internal/config"
	"courtfinder/internal/ebusy"
	"courtfinder/internal/engine"
	"courtfinder/internal/logging"
	"courtfinder/internal/metrics"
	"courtfinder/internal/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	courts, err := registry.LoadFile(cfg.Registry.Path)
	if err != nil {
		logger.Error().Err(err).Str("registry_path", cfg.Registry.Path).Msg("load court registry")
		return err
	}
	logger.Info().Int("courts", courts.Len()).Int("version", courts.Version()).Msg("court registry loaded")

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	client := ebusy.NewClient(providerOptions(cfg.Provider), courts, logging.Component(&logger, "ebusy"))
	if redisClient != nil && cfg.Provider.CacheTTL > 0 {
		client.UseRedisCache(redisClient, time.Duration(cfg.Provider.CacheTTL)*time.Second)
		logger.Info().Int("ttl_seconds", cfg.Provider.CacheTTL).Msg("reservation cache enabled")
	}

	eng := engine.New(client, courts, engine.Options{
		Window:          cfg.Engine.Window(),
		Location:        cfg.Engine.Location(),
		DefaultDuration: time.Duration(cfg.Engine.DefaultDurationMinutes) * time.Minute,
		SearchRadius:    cfg.Engine.SearchRadiusHours,
	}, logging.Component(&logger, "engine"))

	httpServer := api.NewHTTPServer(&cfg.API, eng, courts, redisClient, logging.Component(&logger, "http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func providerOptions(p config.ProviderConfig) ebusy.Options {
	return ebusy.Options{
		BaseURL: p.BaseURL,
		Path:    p.Path,
		Timeout: p.Timeout(),
		Retry: ebusy.RetryPolicy{
			MaxRetries:    p.Retry.Retries(),
			InitialDelay:  time.Duration(p.Retry.InitialDelayMS) * time.Millisecond,
			MaxDelay:      time.Duration(p.Retry.MaxDelayMS) * time.Millisecond,
			BackoffFactor: p.Retry.BackoffFactor,
		},
	}
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without reservation cache")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Str("provider", cfg.Provider.BaseURL).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server stopped")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
