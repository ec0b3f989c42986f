package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/addresslookup/internal/config"
	"github.com/evyataryagoni/addresslookup/internal/handler"
	"github.com/evyataryagoni/addresslookup/internal/limiter"
	"github.com/evyataryagoni/addresslookup/internal/logger"
	"github.com/evyataryagoni/addresslookup/internal/matcher"
	"github.com/evyataryagoni/addresslookup/internal/metrics"
	"github.com/evyataryagoni/addresslookup/internal/router"
	"github.com/evyataryagoni/addresslookup/internal/service"
	"github.com/evyataryagoni/addresslookup/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	_ "go.uber.org/automaxprocs"
)

// shutdownTimeout bounds how long in-flight requests may take to drain
const shutdownTimeout = 10 * time.Second

// @title           Address Lookup API
// @version         1.0
// @description     Fuzzy and exact search over a table of street addresses.

// @host      localhost:5000
// @BasePath  /
func main() {
	// Load configuration
	appConfig := config.Load()

	// Initialize components
	appLogger := setupLogger(appConfig)
	if err := appConfig.Validate(); err != nil {
		appLogger.Fatal().Err(err).Msg("Invalid configuration")
	}

	dataStore := setupDataStore(appConfig, appLogger)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	metricsCollector := setupMetrics(dataStore, appConfig, appLogger)

	if appConfig.TracingEnabled {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		appLogger.Info().Msg("Request tracing enabled")
	}

	// Build application layers
	schema := matcher.DefaultSchema().WithTable(appConfig.AddressTable)
	addressService := service.NewAddressService(dataStore, schema, metricsCollector, appLogger)
	defer addressService.Close()

	addressHandler := handler.NewAddressHandler(addressService, appLogger)
	appRouter := router.SetupRouter(router.Options{
		Handler: addressHandler,
		Limiter: rateLimiter,
		Metrics: metricsCollector,
		Logger:  appLogger,
		Tracing: appConfig.TracingEnabled,
	})

	// Start server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := startServer(ctx, appConfig, appRouter, appLogger); err != nil {
		appLogger.Error().Err(err).Msg("Server failed")
	}
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting Address Lookup Server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("db_driver", appConfig.DBDriver).
		Str("db_host", appConfig.DBHost).
		Int("db_port", appConfig.DBPort).
		Str("db_name", appConfig.DBName).
		Str("address_table", appConfig.AddressTable).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Msg("Configuration loaded")

	return appLogger
}

// startupPingTimeout bounds the boot-time reachability check
const startupPingTimeout = 5 * time.Second

// setupDataStore opens the address database for the configured driver
// An unreachable database is logged, not fatal: /health reports it per request
func setupDataStore(appConfig *config.Config, log *logger.Logger) store.Store {
	dataStore, err := store.New(store.Config{
		Driver: appConfig.DBDriver,
		DSN:    appConfig.DSN(),
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", appConfig.DBDriver).Msg("Failed to initialize address store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()
	if err := dataStore.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("driver", appConfig.DBDriver).Msg("Address store unreachable at startup, serving anyway")
		return dataStore
	}

	log.Info().Str("driver", appConfig.DBDriver).Msg("Address store initialized")
	return dataStore
}

// setupRateLimiter initializes the rate limiter
// Supports in-memory and Redis-based rate limiting
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	effectiveRate := appConfig.RequestsPerSecond()

	rateLimiter, err := limiter.NewLimiter(limiter.LimiterConfig{
		Type:              appConfig.RateLimitType,
		RequestsPerSecond: effectiveRate,
		RedisAddr:         appConfig.RedisAddr,
		RedisPassword:     appConfig.RedisPassword,
		RedisDB:           appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Int("limit", appConfig.RateLimit).
		Int("window_seconds", appConfig.RateLimitWindow).
		Float64("requests_per_second", effectiveRate).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// setupMetrics initializes the Prometheus metrics collector
// Connection pool stats are exported for stores backed by database/sql
func setupMetrics(dataStore store.Store, appConfig *config.Config, log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New()

	if backed, ok := dataStore.(store.SQLBacked); ok && backed.DB() != nil {
		prometheus.MustRegister(collectors.NewDBStatsCollector(backed.DB(), appConfig.DBName))
	}

	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// startServer serves until ctx is cancelled, then drains in-flight requests
func startServer(ctx context.Context, appConfig *config.Config, appRouter http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().
		Str("port", appConfig.Port).
		Str("search_page", "http://localhost:"+appConfig.Port+"/").
		Str("search_endpoint", "POST http://localhost:"+appConfig.Port+"/search").
		Str("health_check", "http://localhost:"+appConfig.Port+"/health").
		Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
		Str("swagger", "http://localhost:"+appConfig.Port+"/swagger/index.html").
		Msg("Server is running")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
