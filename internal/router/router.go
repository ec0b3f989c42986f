package router

import (
	"github.com/evyataryagoni/addresslookup/internal/handler"
	"github.com/evyataryagoni/addresslookup/internal/limiter"
	"github.com/evyataryagoni/addresslookup/internal/logger"
	"github.com/evyataryagoni/addresslookup/internal/metrics"
	custommiddleware "github.com/evyataryagoni/addresslookup/internal/middleware"
	v1 "github.com/evyataryagoni/addresslookup/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/evyataryagoni/addresslookup/docs" // Swagger docs
)

// Options holds router dependencies
type Options struct {
	Handler  *handler.AddressHandler
	Limiter  limiter.Limiter
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer // Defaults to prometheus.DefaultGatherer
	Tracing  bool                // Wrap requests in OpenTelemetry server spans
}

// SetupRouter creates and configures the Chi router with all middleware and routes
//
// Search routes are rate limited per client; the page, health, metrics and
// docs endpoints are not.
func SetupRouter(opts Options) chi.Router {
	r := chi.NewRouter()

	// Order matters! RequestID first so every log line carries it
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(opts.Logger))
	r.Use(middleware.Recoverer)
	if opts.Tracing {
		r.Use(custommiddleware.TracingMiddleware("addrlookup"))
	}
	r.Use(custommiddleware.MetricsMiddleware(opts.Metrics))

	h := opts.Handler

	// Search page
	r.Get("/", h.Index)

	r.Group(func(r chi.Router) {
		r.Use(custommiddleware.RateLimitMiddleware(opts.Limiter))

		// Unversioned search endpoints used by the page
		v1.RegisterRoutes(r, h)

		// Versioned aliases: /v1/search, /v1/search/exact
		r.Mount("/v1", v1.SetupRoutes(h))
	})

	// Health check endpoint - round-trips the database
	r.Get("/health", h.Health)

	// Prometheus metrics endpoint
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Swagger UI endpoint - API documentation
	// Access at: http://localhost:5000/swagger/index.html
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
