package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evyataryagoni/addresslookup/internal/logger"
	"github.com/evyataryagoni/addresslookup/internal/matcher"
	"github.com/evyataryagoni/addresslookup/internal/metrics"
	"github.com/evyataryagoni/addresslookup/internal/models"
	"github.com/evyataryagoni/addresslookup/internal/store"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("addresslookup/internal/service")

// AddressService is the address matcher: it validates queries, builds the
// fuzzy or exact statement for the store's dialect, runs it and ranks the rows
//
// Responsibilities:
//   - Validate input (trimmed, non-empty query)
//   - Build and run the statement on the store
//   - Re-apply fuzzy ranking and enforce per-mode caps
//   - Wrap store failures as StorageError
type AddressService struct {
	store     store.Store         // The injected SQL capability
	builder   *matcher.Builder    // Renders statements for the store's dialect
	validator *validator.Validate // Validator for input validation
	metrics   *metrics.Metrics    // Metrics collector
	logger    *logger.Logger      // Structured logger
}

// NewAddressService creates a new address service
//
// Parameters:
//   - st: any implementation of the Store interface
//   - schema: the relation and columns to search
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewAddressService(st store.Store, schema matcher.Schema, m *metrics.Metrics, log *logger.Logger) *AddressService {
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("AddressService")

	if err := schema.Validate(); err != nil {
		log.Warn().Err(err).Msg("Invalid address schema, falling back to default")
		schema = matcher.DefaultSchema()
	}

	return &AddressService{
		store:     st,
		builder:   matcher.NewBuilder(st.Dialect(), schema),
		validator: validator.New(),
		metrics:   m,
		logger:    log,
	}
}

// FuzzySearch returns up to 50 records containing the query, best matches first
func (s *AddressService) FuzzySearch(ctx context.Context, query string) (*models.ResultSet, error) {
	return s.search(ctx, models.ModeFuzzy, query)
}

// ExactSearch returns up to 10 records equal to the query, ignoring case
func (s *AddressService) ExactSearch(ctx context.Context, query string) (*models.ResultSet, error) {
	return s.search(ctx, models.ModeExact, query)
}

// Search dispatches on the match mode
func (s *AddressService) Search(ctx context.Context, mode models.MatchMode, query string) (*models.ResultSet, error) {
	switch mode {
	case models.ModeFuzzy, models.ModeExact:
		return s.search(ctx, mode, query)
	default:
		return nil, fmt.Errorf("unknown match mode: %q", mode)
	}
}

func (s *AddressService) search(ctx context.Context, mode models.MatchMode, query string) (*models.ResultSet, error) {
	log := s.logger.WithMode(string(mode))
	term := strings.TrimSpace(query)

	// Step 1: Validate before touching the store
	if err := s.validator.Var(term, "required"); err != nil {
		log.Warn().Msg("Empty address query")
		s.countError(mode, "validation")
		return nil, ErrInvalidInput
	}

	// Step 2: Build the statement for the store's dialect
	var stmt matcher.Statement
	var limit int
	if mode == models.ModeFuzzy {
		stmt = s.builder.Fuzzy(term)
		limit = matcher.FuzzyLimit
	} else {
		stmt = s.builder.Exact(term)
		limit = matcher.ExactLimit
	}

	// Step 3: Query the store
	op := string(mode) + "_search"
	log.Debug().Str("query", term).Msg("Searching addresses")

	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", s.builder.Dialect().Name()),
		attribute.Int("address.limit", limit),
	)

	start := time.Now()
	records, err := s.store.Query(ctx, stmt.SQL, stmt.Args...)
	s.observeQuery(op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store query failed")
		log.Error().Err(err).Str("query", term).Msg("Store error during address search")
		s.countError(mode, "store_error")
		return nil, &StorageError{Op: op, Err: err}
	}

	// Step 4: Rank and cap
	if mode == models.ModeFuzzy {
		matcher.SortByRank(records, term)
	}
	records = matcher.Truncate(records, limit)
	if records == nil {
		records = []models.AddressRecord{}
	}

	span.SetAttributes(attribute.Int("address.results", len(records)))

	log.Info().
		Str("query", term).
		Int("count", len(records)).
		Msg("Address search completed")

	if s.metrics != nil {
		result := "found"
		if len(records) == 0 {
			result = "empty"
		}
		s.metrics.AddressSearchesTotal.WithLabelValues(string(mode), result).Inc()
		s.metrics.AddressSearchResults.WithLabelValues(string(mode)).Observe(float64(len(records)))
	}

	return &models.ResultSet{Mode: mode, Records: records}, nil
}

// HealthCheck round-trips the store; failures come back as Unhealthy, never as errors
func (s *AddressService) HealthCheck(ctx context.Context) (status models.HealthStatus) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Health check panicked")
			status = models.HealthStatus{Healthy: false, Reason: fmt.Sprint(r)}
			s.countHealth(status)
		}
	}()

	start := time.Now()
	err := s.store.Ping(ctx)
	s.observeQuery("health_check", start, err)

	if err != nil {
		s.logger.Warn().Err(err).Msg("Backing store unreachable")
		status = models.HealthStatus{Healthy: false, Reason: err.Error()}
	} else {
		status = models.HealthStatus{Healthy: true}
	}

	s.countHealth(status)
	return status
}

// Close cleans up resources
// This will close the underlying store (database connections, etc.)
func (s *AddressService) Close() error {
	return s.store.Close()
}

func (s *AddressService) observeQuery(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	datastore := s.builder.Dialect().Name()
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.DatastoreQueriesTotal.WithLabelValues(datastore, op, status).Inc()
	s.metrics.DatastoreQueryDuration.WithLabelValues(datastore, op).Observe(time.Since(start).Seconds())
}

func (s *AddressService) countError(mode models.MatchMode, errorType string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AddressSearchErrors.WithLabelValues(string(mode), errorType).Inc()
	s.metrics.AddressSearchesTotal.WithLabelValues(string(mode), "error").Inc()
}

func (s *AddressService) countHealth(status models.HealthStatus) {
	if s.metrics == nil {
		return
	}
	label := "healthy"
	if !status.Healthy {
		label = "unhealthy"
	}
	s.metrics.HealthChecksTotal.WithLabelValues(label).Inc()
}
