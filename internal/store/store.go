package store

import (
	"context"
	"database/sql"

	"github.com/evyataryagoni/addresslookup/internal/matcher"
	"github.com/evyataryagoni/addresslookup/internal/models"
)

// Store is the read-only SQL capability the address service runs its statements on
// Implementations acquire a scoped connection per call and release it on every path
type Store interface {
	// Query runs a SELECT whose projection uses the matcher aliases
	// (full_address, city, zip_code) and returns the rows as records
	Query(ctx context.Context, query string, args ...any) ([]models.AddressRecord, error)

	// Ping performs a trivial round-trip to confirm the store is reachable
	Ping(ctx context.Context) error

	// Dialect tells the query builder how to render SQL for this store
	Dialect() matcher.Dialect

	// Close cleans up resources (database connections, etc.)
	Close() error
}

// SQLBacked is implemented by stores that sit on a database/sql pool
type SQLBacked interface {
	DB() *sql.DB
}
