package store

import (
	"fmt"

	"github.com/evyataryagoni/addresslookup/internal/matcher"
)

// Config holds configuration for opening a store
type Config struct {
	Driver string // "postgres" or "mysql"
	DSN    string // Driver-specific data source name
}

// New opens a store based on the configured driver (factory pattern)
// The handle is lazy: a failure here means a bad driver or DSN, never an
// unreachable server
func New(cfg Config) (Store, error) {
	dialect, err := matcher.DialectFor(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unknown datastore driver: %w", err)
	}

	switch dialect.(type) {
	case matcher.Postgres:
		st, err := NewPostgresStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil

	case matcher.MySQL:
		st, err := NewMySQLStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil

	default:
		return nil, fmt.Errorf("no store for dialect %s", dialect.Name())
	}
}
