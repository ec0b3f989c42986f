package store

import (
	"context"
	"strings"

	"github.com/evyataryagoni/addresslookup/internal/matcher"
	"github.com/evyataryagoni/addresslookup/internal/models"
)

// QueryCall records one Query invocation
type QueryCall struct {
	SQL  string
	Args []any
}

// MockStore is a test double for the Store interface
// It allows tests to control behavior and verify interactions
//
// Query emulates the matcher statements in memory: three bound arguments
// mean a fuzzy lookup (containment on the second), one means exact equality.
// Matches come back in insertion order and uncapped, like an unordered table.
type MockStore struct {
	// Records holds the mock address table
	Records []models.AddressRecord

	// Track method calls for verification in tests
	QueryCalls  []QueryCall
	PingCalls   int
	CloseCalled bool

	// Control behavior for error scenarios
	QueryError error
	PingError  error
	CloseError error

	// DialectValue overrides the reported dialect (defaults to Postgres)
	DialectValue matcher.Dialect
}

// NewMockStore creates a mock store with sample address data
func NewMockStore() *MockStore {
	return &MockStore{
		Records: []models.AddressRecord{
			{FullAddress: "456 Main St", City: "Dunedin", ZipCode: "34698"},
			{FullAddress: "123 Main Street", City: "Clearwater", ZipCode: "33756"},
			{FullAddress: "123 Main St", City: "Clearwater", ZipCode: "33755"},
			{FullAddress: "789 Gulf Blvd", City: "St Pete Beach", ZipCode: "33706"},
			{FullAddress: "100 1st Ave N", City: "St Petersburg", ZipCode: "33701"},
		},
		QueryCalls: []QueryCall{},
	}
}

// NewEmptyMockStore creates a mock store with no data
// Useful for testing "no results" scenarios
func NewEmptyMockStore() *MockStore {
	return &MockStore{
		Records:    []models.AddressRecord{},
		QueryCalls: []QueryCall{},
	}
}

// Query implements the Store interface
func (m *MockStore) Query(_ context.Context, query string, args ...any) ([]models.AddressRecord, error) {
	m.QueryCalls = append(m.QueryCalls, QueryCall{SQL: query, Args: args})

	if m.QueryError != nil {
		return nil, m.QueryError
	}

	var match func(string) bool
	switch len(args) {
	case 3:
		term, _ := args[1].(string)
		match = func(addr string) bool { return matcher.Contains(addr, term) }
	case 1:
		term, _ := args[0].(string)
		match = func(addr string) bool { return strings.EqualFold(addr, term) }
	default:
		return []models.AddressRecord{}, nil
	}

	results := []models.AddressRecord{}
	for _, r := range m.Records {
		if match(r.FullAddress) {
			results = append(results, r)
		}
	}
	return results, nil
}

// Ping implements the Store interface
func (m *MockStore) Ping(context.Context) error {
	m.PingCalls++
	return m.PingError
}

// Dialect implements the Store interface
func (m *MockStore) Dialect() matcher.Dialect {
	if m.DialectValue != nil {
		return m.DialectValue
	}
	return matcher.Postgres{}
}

// Close implements the Store interface
// Tracks that close was called and returns configured error if any
func (m *MockStore) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
