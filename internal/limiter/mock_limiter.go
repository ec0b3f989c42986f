package limiter

import (
	"context"
	"sync"
)

// MockLimiter is a test double for the Limiter interface
// It lets tests force allow/deny and inspect which clients were checked
type MockLimiter struct {
	mu sync.Mutex

	AllowResult bool

	AllowCalls  []string // Client keys passed to Allow
	CloseCalled bool

	CloseError error
}

// NewMockLimiter creates a mock limiter that always answers allowResult
func NewMockLimiter(allowResult bool) *MockLimiter {
	return &MockLimiter{
		AllowResult: allowResult,
		AllowCalls:  []string{},
	}
}

// Allow records the client and returns AllowResult
func (m *MockLimiter) Allow(_ context.Context, client string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AllowCalls = append(m.AllowCalls, client)
	return m.AllowResult
}

// Calls returns a copy of the recorded client keys
func (m *MockLimiter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.AllowCalls...)
}

// Close records the call and returns CloseError
func (m *MockLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return m.CloseError
}
