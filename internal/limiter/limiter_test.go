package limiter

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeClock lets tests advance limiter time without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemoryLimiter(rps float64) (*MemoryLimiter, *fakeClock) {
	clock := newFakeClock()
	rl := NewMemoryLimiter(rps)
	rl.now = clock.Now
	rl.lastCleanup = clock.Now()
	return rl, clock
}

// TestMemoryLimiter_BasicRateLimit tests basic rate limiting functionality
func TestMemoryLimiter_BasicRateLimit(t *testing.T) {
	limiter, clock := newTestMemoryLimiter(5)
	defer limiter.Close()
	ctx := context.Background()

	client := "192.168.1.1"

	for i := 0; i < 5; i++ {
		if !limiter.Allow(ctx, client) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if limiter.Allow(ctx, client) {
		t.Error("Request 6 should be rate limited")
	}

	clock.Advance(time.Second)

	if !limiter.Allow(ctx, client) {
		t.Error("Request should be allowed after refill")
	}
}

// TestMemoryLimiter_PerClientIsolation tests that different clients have separate budgets
func TestMemoryLimiter_PerClientIsolation(t *testing.T) {
	limiter, _ := newTestMemoryLimiter(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ctx, "192.168.1.1") {
			t.Errorf("Request %d for client 1 should be allowed", i+1)
		}
	}
	if limiter.Allow(ctx, "192.168.1.1") {
		t.Error("Client 1 should be rate limited")
	}

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ctx, "192.168.1.2") {
			t.Errorf("Request %d for client 2 should be allowed", i+1)
		}
	}
	if limiter.Allow(ctx, "192.168.1.2") {
		t.Error("Client 2 should be rate limited")
	}
}

// TestMemoryLimiter_FractionalRate tests rates below one request per second
func TestMemoryLimiter_FractionalRate(t *testing.T) {
	limiter, clock := newTestMemoryLimiter(0.2)
	ctx := context.Background()

	if !limiter.Allow(ctx, "client") {
		t.Fatal("First request should be allowed")
	}
	if limiter.Allow(ctx, "client") {
		t.Error("Second request inside 5s should be limited")
	}

	clock.Advance(4 * time.Second)
	if limiter.Allow(ctx, "client") {
		t.Error("Request after 4s should still be limited")
	}

	clock.Advance(time.Second)
	if !limiter.Allow(ctx, "client") {
		t.Error("Request after 5s should be allowed")
	}
}

// TestMemoryLimiter_Concurrency tests thread safety
func TestMemoryLimiter_Concurrency(t *testing.T) {
	limiter, _ := newTestMemoryLimiter(100)
	ctx := context.Background()

	var allowed int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow(ctx, "192.168.1.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// The clock is frozen so exactly the burst is admitted
	if allowed != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowed)
	}
}

// TestMemoryLimiter_TokenRefill tests that tokens refill over time
func TestMemoryLimiter_TokenRefill(t *testing.T) {
	limiter, clock := newTestMemoryLimiter(10)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		limiter.Allow(ctx, "client")
	}
	if limiter.Allow(ctx, "client") {
		t.Error("Should be rate limited after using all tokens")
	}

	clock.Advance(500 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow(ctx, "client") {
			allowed++
		}
	}
	if allowed != 5 {
		t.Errorf("Expected 5 allowed requests after 0.5s refill, got %d", allowed)
	}
}

// TestMemoryLimiter_CleanupIdleClients tests that silent clients are forgotten
func TestMemoryLimiter_CleanupIdleClients(t *testing.T) {
	limiter, clock := newTestMemoryLimiter(10)
	ctx := context.Background()

	limiter.Allow(ctx, "idle")
	clock.Advance(3 * time.Minute)
	limiter.Allow(ctx, "active")

	if limiter.Len() != 2 {
		t.Fatalf("Expected 2 tracked clients, got %d", limiter.Len())
	}

	clock.Advance(3 * time.Minute)
	limiter.Allow(ctx, "active")

	if limiter.Len() != 1 {
		t.Errorf("Expected idle client to be dropped, tracking %d", limiter.Len())
	}
}

// TestMemoryLimiter_Close tests that Close doesn't error
func TestMemoryLimiter_Close(t *testing.T) {
	limiter := NewMemoryLimiter(10)

	if err := limiter.Close(); err != nil {
		t.Errorf("Close should not return error, got: %v", err)
	}
}

func TestLimiterInterface(t *testing.T) {
	var _ Limiter = (*MemoryLimiter)(nil)
	var _ Limiter = (*RedisLimiter)(nil)
	var _ Limiter = (*MockLimiter)(nil)
}

func setupRedisLimiter(t *testing.T, rps float64) (*RedisLimiter, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	clock := newFakeClock()
	rl := newRedisLimiter(client, rps)
	rl.now = clock.Now
	t.Cleanup(func() { rl.Close() })
	return rl, mr, clock
}

// TestRedisLimiter_FixedWindow tests the per-window budget
func TestRedisLimiter_FixedWindow(t *testing.T) {
	limiter, _, clock := setupRedisLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ctx, "10.0.0.1") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}
	if limiter.Allow(ctx, "10.0.0.1") {
		t.Error("Request 4 should be rate limited")
	}
	if !limiter.Allow(ctx, "10.0.0.2") {
		t.Error("Other client should have its own window")
	}

	clock.Advance(time.Second)
	if !limiter.Allow(ctx, "10.0.0.1") {
		t.Error("Request in the next window should be allowed")
	}
}

// TestRedisLimiter_KeyAndExpiry tests the counter key layout and TTL
func TestRedisLimiter_KeyAndExpiry(t *testing.T) {
	limiter, mr, clock := setupRedisLimiter(t, 10)

	limiter.Allow(context.Background(), "10.0.0.1")

	key := "addrlookup:ratelimit:10.0.0.1:" + strconv.FormatInt(clock.Now().Unix(), 10)
	if !mr.Exists(key) {
		t.Fatalf("Expected key %s, have %v", key, mr.Keys())
	}
	if ttl := mr.TTL(key); ttl != 2*time.Second {
		t.Errorf("Expected TTL 2s, got %v", ttl)
	}

	mr.FastForward(3 * time.Second)
	if mr.Exists(key) {
		t.Error("Counter should expire")
	}
}

// TestRedisLimiter_FractionalRate tests that fractional rates widen the window
func TestRedisLimiter_FractionalRate(t *testing.T) {
	limiter, _, _ := setupRedisLimiter(t, 0.2)

	if limiter.windowSize != 5*time.Second {
		t.Errorf("Expected 5s window, got %v", limiter.windowSize)
	}
	if limiter.limit != 1 {
		t.Errorf("Expected limit 1 per window, got %d", limiter.limit)
	}
}

// TestRedisLimiter_FailsOpen tests that a Redis outage does not block requests
func TestRedisLimiter_FailsOpen(t *testing.T) {
	limiter, mr, _ := setupRedisLimiter(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		if !limiter.Allow(context.Background(), "10.0.0.1") {
			t.Errorf("Request %d should be allowed while Redis is down", i+1)
		}
	}
}

// TestNewRedisLimiter_ConnectionFailure tests the startup ping
func TestNewRedisLimiter_ConnectionFailure(t *testing.T) {
	_, err := NewRedisLimiter("127.0.0.1:1", "", 0, 10)
	if err == nil {
		t.Error("Expected error for unreachable Redis")
	}
}

// TestNewLimiter_Memory tests factory function for memory limiter
func TestNewLimiter_Memory(t *testing.T) {
	tests := []struct {
		name string
		cfg  LimiterConfig
	}{
		{"explicit memory type", LimiterConfig{Type: "memory", RequestsPerSecond: 10}},
		{"uppercase memory type", LimiterConfig{Type: "MEMORY", RequestsPerSecond: 10}},
		{"empty type defaults to memory", LimiterConfig{Type: "", RequestsPerSecond: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewLimiter(tt.cfg)
			if err != nil {
				t.Fatalf("NewLimiter() error = %v", err)
			}
			defer limiter.Close()

			if !limiter.Allow(context.Background(), "192.168.1.1") {
				t.Error("First request should be allowed")
			}
		})
	}
}

// TestNewLimiter_Redis tests factory function for the Redis limiter
func TestNewLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	limiter, err := NewLimiter(LimiterConfig{Type: "redis", RequestsPerSecond: 2, RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}
	defer limiter.Close()

	if _, ok := limiter.(*RedisLimiter); !ok {
		t.Errorf("Expected *RedisLimiter, got %T", limiter)
	}
}

// TestNewLimiter_InvalidType tests factory function with invalid type
func TestNewLimiter_InvalidType(t *testing.T) {
	_, err := NewLimiter(LimiterConfig{Type: "invalid", RequestsPerSecond: 10})
	if err == nil {
		t.Error("Expected error for invalid limiter type")
	}
}

func TestMockLimiter(t *testing.T) {
	m := NewMockLimiter(false)

	if m.Allow(context.Background(), "a") {
		t.Error("Expected deny")
	}
	m.AllowResult = true
	if !m.Allow(context.Background(), "b") {
		t.Error("Expected allow")
	}
	if calls := m.Calls(); len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("Unexpected calls %v", calls)
	}
	if err := m.Close(); err != nil || !m.CloseCalled {
		t.Errorf("Close not recorded: %v", err)
	}
}

// BenchmarkMemoryLimiter_Allow benchmarks the Allow method
func BenchmarkMemoryLimiter_Allow(b *testing.B) {
	limiter := NewMemoryLimiter(1000000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, "192.168.1.1")
	}
}

// BenchmarkMemoryLimiter_AllowParallel benchmarks parallel access
func BenchmarkMemoryLimiter_AllowParallel(b *testing.B) {
	limiter := NewMemoryLimiter(1000000)
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Allow(ctx, "192.168.1.1")
		}
	})
}

// TestNewLimiter_InvalidRate tests that non-positive rates are rejected
func TestNewLimiter_InvalidRate(t *testing.T) {
	for _, rps := range []float64{0, -1} {
		if _, err := NewLimiter(LimiterConfig{Type: TypeMemory, RequestsPerSecond: rps}); err == nil {
			t.Errorf("Expected error for rate %v", rps)
		}
	}
}

// TestNewLimiter_RedisWithoutAddr tests the missing address check
func TestNewLimiter_RedisWithoutAddr(t *testing.T) {
	if _, err := NewLimiter(LimiterConfig{Type: TypeRedis, RequestsPerSecond: 1}); err == nil {
		t.Error("Expected error when REDIS_ADDR is empty")
	}
}
