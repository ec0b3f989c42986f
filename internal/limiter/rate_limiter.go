package limiter

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether a client may issue another search request
// Implementations are shared by every request goroutine
type Limiter interface {
	// Allow reports whether a request from the given client is within its budget
	Allow(ctx context.Context, client string) bool

	// Close releases connections or background state
	Close() error
}

// idleTTL is how long a client may stay silent before its bucket is dropped
const idleTTL = 5 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per client in process memory
// Suitable for single-instance deployments
type MemoryLimiter struct {
	mu          sync.Mutex
	clients     map[string]*clientBucket
	limit       rate.Limit
	burst       int
	lastCleanup time.Time
	now         func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter
//
// Parameters:
//   - requestsPerSecond: sustained rate per client, may be fractional (0.2 = 1 req per 5 sec)
//
// The burst equals one second worth of requests, never less than one.
func NewMemoryLimiter(requestsPerSecond float64) *MemoryLimiter {
	return &MemoryLimiter{
		clients:     make(map[string]*clientBucket),
		limit:       rate.Limit(requestsPerSecond),
		burst:       burstFor(requestsPerSecond),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func burstFor(requestsPerSecond float64) int {
	burst := int(math.Ceil(requestsPerSecond))
	if burst < 1 {
		return 1
	}
	return burst
}

// Allow consumes one token from the client's bucket
func (rl *MemoryLimiter) Allow(_ context.Context, client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, ok := rl.clients[client]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[client] = bucket
	}
	bucket.lastSeen = now

	allowed := bucket.limiter.AllowN(now, 1)
	rl.maybeCleanup(now)
	return allowed
}

// maybeCleanup drops idle buckets at most once per idleTTL
// Must be called with mu held
func (rl *MemoryLimiter) maybeCleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < idleTTL {
		return
	}
	threshold := now.Add(-idleTTL)
	for client, bucket := range rl.clients {
		if bucket.lastSeen.Before(threshold) {
			delete(rl.clients, client)
		}
	}
	rl.lastCleanup = now
}

// Len returns the number of tracked clients
func (rl *MemoryLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Close is a no-op for the in-memory limiter
func (rl *MemoryLimiter) Close() error {
	return nil
}
