package limiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// keyPrefix namespaces limiter counters in a shared Redis
const keyPrefix = "addrlookup:ratelimit"

// fixedWindow increments the window counter and sets its expiry on first use
var fixedWindow = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter shares per-client budgets across instances with fixed windows
//
// Key format: "addrlookup:ratelimit:{client}:{window}"
type RedisLimiter struct {
	client     *redis.Client
	limit      int64
	windowSize time.Duration
	now        func() time.Time
}

// NewRedisLimiter connects to Redis and derives the window from the rate
//
// Rates of at least 1 req/s use a one second window; fractional rates use
// 1/rate seconds so that every window admits at least one request.
func NewRedisLimiter(addr, password string, db int, requestsPerSecond float64) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	return newRedisLimiter(client, requestsPerSecond), nil
}

func newRedisLimiter(client *redis.Client, requestsPerSecond float64) *RedisLimiter {
	windowSize := time.Second
	if requestsPerSecond > 0 && requestsPerSecond < 1.0 {
		windowSize = time.Duration(math.Ceil(1/requestsPerSecond)) * time.Second
	}

	limit := int64(math.Ceil(requestsPerSecond * windowSize.Seconds()))
	if limit < 1 {
		limit = 1
	}

	return &RedisLimiter{
		client:     client,
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow counts the request in the client's current window
// Redis errors fail open so a cache outage never blocks searches
func (rl *RedisLimiter) Allow(ctx context.Context, client string) bool {
	window := rl.now().Unix() / int64(rl.windowSize.Seconds())
	key := fmt.Sprintf("%s:%s:%d", keyPrefix, client, window)
	ttl := int(rl.windowSize.Seconds()) * 2

	count, err := fixedWindow.Run(ctx, rl.client, []string{key}, ttl).Int64()
	if err != nil {
		log.Warn().Err(err).Str("client", client).Msg("Rate limiter unavailable, allowing request")
		return true
	}

	return count <= rl.limit
}

// Close closes the Redis connection
func (rl *RedisLimiter) Close() error {
	if rl.client != nil {
		return rl.client.Close()
	}
	return nil
}
