package limiter

import (
	"fmt"
	"math"
	"strings"
)

// Limiter backends accepted by NewLimiter
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// LimiterConfig holds configuration for creating a rate limiter
type LimiterConfig struct {
	Type              string  // TypeMemory (default) or TypeRedis
	RequestsPerSecond float64 // Per-client rate, may be fractional (0.2 = 1 req per 5 sec)

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewLimiter creates the limiter named by cfg.Type
func NewLimiter(cfg LimiterConfig) (Limiter, error) {
	rps := cfg.RequestsPerSecond
	if rps <= 0 || math.IsNaN(rps) || math.IsInf(rps, 0) {
		return nil, fmt.Errorf("invalid rate limit: %v requests per second", rps)
	}

	switch kind := strings.ToLower(strings.TrimSpace(cfg.Type)); kind {
	case TypeMemory, "":
		return NewMemoryLimiter(rps), nil

	case TypeRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis limiter requires REDIS_ADDR")
		}
		rl, err := NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, rps)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis limiter: %w", err)
		}
		return rl, nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: %q, %q)", cfg.Type, TypeMemory, TypeRedis)
	}
}
