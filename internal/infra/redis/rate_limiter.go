package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"saas-starter-billing/internal/infra/metrics"
)

// RateLimiter is a fixed-window counter. A nil *RateLimiter allows everything.
type RateLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewRateLimiter(client RedisClient, limit int, window time.Duration) *RateLimiter {
	if client == nil {
		return nil
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r == nil {
		return true, nil
	}
	scope := keyScope(key)

	count, err := r.client.IncrWindow(ctx, key, r.window)
	if err != nil {
		metrics.IncRateLimit(scope, "error")
		return false, err
	}

	if count > int64(r.limit) {
		metrics.IncRateLimit(scope, "blocked")
		return false, nil
	}

	metrics.IncRateLimit(scope, "allowed")
	return true, nil
}

func SignInKey(clientIP string) string {
	return fmt.Sprintf("rate_limit:signin:%s", clientIP)
}

func keyScope(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return key
	}
	return parts[1]
}
