package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecofuel/fleet-auth/internal/core/ports"
)

const (
	// DefaultMaxFailures is the number of failed attempts tolerated per
	// address before logins are blocked for the rest of the window.
	DefaultMaxFailures = 5
	// DefaultWindow is how long the failure counter lives.
	DefaultWindow = 15 * time.Minute
)

// LoginThrottle counts failed login attempts per email address in Redis.
// Key format: login:fail:<lowercased email>
type LoginThrottle struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
}

var _ ports.LoginThrottle = (*LoginThrottle)(nil)

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
// Non-positive limits fall back to the defaults.
func NewLoginThrottle(client *redis.Client, maxFailures int, window time.Duration) *LoginThrottle {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Blocked reports whether the address has exhausted its failure budget.
func (t *LoginThrottle) Blocked(ctx context.Context, email string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(email)).Int64()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= t.maxFailures, nil
}

// RecordFailure bumps the failure counter and refreshes its expiry, so the
// window slides from the most recent failed attempt.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) error {
	key := t.key(email)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	return t.client.Del(ctx, t.key(email)).Err()
}

func (t *LoginThrottle) key(email string) string {
	return "login:fail:" + strings.ToLower(email)
}
