package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginAttemptPrefix = "grievance:login_failures:"

// LoginThrottle counts failed logins per email in Redis and blocks further attempts
// once maxAttempts failures land inside the window. A nil throttle or client allows everything.
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle builds a Redis-backed throttle.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window}
}

// Allowed reports whether another login attempt for key may proceed.
func (t *LoginThrottle) Allowed(ctx context.Context, key string) (bool, error) {
	if t == nil || t.client == nil {
		return true, nil
	}
	failures, err := t.client.Get(ctx, attemptKey(key)).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return failures < t.maxAttempts, nil
}

// RecordFailure counts a failed attempt. INCR and EXPIRE NX run in one MULTI/EXEC, so the
// counter always carries a TTL and expires one window after the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, key string) error {
	if t == nil || t.client == nil {
		return nil
	}
	k := attemptKey(key)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, t.window)
		return nil
	})
	return err
}

// Reset clears the failure counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Del(ctx, attemptKey(key)).Err()
}

func attemptKey(key string) string {
	return loginAttemptPrefix + strings.ToLower(strings.TrimSpace(key))
}
