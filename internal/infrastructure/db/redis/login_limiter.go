package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// attemptScript increments the counter and starts the window on the first
// hit in a single round trip, so concurrent callers each get a distinct count.
var attemptScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// LoginLimiter counts login attempts per email in a fixed window.
// Key format: login:attempts:<email>
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter. Non-positive values fall back to
// 5 attempts per 15 minutes.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Attempt reserves one attempt for email and reports whether it is within
// the limit. The reservation happens before the password is checked.
func (l *LoginLimiter) Attempt(ctx context.Context, email string) (bool, error) {
	n, err := attemptScript.Run(ctx, l.client, []string{l.key(email)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("login limiter attempt: %w", err)
	}
	return n <= l.maxAttempts, nil
}

// Reset clears the window after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if err := l.client.Del(ctx, l.key(email)).Err(); err != nil {
		return fmt.Errorf("login limiter reset: %w", err)
	}
	return nil
}

func (l *LoginLimiter) key(email string) string {
	return "login:attempts:" + email
}
