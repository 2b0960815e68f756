package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter caps how often a user may perform an action inside a
// fixed window, counted per (user, action) key.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow increments the window counter and reports whether the action is
// still inside the limit. The first hit of a window arms its expiry; a
// failed Expire leaves an unbounded counter, so it is surfaced as an
// error rather than ignored.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// UserActionKey names the counter for one user's action, e.g. feedback
// submissions.
func UserActionKey(userID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}
