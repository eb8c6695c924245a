package redis

import (
	"context"
	"time"
)

// ready returns errNotConnected for a nil or unconnected client so callers
// holding a nil *Client degrade to errors rather than panics.
func (c *Client) ready() (commands, error) {
	if c == nil || c.cmd == nil {
		return nil, errNotConnected
	}
	return c.cmd, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	cmd, err := c.ready()
	if err != nil {
		return err
	}
	return cmd.Set(ctx, key, value, ttl).Err()
}

// Get returns redis.Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	cmd, err := c.ready()
	if err != nil {
		return "", err
	}
	return cmd.Get(ctx, key).Result()
}

// SetNX reports whether this call created key.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	cmd, err := c.ready()
	if err != nil {
		return false, err
	}
	return cmd.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	cmd, err := c.ready()
	if err != nil {
		return err
	}
	return cmd.Del(ctx, keys...).Err()
}

// FixedWindowAllow counts one hit against scope. The window starts at the first
// hit and the call is allowed while the count stays within limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	cmd, err := c.ready()
	if err != nil {
		return false, 0, err
	}
	key := c.RateLimitKey(scope)
	hits, err := cmd.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if hits == 1 && window > 0 {
		if err := cmd.Expire(ctx, key, window).Err(); err != nil {
			return false, hits, err
		}
	}
	return hits <= limit, hits, nil
}
