package redis

import "strings"

// Every key lives under "sf:<family>:..." so a shared Redis can host other apps.
const keyRoot = "sf"

const (
	familyIdempotency = "idempotency"
	familyRateLimit   = "rate_limit"
	familySession     = "session"
	familyCache       = "cache"
	familyLock        = "lock"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(familyIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return joinKey(familyRateLimit, scope)
}

func (c *Client) CacheKey(kind, id string) string {
	return joinKey(familyCache, kind, id)
}

func (c *Client) AccessSessionKey(accessID string) string {
	return joinKey(familySession, "access", accessID)
}

func (c *Client) LockKey(name string) string {
	return joinKey(familyLock, name)
}

// joinKey drops empty segments so "cache:product:" never appears.
func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyRoot)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}
