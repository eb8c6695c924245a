package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RateLimiterStore counts hits in fixed windows. pkg/redis.Client implements it.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one credential endpoint. Each limit counts
// attempts per window; a zero limit switches that dimension off.
type AuthRateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{Name: name, Window: window, IPLimit: ipLimit, EmailLimit: emailLimit}
}

// dimension is one thing a caller can be counted by.
type dimension struct {
	label string
	limit int
	// key returns "" when the request cannot be attributed.
	key func(r *http.Request, body []byte) string
}

func (p AuthRateLimitPolicy) dimensions() []dimension {
	var dims []dimension
	if p.IPLimit > 0 {
		dims = append(dims, dimension{label: "ip", limit: p.IPLimit, key: func(r *http.Request, _ []byte) string {
			return clientIP(r)
		}})
	}
	if p.EmailLimit > 0 {
		// emails are hashed so they never appear in Redis keys or logs
		dims = append(dims, dimension{label: "email", limit: p.EmailLimit, key: func(_ *http.Request, body []byte) string {
			var creds struct {
				Email string `json:"email"`
			}
			if json.Unmarshal(body, &creds) != nil {
				return ""
			}
			email := strings.ToLower(strings.TrimSpace(creds.Email))
			if email == "" {
				return ""
			}
			sum := sha256.Sum256([]byte(email))
			return hex.EncodeToString(sum[:])
		}})
	}
	return dims
}

// AuthRateLimit rejects login and register attempts with 429 once any
// dimension of policy is exhausted. A store failure is a 503.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	dims := policy.dimensions()
	return func(next http.Handler) http.Handler {
		if store == nil || policy.Window <= 0 || len(dims) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			for _, dim := range dims {
				id := dim.key(r, body)
				if id == "" {
					continue
				}
				allowed, hits, err := store.FixedWindowAllow(ctx, dim.label+":"+policy.Name+":"+id, int64(dim.limit), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						ctx = logg.WithFields(ctx, map[string]any{
							"policy":         policy.Name,
							"scope":          dim.label,
							"subject":        id,
							"attempts":       hits,
							"limit":          dim.limit,
							"window_seconds": int(policy.Window.Seconds()),
						})
					}
					w.Header().Set("Retry-After", retryAfter(policy.Window))
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfter is the worst case wait, the full window, in whole seconds.
func retryAfter(window time.Duration) string {
	secs := int64(window.Round(time.Second) / time.Second)
	return strconv.FormatInt(max(secs, 1), 10)
}

// clientIP trusts RemoteAddr only; the router's RealIP middleware has already
// folded X-Forwarded-For and X-Real-IP into it.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
