package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/access"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the caller attached by Auth or OptionalAuth.
// Requests that never passed through either are anonymous.
func PrincipalFromContext(ctx context.Context) access.Principal {
	if ctx == nil {
		return access.Principal{}
	}
	if v, ok := ctx.Value(ctxPrincipal).(access.Principal); ok {
		return v
	}
	return access.Principal{}
}

func UserIDFromContext(ctx context.Context) string {
	p := PrincipalFromContext(ctx)
	if !p.Authenticated {
		return ""
	}
	return p.UserID.String()
}

// WithPrincipal injects the caller into the context for downstream handlers.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
