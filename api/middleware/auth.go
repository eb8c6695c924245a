package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/pkg/access"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var errNoCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication credentials were not provided")

// authenticator turns an Authorization header into a principal.
type authenticator struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
}

// principal returns the zero principal and no error when the header is absent.
func (a authenticator) principal(ctx context.Context, header string) (access.Principal, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return access.Principal{}, nil
	}

	token, err := validators.ParseAuthToken(header)
	if err != nil {
		return access.Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed authorization header")
	}
	claims, err := pkgAuth.ParseAccessToken(a.cfg, token)
	if err != nil {
		return access.Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return access.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "token carries no session id")
	}

	if a.sessions != nil {
		live, err := a.sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return access.Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session lookup failed")
		}
		if !live {
			return access.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session has ended")
		}
	}

	return access.Principal{
		UserID:        claims.UserID,
		Authenticated: true,
		IsStaff:       claims.IsStaff,
		Permissions:   claims.Permissions,
	}, nil
}

// Auth requires a live access token and stores the caller's principal on the context.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(authenticator{cfg: cfg, sessions: verifier}, logg, true)
}

// OptionalAuth lets anonymous requests through. A header that is present must still be valid.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(authenticator{cfg: cfg, sessions: verifier}, logg, false)
}

func authenticate(a authenticator, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, err := a.principal(ctx, r.Header.Get("Authorization"))
			if err == nil && required && !p.Authenticated {
				err = errNoCredentials
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !p.Authenticated {
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithPrincipal(ctx, p)
			if logg != nil {
				ctx = logg.WithCaller(ctx, p.UserID.String(), p.IsStaff)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize applies the access policy for resource and action to the request principal.
func Authorize(resource access.Resource, action access.Action, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.Authorize(PrincipalFromContext(r.Context()), resource, action); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
