package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/access"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var jwtCfg = config.JWTConfig{Secret: "s3cret", Issuer: "storefront-test", ExpirationMinutes: 15}

type liveSessions struct {
	live bool
	err  error
}

func (s liveSessions) HasSession(context.Context, string) (bool, error) { return s.live, s.err }

func bearer(t *testing.T, userID uuid.UUID, staff bool, perms ...string) string {
	t.Helper()
	token, err := auth.MintAccessToken(jwtCfg, time.Now(), auth.AccessTokenPayload{
		UserID:      userID,
		IsStaff:     staff,
		Permissions: perms,
		JTI:         session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

// serve runs mw in front of a handler that records the principal it saw.
func serve(mw func(http.Handler) http.Handler, header string) (int, access.Principal) {
	var seen access.Principal
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/store/orders/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, seen
}

func TestAuthOutcomes(t *testing.T) {
	token := bearer(t, uuid.New(), false)

	cases := []struct {
		name     string
		required bool
		sessions liveSessions
		header   string
		want     int
	}{
		{"required without header", true, liveSessions{live: true}, "", http.StatusUnauthorized},
		{"optional without header", false, liveSessions{live: true}, "", http.StatusNoContent},
		{"garbage token", true, liveSessions{live: true}, "Bearer not-a-jwt", http.StatusUnauthorized},
		{"optional garbage token", false, liveSessions{live: true}, "JWT nope", http.StatusUnauthorized},
		{"unknown scheme", true, liveSessions{live: true}, "Basic " + token, http.StatusUnauthorized},
		{"ended session", true, liveSessions{live: false}, "Bearer " + token, http.StatusUnauthorized},
		{"session store down", true, liveSessions{err: errors.New("dial tcp: refused")}, "Bearer " + token, http.StatusServiceUnavailable},
		{"live session", true, liveSessions{live: true}, "Bearer " + token, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mw := OptionalAuth(jwtCfg, tc.sessions, nil)
			if tc.required {
				mw = Auth(jwtCfg, tc.sessions, nil)
			}
			code, _ := serve(mw, tc.header)
			assert.Equal(t, tc.want, code)
		})
	}
}

func TestAuthCarriesClaimsIntoPrincipal(t *testing.T) {
	userID := uuid.New()
	token := bearer(t, userID, true, "view_history")

	for _, scheme := range []string{"Bearer", "JWT"} {
		code, p := serve(Auth(jwtCfg, liveSessions{live: true}, nil), scheme+" "+token)
		require.Equal(t, http.StatusNoContent, code, scheme)
		assert.True(t, p.Authenticated)
		assert.Equal(t, userID, p.UserID)
		assert.True(t, p.IsStaff)
		assert.True(t, p.Has("view_history"))
	}
}

func TestOptionalAuthLeavesAnonymousPrincipal(t *testing.T) {
	code, p := serve(OptionalAuth(jwtCfg, liveSessions{live: true}, nil), "")
	assert.Equal(t, http.StatusNoContent, code)
	assert.False(t, p.Authenticated)
	assert.Equal(t, uuid.Nil, p.UserID)
}

func TestAuthorize(t *testing.T) {
	member := access.Principal{UserID: uuid.New(), Authenticated: true}
	staff := access.Principal{UserID: uuid.New(), Authenticated: true, IsStaff: true}

	cases := []struct {
		name   string
		who    access.Principal
		action access.Action
		want   int
	}{
		{"anonymous lists", access.Principal{}, access.ActionList, http.StatusNoContent},
		{"anonymous creates", access.Principal{}, access.ActionCreate, http.StatusUnauthorized},
		{"member creates", member, access.ActionCreate, http.StatusForbidden},
		{"staff creates", staff, access.ActionCreate, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Authorize(access.ResourceProducts, tc.action, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/store/products/", nil)
			req = req.WithContext(WithPrincipal(req.Context(), tc.who))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
