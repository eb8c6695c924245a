package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type fakeSessions struct {
	revoked     string
	rotatedFrom string
	presented   string
	nextID      string
	nextToken   string
	err         error
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	f.rotatedFrom, f.presented = oldAccessID, provided
	return f.nextID, f.nextToken, f.err
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = accessID
	return f.err
}

var sessionJWT = config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 10}

func signedAccess(t *testing.T, staff bool, issuedAt time.Time) (token, jti string) {
	t.Helper()
	jti = session.NewAccessID()
	token, err := auth.MintAccessToken(sessionJWT, issuedAt, auth.AccessTokenPayload{
		UserID:      uuid.New(),
		IsStaff:     staff,
		Permissions: []string{"view_history"},
		JTI:         jti,
	})
	require.NoError(t, err)
	return token, jti
}

func TestAuthLogout(t *testing.T) {
	token, jti := signedAccess(t, false, time.Now())
	cases := []struct {
		name     string
		header   string
		fake     *fakeSessions
		want     int
		revoking string
	}{
		{name: "revokes presented session", header: "JWT " + token, fake: &fakeSessions{}, want: http.StatusOK, revoking: jti},
		{name: "no credentials", fake: &fakeSessions{}, want: http.StatusUnauthorized},
		{name: "garbage token", header: "JWT nope", fake: &fakeSessions{}, want: http.StatusUnauthorized},
		{name: "store failure", header: "JWT " + token, fake: &fakeSessions{err: errors.New("redis down")}, want: http.StatusInternalServerError, revoking: jti},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/jwt/logout/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			AuthLogout(tc.fake, sessionJWT, nil).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, tc.revoking, tc.fake.revoked)
		})
	}
}

func TestAuthLogoutWithoutManager(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthLogout(nil, sessionJWT, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func refreshRequestFor(token, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/jwt/refresh/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthRefreshKeepsPrivileges(t *testing.T) {
	// an expired access token may still be refreshed
	token, jti := signedAccess(t, true, time.Now().Add(-time.Hour))
	fake := &fakeSessions{nextID: "jti-2", nextToken: "refresh-2"}

	rec := httptest.NewRecorder()
	AuthRefresh(fake, sessionJWT, nil).ServeHTTP(rec, refreshRequestFor(token, `{"refresh_token":"refresh-1"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, jti, fake.rotatedFrom)
	assert.Equal(t, "refresh-1", fake.presented)

	var envelope struct {
		Data refreshResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "refresh-2", envelope.Data.RefreshToken)

	claims, err := auth.ParseAccessToken(sessionJWT, envelope.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jti-2", claims.ID)
	assert.True(t, claims.IsStaff)
	assert.True(t, claims.HasPermission("view_history"))
}

func TestAuthRefreshFailures(t *testing.T) {
	token, _ := signedAccess(t, false, time.Now())
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "rejected refresh token", body: `{"refresh_token":"stale"}`, err: session.ErrInvalidRefreshToken, want: http.StatusUnauthorized},
		{name: "missing refresh token", body: `{}`, want: http.StatusBadRequest},
		{name: "store failure", body: `{"refresh_token":"x"}`, err: errors.New("redis down"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			AuthRefresh(&fakeSessions{err: tc.err}, sessionJWT, nil).ServeHTTP(rec, refreshRequestFor(token, tc.body))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
