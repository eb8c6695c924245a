package controllers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// presentedSession reads the access token from the Authorization header.
// Expired tokens are accepted here: both logout and refresh must work after
// the access token has lapsed, as long as the signature holds.
func presentedSession(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	raw, err := validators.ParseAuthToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, raw)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New(errors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout ends the session behind the presented access token.
func AuthLogout(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return endpoint(manager, "session", logg, func(w http.ResponseWriter, r *http.Request) error {
		claims, err := presentedSession(r, cfg)
		if err != nil {
			return err
		}
		if err := manager.Revoke(r.Context(), claims.ID); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "revoke session")
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
		return nil
	})
}

// AuthRefresh trades a refresh token for a fresh pair. The new access token
// keeps the staff flag and permissions of the one it replaces.
func AuthRefresh(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return endpoint(manager, "session", logg, func(w http.ResponseWriter, r *http.Request) error {
		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		claims, err := presentedSession(r, cfg)
		if err != nil {
			return err
		}

		nextID, nextRefresh, err := manager.Rotate(r.Context(), claims.ID, body.RefreshToken)
		switch {
		case stderrors.Is(err, session.ErrInvalidRefreshToken):
			return errors.New(errors.CodeUnauthorized, "invalid refresh token")
		case err != nil:
			return errors.Wrap(errors.CodeInternal, err, "rotate session")
		}

		access, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID:      claims.UserID,
			IsStaff:     claims.IsStaff,
			Permissions: claims.Permissions,
			JTI:         nextID,
		})
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "mint access token")
		}
		responses.WriteSuccess(w, refreshResponse{AccessToken: access, RefreshToken: nextRefresh})
		return nil
	})
}
