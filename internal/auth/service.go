package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

// Every credential failure looks the same to the caller.
var errBadCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

// Service signs users in.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	// Now defaults to time.Now.
	Now func() time.Time
}

type service struct {
	users    userRepository
	sessions sessionManager
	jwt      config.JWTConfig
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.UserRepo == nil:
		return nil, errors.New("auth: user repository is required")
	case params.SessionManager == nil:
		return nil, errors.New("auth: session manager is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{users: params.UserRepo, sessions: params.SessionManager, jwt: params.JWTConfig, now: now}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.checkCredentials(ctx, req)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, at); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &at

	resp, err := s.issue(ctx, user, at)
	if err != nil {
		return nil, err
	}
	resp.User = users.FromModel(user)
	return resp, nil
}

// checkCredentials loads the active user behind req or fails with errBadCredentials.
func (s *service) checkCredentials(ctx context.Context, req LoginRequest) (*models.User, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, errBadCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errBadCredentials
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !user.IsActive {
		return nil, errBadCredentials
	}
	return user, nil
}

// issue mints the access token and opens the refresh session keyed by its jti.
func (s *service) issue(ctx context.Context, user *models.User, at time.Time) (*LoginResponse, error) {
	jti := session.NewAccessID()
	access, err := pkgAuth.MintAccessToken(s.jwt, at, pkgAuth.AccessTokenPayload{
		UserID:      user.ID,
		IsStaff:     user.IsStaff,
		Permissions: append([]string(nil), user.Permissions...),
		JTI:         jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := s.sessions.Generate(ctx, jti)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open refresh session")
	}
	return &LoginResponse{AccessToken: access, RefreshToken: refresh}, nil
}

// requireNames trims both names and reports each blank one.
func requireNames(first, last string) (string, string, error) {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	blank := map[string]string{}
	for field, v := range map[string]string{"first_name": first, "last_name": last} {
		if v == "" {
			blank[field] = "This field may not be blank."
		}
	}
	if len(blank) > 0 {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid registration").WithDetails(blank)
	}
	return first, last, nil
}
