package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "storefront",
	ExpirationMinutes: 1440,
}

func TestServiceLoginStaffClaims(t *testing.T) {
	password := "staff-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "staff@example.com",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Staff",
		LastName:     "Member",
		IsStaff:      true,
		Permissions:  types.StringList{"view_history"},
		IsActive:     true,
	}

	svc, sessions := buildTestService(t, user)
	resp, err := svc.Login(context.Background(), LoginRequest{Email: " STAFF@example.com ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || !claims.IsStaff {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.HasPermission("view_history") {
		t.Fatalf("expected view_history permission in %v", claims.Permissions)
	}
	if sessions.accessID != claims.ID {
		t.Fatalf("refresh session keyed by %q, token jti %q", sessions.accessID, claims.ID)
	}
	if resp.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected refresh token %q", resp.RefreshToken)
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("expected one day token lifetime, got %v", got)
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, "correct-horse"),
		IsActive:     true,
	}
	svc, _ := buildTestService(t, user)

	cases := []LoginRequest{
		{Email: "shopper@example.com", Password: "wrong"},
		{Email: "", Password: "correct-horse"},
		{Email: "missing@example.com", Password: "correct-horse"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %q, got %v", req.Email, err)
		}
	}

	user.IsActive = false
	if _, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "correct-horse"}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected inactive user to be rejected, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without dependencies")
	}
}

func buildTestService(t *testing.T, user *models.User) (Service, *stubSessionManager) {
	t.Helper()
	sessions := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       stubUserRepo{user: user},
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
}

func (s stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

type stubSessionManager struct {
	refreshToken string
	accessID     string
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	s.accessID = accessID
	return s.refreshToken, nil
}

func TestServiceLoginUsesInjectedClock(t *testing.T) {
	fixed := time.Now().Add(-10 * time.Minute).UTC().Truncate(time.Second)
	user := &models.User{ID: uuid.New(), Email: "clock@example.com", PasswordHash: mustHashPassword(t, "pw-123456"), IsActive: true}

	svc, err := NewService(ServiceParams{
		UserRepo:       stubUserRepo{user: user},
		SessionManager: &stubSessionManager{refreshToken: "r"},
		JWTConfig:      testJWT,
		Now:            func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "pw-123456"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.IssuedAt.Time.Equal(fixed) {
		t.Fatalf("issued at %v, want %v", claims.IssuedAt.Time, fixed)
	}
	if user.LastLoginAt == nil || !user.LastLoginAt.Equal(fixed) {
		t.Fatalf("last login %v, want %v", user.LastLoginAt, fixed)
	}
}
