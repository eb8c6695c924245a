package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

func jane() RegisterRequest {
	return RegisterRequest{FirstName: "Jane", LastName: "Doe", Email: "Jane@Example.com", Password: "supersecret"}
}

func newSignup(t *testing.T) (*Signup, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	s, err := NewSignup(client, config.PasswordConfig{})
	require.NoError(t, err)
	return s, client
}

func TestSignupCreatesUserAndBronzeCustomer(t *testing.T) {
	s, client := newSignup(t)

	user, err := s.Register(context.Background(), jane())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.False(t, user.IsStaff)

	var stored models.User
	require.NoError(t, client.DB().First(&stored, "id = ?", user.ID).Error)
	ok, err := security.VerifyPassword("supersecret", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	var customer models.Customer
	require.NoError(t, client.DB().First(&customer, "user_id = ?", user.ID).Error)
	assert.Equal(t, enums.MembershipBronze, customer.Membership)
}

func TestSignupRejectsTakenEmail(t *testing.T) {
	s, client := newSignup(t)

	_, err := s.Register(context.Background(), jane())
	require.NoError(t, err)
	again := jane()
	again.Email = "  JANE@example.COM"
	_, err = s.Register(context.Background(), again)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	var customers int64
	require.NoError(t, client.DB().Model(&models.Customer{}).Count(&customers).Error)
	assert.EqualValues(t, 1, customers)
}

func TestSignupValidation(t *testing.T) {
	s, _ := newSignup(t)

	cases := map[string]struct {
		edit  func(*RegisterRequest)
		field string
	}{
		"short password": {func(r *RegisterRequest) { r.Password = "short" }, "password"},
		"blank email":    {func(r *RegisterRequest) { r.Email = "   " }, "email"},
		"blank name":     {func(r *RegisterRequest) { r.FirstName = " " }, "first_name"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := jane()
			tc.edit(&req)
			_, err := s.Register(context.Background(), req)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed, "got %v", err)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Contains(t, typed.Details(), tc.field)
		})
	}
}

func TestStaffSignupGrantsHistory(t *testing.T) {
	s, _ := newSignup(t)

	user, err := s.Staff().Register(context.Background(), jane())
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.Equal(t, []string{enums.PermissionViewHistory.String()}, user.Permissions)

	shopper := jane()
	shopper.Email = "shopper@example.com"
	plain, err := s.Register(context.Background(), shopper)
	require.NoError(t, err)
	assert.False(t, plain.IsStaff, "Staff must not alter the receiver")
}

func TestNewSignupRequiresDB(t *testing.T) {
	_, err := NewSignup(nil, config.PasswordConfig{})
	assert.Error(t, err)
}
