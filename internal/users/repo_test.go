package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "  Ada@Example.com ",
		PasswordHash: "hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Permissions:  []string{"view_history"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.True(t, created.IsActive)

	byEmail, err := repo.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.True(t, byEmail.Permissions.Contains("view_history"))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, now))
	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.WithinDuration(t, now, *reloaded.LastLoginAt, time.Second)
}

func TestRepositoryDuplicateEmail(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Email: "dup@example.com", PasswordHash: "h", FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Email: "DUP@example.com", PasswordHash: "h", FirstName: "A", LastName: "B"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestFromModelHidesHash(t *testing.T) {
	user := CreateUserDTO{Email: "x@example.com", PasswordHash: "secret", FirstName: "X", LastName: "Y"}.ToModel()
	dto := FromModel(user)
	assert.Equal(t, "x@example.com", dto.Email)
	assert.NotNil(t, dto.Permissions)
	assert.Nil(t, FromModel(nil))
}
