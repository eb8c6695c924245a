package customers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func setup(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	client := dbtest.Open(t)
	orderSvc, err := orders.NewService(orders.NewRepository(client.DB()))
	require.NoError(t, err)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, orderSvc)
	require.NoError(t, err)
	return svc, repo, client.DB()
}

func newUser(t *testing.T, conn *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", FirstName: "F", LastName: "L"}
	dbtest.MustCreate(t, conn, &user)
	return user
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.Error(t, err)
	_, err = NewService(NewRepository(nil), nil)
	assert.Error(t, err)
}

func TestCreateCustomer(t *testing.T) {
	svc, _, conn := setup(t)
	ctx := context.Background()
	user := newUser(t, conn, "ann@example.com")

	created, err := svc.Create(ctx, CreateCustomerInput{
		UserID:    user.ID,
		Phone:     "555-0100",
		BirthDate: types.NewDate(1990, time.March, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.MembershipBronze, created.Membership)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "1990-03-04", got.BirthDate.String())

	_, err = svc.Create(ctx, CreateCustomerInput{UserID: user.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, CreateCustomerInput{UserID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Details(), "user_id")

	other := newUser(t, conn, "ben@example.com")
	_, err = svc.Create(ctx, CreateCustomerInput{UserID: other.ID, Membership: "Z"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Details(), "membership")
}

func TestUpdateCustomerMembership(t *testing.T) {
	svc, _, conn := setup(t)
	ctx := context.Background()
	user := newUser(t, conn, "cid@example.com")
	created, err := svc.Create(ctx, CreateCustomerInput{UserID: user.ID})
	require.NoError(t, err)

	gold := "G"
	updated, err := svc.Update(ctx, created.ID, UpdateCustomerInput{Membership: &gold})
	require.NoError(t, err)
	assert.Equal(t, enums.MembershipGold, updated.Membership)

	bad := "X"
	_, err = svc.Update(ctx, created.ID, UpdateCustomerInput{Membership: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMeAndUpdateMe(t *testing.T) {
	svc, repo, conn := setup(t)
	ctx := context.Background()
	user := newUser(t, conn, "dee@example.com")

	_, err := svc.Me(ctx, user.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = repo.GetOrCreateForUser(ctx, user.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateMe(ctx, user.ID, UpdateMeInput{Phone: "555-0199", BirthDate: types.NewDate(2000, time.January, 1)})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, enums.MembershipBronze, updated.Membership)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", me.BirthDate.String())
}

func TestGetOrCreateForUserIsIdempotent(t *testing.T) {
	_, repo, conn := setup(t)
	ctx := context.Background()
	user := newUser(t, conn, "eve@example.com")

	first, err := repo.GetOrCreateForUser(ctx, user.ID)
	require.NoError(t, err)
	second, err := repo.GetOrCreateForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestDeleteBlockedByOrdersAndHistory(t *testing.T) {
	svc, _, conn := setup(t)
	ctx := context.Background()
	user := newUser(t, conn, "fay@example.com")
	created, err := svc.Create(ctx, CreateCustomerInput{UserID: user.ID})
	require.NoError(t, err)

	collection := models.Collection{Title: "Tools"}
	dbtest.MustCreate(t, conn, &collection)
	product := models.Product{Title: "Saw", Slug: "saw", UnitPrice: decimal.NewFromInt(20), Inventory: 2, CollectionID: collection.ID}
	dbtest.MustCreate(t, conn, &product)
	order := models.Order{CustomerID: created.ID}
	dbtest.MustCreate(t, conn, &order)
	dbtest.MustCreate(t, conn, &models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 1, UnitPrice: product.UnitPrice})

	history, err := svc.History(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "20.00", history[0].TotalPrice)

	err = svc.Delete(ctx, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProtected))
	assert.Equal(t, ProtectedMessage, pkgerrors.As(err).Message())

	_, err = svc.History(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteCustomerWithoutOrders(t *testing.T) {
	svc, _, conn := setup(t)
	ctx := context.Background()
	user := newUser(t, conn, "gus@example.com")
	created, err := svc.Create(ctx, CreateCustomerInput{UserID: user.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
