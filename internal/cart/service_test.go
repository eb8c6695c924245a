package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fixture struct {
	svc     Service
	repo    *Repository
	pen     models.Product
	notepad models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)

	collection := models.Collection{Title: "Stationery"}
	dbtest.MustCreate(t, client.DB(), &collection)
	pen := models.Product{Title: "Pen", Slug: "pen", UnitPrice: decimal.RequireFromString("1.50"), Inventory: 100, CollectionID: collection.ID}
	notepad := models.Product{Title: "Notepad", Slug: "notepad", UnitPrice: decimal.RequireFromString("4.25"), Inventory: 100, CollectionID: collection.ID}
	dbtest.MustCreate(t, client.DB(), &pen, &notepad)

	return fixture{svc: svc, repo: repo, pen: pen, notepad: notepad}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

func TestCreateReturnsEmptyCart(t *testing.T) {
	f := newFixture(t)

	cart, err := f.svc.Create(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, cart.ID)
	assert.Empty(t, cart.Items)
	assert.NotNil(t, cart.Items)
	assert.Equal(t, "0.00", cart.TotalPrice)
}

func TestAddItemMergesQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.svc.Create(ctx)
	require.NoError(t, err)

	first, err := f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.pen.ID, Quantity: 2})
	require.NoError(t, err)
	second, err := f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.pen.ID, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)
	assert.Equal(t, "7.50", second.TotalPrice)
	assert.Equal(t, "Pen", second.Product.Title)

	_, err = f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.notepad.ID, Quantity: 1})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "11.75", got.TotalPrice)
}

func TestAddItemConcurrentMergeLosesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.svc.Create(ctx)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.pen.ID, Quantity: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := f.svc.ListItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, workers, items[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.svc.Create(ctx)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: f.pen.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.pen.ID, Quantity: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]string{"quantity": "must be at least 1"}, pkgerrors.As(err).Details())

	_, err = f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]string{"product_id": "unknown product"}, pkgerrors.As(err).Details())
}

func TestUpdateItemReplacesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.svc.Create(ctx)
	require.NoError(t, err)
	item, err := f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.notepad.ID, Quantity: 4})
	require.NoError(t, err)

	updated, err := f.svc.UpdateItem(ctx, cart.ID, item.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)
	assert.Equal(t, "4.25", updated.TotalPrice)

	_, err = f.svc.UpdateItem(ctx, cart.ID, item.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	unchanged, err := f.svc.GetItem(ctx, cart.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unchanged.Quantity)

	other, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.GetItem(ctx, other.ID, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteItemAndCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.svc.Create(ctx)
	require.NoError(t, err)
	item, err := f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.pen.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.notepad.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteItem(ctx, cart.ID, item.ID))
	err = f.svc.DeleteItem(ctx, cart.ID, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.Delete(ctx, cart.ID))
	_, err = f.svc.Get(ctx, cart.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var remaining int64
	require.NoError(t, f.repo.db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestRepositoryDeleteReportsRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.svc.Create(ctx)
	require.NoError(t, err)

	found, err := f.repo.LockForCheckout(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, found)

	deleted, err := f.repo.Delete(ctx, cart.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	deleted, err = f.repo.Delete(ctx, cart.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	found, err = f.repo.LockForCheckout(ctx, cart.ID)
	require.NoError(t, err)
	assert.False(t, found)
}
