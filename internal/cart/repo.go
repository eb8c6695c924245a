package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts an empty cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// LockForCheckout takes a row lock on the cart for the rest of the transaction
// and reports whether it still exists. SQLite has no row locks and ignores the clause.
func (r *Repository) LockForCheckout(ctx context.Context, id uuid.UUID) (bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id).
		Limit(1).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}

// FindWithItems loads the cart with its items and their products.
func (r *Repository) FindWithItems(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Items.Product").
		First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Delete removes the cart and reports how many rows went. Items go with it
// through the cascading foreign key.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

// ClearItems removes every line from the cart.
func (r *Repository) ClearItems(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", id).Delete(&models.CartItem{}).Error
}

func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}

// MergeItem adds quantity to the cart line for the product in one statement,
// inserting the line when it does not exist yet.
func (r *Repository) MergeItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	item := &models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(item).Error
	if err != nil {
		return nil, err
	}

	var merged models.CartItem
	err = r.db.WithContext(ctx).
		Preload("Product").
		First(&merged, "cart_id = ? AND product_id = ?", cartID, productID).Error
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// FindItem loads an item only when it belongs to the cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity replaces the quantity on a cart line.
func (r *Repository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()}).Error
}

// DeleteItem removes a cart line and reports how many rows were affected.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
