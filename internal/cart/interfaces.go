package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, cart *models.Cart) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	LockForCheckout(ctx context.Context, id uuid.UUID) (bool, error)
	FindWithItems(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ClearItems(ctx context.Context, id uuid.UUID) error
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	MergeItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error)
}
