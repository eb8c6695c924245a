package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
)

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"required,min=1"`
}

// toInput expects a body that already passed its tags.
func (p addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{ProductID: uuid.MustParse(p.ProductID), Quantity: *p.Quantity}
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=1"`
}
