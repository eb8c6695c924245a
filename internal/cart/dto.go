package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductSummary is the trimmed product shown on cart lines.
type ProductSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	UnitPrice string    `json:"unit_price"`
}

// CartItemDTO is a cart line with its computed total.
type CartItemDTO struct {
	ID         uuid.UUID      `json:"id"`
	Product    ProductSummary `json:"product"`
	Quantity   int            `json:"quantity"`
	TotalPrice string         `json:"total_price"`
}

// CartDTO is the cart payload returned to clients.
type CartDTO struct {
	ID         uuid.UUID     `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	Items      []CartItemDTO `json:"items"`
	TotalPrice string        `json:"total_price"`
}

// AddItemInput is the payload for adding a product to a cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

func lineTotal(item *models.CartItem) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	return item.Product.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func newItemDTO(item *models.CartItem) CartItemDTO {
	dto := CartItemDTO{
		ID:         item.ID,
		Quantity:   item.Quantity,
		TotalPrice: lineTotal(item).StringFixed(2),
	}
	if item.Product != nil {
		dto.Product = ProductSummary{
			ID:        item.Product.ID,
			Title:     item.Product.Title,
			UnitPrice: item.Product.UnitPrice.StringFixed(2),
		}
	}
	return dto
}

func newCartDTO(cart *models.Cart) *CartDTO {
	total := decimal.Zero
	items := make([]CartItemDTO, 0, len(cart.Items))
	for i := range cart.Items {
		total = total.Add(lineTotal(&cart.Items[i]))
		items = append(items, newItemDTO(&cart.Items[i]))
	}
	return &CartDTO{
		ID:         cart.ID,
		CreatedAt:  cart.CreatedAt,
		Items:      items,
		TotalPrice: total.StringFixed(2),
	}
}
