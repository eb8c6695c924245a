package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ProductSummary is the product shown next to an order line.
type ProductSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	UnitPrice string    `json:"unit_price"`
}

// OrderItemDTO carries the price frozen at checkout.
type OrderItemDTO struct {
	ID         uuid.UUID      `json:"id"`
	Product    ProductSummary `json:"product"`
	Quantity   int            `json:"quantity"`
	UnitPrice  string         `json:"unit_price"`
	TotalPrice string         `json:"total_price"`
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	PlacedAt      time.Time           `json:"placed_at"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Items         []OrderItemDTO      `json:"items"`
	TotalPrice    string              `json:"total_price"`
}

// NewOrderDTO maps an order with preloaded items.
func NewOrderDTO(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		dto := OrderItemDTO{
			ID:         item.ID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			TotalPrice: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2),
		}
		dto.Product.ID = item.ProductID
		if item.Product != nil {
			dto.Product.Title = item.Product.Title
			dto.Product.UnitPrice = item.Product.UnitPrice.StringFixed(2)
		}
		items = append(items, dto)
	}
	return OrderDTO{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		PlacedAt:      o.PlacedAt,
		PaymentStatus: o.PaymentStatus,
		Items:         items,
		TotalPrice:    o.Total().StringFixed(2),
	}
}

func newOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i]))
	}
	return out
}
