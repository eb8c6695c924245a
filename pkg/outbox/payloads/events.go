package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedEvent is emitted once a cart has been converted into an order.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	UserID     uuid.UUID `json:"user_id"`
	CartID     uuid.UUID `json:"cart_id"`
	ItemCount  int       `json:"item_count"`
	Total      string    `json:"total"`
	PlacedAt   time.Time `json:"placed_at"`
}
