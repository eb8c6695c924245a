package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is a placed purchase owned by a customer.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Customer      *Customer           `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
	PlacedAt      time.Time           `gorm:"column:placed_at;autoCreateTime"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:varchar(1);not null;default:'P'"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.PaymentStatus == "" {
		o.PaymentStatus = enums.PaymentStatusPending
	}
	return nil
}

// OrderItem freezes the product price at the time the order was placed.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(6,2);not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Total sums quantity times frozen unit price across the order lines.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
