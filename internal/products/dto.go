package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

var taxRate = decimal.RequireFromString("1.1")

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	UnitPrice    string    `json:"unit_price"`
	PriceWithTax string    `json:"price_with_tax"`
	Inventory    int       `json:"inventory"`
	CollectionID uuid.UUID `json:"collection_id"`
	LastUpdate   time.Time `json:"last_update"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		UnitPrice:    p.UnitPrice.StringFixed(2),
		PriceWithTax: PriceWithTax(p.UnitPrice).StringFixed(2),
		Inventory:    p.Inventory,
		CollectionID: p.CollectionID,
		LastUpdate:   p.LastUpdate,
	}
}

// PriceWithTax applies the flat 10% tax, rounded to cents.
func PriceWithTax(unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(taxRate).Round(2)
}
