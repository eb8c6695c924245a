package collections

import (
	"time"

	"github.com/google/uuid"
)

// CollectionDTO is the public shape of a collection.
type CollectionDTO struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	ProductsCount int64     `json:"products_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CollectionInput carries the writable fields of a collection.
type CollectionInput struct {
	Title string
}

func fromRow(row collectionRow) CollectionDTO {
	return CollectionDTO{
		ID:            row.ID,
		Title:         row.Title,
		ProductsCount: row.ProductsCount,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
