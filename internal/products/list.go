package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Supported values for the ordering query parameter.
var orderings = map[string]string{
	"unit_price":   "unit_price ASC",
	"-unit_price":  "unit_price DESC",
	"last_update":  "last_update ASC",
	"-last_update": "last_update DESC",
	"title":        "title ASC",
	"-title":       "title DESC",
}

const defaultOrdering = "title"

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	CollectionID *uuid.UUID
	UnitPriceMin *decimal.Decimal
	UnitPriceMax *decimal.Decimal
	Search       string
}

// ListProductsInput captures the inputs needed to paginate and filter products.
type ListProductsInput struct {
	Filters    ProductListFilters
	Ordering   string
	Pagination pagination.Params
}

// ProductListResult is the paginated list envelope.
type ProductListResult = pagination.Page[ProductDTO]

// ValidOrdering reports whether value is an accepted ordering key.
func ValidOrdering(value string) bool {
	if value == "" {
		return true
	}
	_, ok := orderings[value]
	return ok
}
