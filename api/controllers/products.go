package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const maxSearchLen = 255

// productRequest is the POST and PUT body. Every field but description is required.
type productRequest struct {
	Title        *string          `json:"title" validate:"required"`
	Slug         *string          `json:"slug" validate:"required"`
	Description  *string          `json:"description"`
	UnitPrice    *decimal.Decimal `json:"unit_price" validate:"required"`
	Inventory    *int             `json:"inventory" validate:"required"`
	CollectionID *string          `json:"collection_id" validate:"required,uuid"`
}

// productPatch is the PATCH body. Absent fields keep their stored value.
type productPatch struct {
	Title        *string          `json:"title"`
	Slug         *string          `json:"slug"`
	Description  *string          `json:"description"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Inventory    *int             `json:"inventory"`
	CollectionID *string          `json:"collection_id" validate:"omitempty,uuid"`
}

func (p productPatch) collectionID() *uuid.UUID {
	if p.CollectionID == nil {
		return nil
	}
	id := uuid.MustParse(strings.TrimSpace(*p.CollectionID))
	return &id
}

func (p productRequest) toCreateInput() productsvc.CreateProductInput {
	return productsvc.CreateProductInput{
		Title:        *p.Title,
		Slug:         *p.Slug,
		Description:  deref(p.Description),
		UnitPrice:    *p.UnitPrice,
		Inventory:    *p.Inventory,
		CollectionID: *productPatch(p).collectionID(),
	}
}

// toUpdateInput clears the description on PUT when the body left it out.
func (p productPatch) toUpdateInput(partial bool) productsvc.UpdateProductInput {
	input := productsvc.UpdateProductInput{
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		UnitPrice:    p.UnitPrice,
		Inventory:    p.Inventory,
		CollectionID: p.collectionID(),
	}
	if !partial && input.Description == nil {
		input.Description = new(string)
	}
	return input
}

// ProductList serves the paginated, filterable catalog browse endpoint.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "product", logg, func(w http.ResponseWriter, r *http.Request) error {
		input, err := parseProductListQuery(r)
		if err != nil {
			return err
		}
		page, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, page)
		return nil
	})
}

func parseProductListQuery(r *http.Request) (productsvc.ListProductsInput, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}
	pageSize, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}
	collectionID, err := validators.ParseQueryUUID(r, "collection_id")
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}
	minPrice, err := validators.ParseQueryDecimal(r, "unit_price_min")
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "unit_price_max")
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}

	query := r.URL.Query()
	return productsvc.ListProductsInput{
		Filters: productsvc.ProductListFilters{
			CollectionID: collectionID,
			UnitPriceMin: minPrice,
			UnitPriceMax: maxPrice,
			Search:       validators.SanitizeString(query.Get("search"), maxSearchLen),
		},
		Ordering:   strings.TrimSpace(query.Get("ordering")),
		Pagination: pagination.Params{Page: page, PageSize: pageSize},
	}, nil
}

func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "product", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := productID(r)
		if err != nil {
			return err
		}
		found, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, found)
		return nil
	})
}

// ProductCreate handles staff product creation.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "product", logg, func(w http.ResponseWriter, r *http.Request) error {
		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		created, err := svc.CreateProduct(r.Context(), body.toCreateInput())
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
		return nil
	})
}

// ProductUpdate serves PUT (every field required) and PATCH (only supplied fields change).
func ProductUpdate(svc productsvc.Service, partial bool, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "product", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := productID(r)
		if err != nil {
			return err
		}
		body, err := decodeBody(r, partial, func(full productRequest) productPatch { return productPatch(full) })
		if err != nil {
			return err
		}
		updated, err := svc.UpdateProduct(r.Context(), id, body.toUpdateInput(partial))
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, updated)
		return nil
	})
}

func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "product", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := productID(r)
		if err != nil {
			return err
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			return err
		}
		responses.WriteNoContent(w)
		return nil
	})
}
