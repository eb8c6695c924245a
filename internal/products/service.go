package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	maxTitleLen = 255

	// ProtectedMessage is returned when order lines still reference the product.
	ProtectedMessage = "Product cannot be deleted because it is associated with an order item."
)

var (
	minUnitPrice = decimal.NewFromInt(1)
	maxUnitPrice = decimal.RequireFromString("9999.99")
)

// Service exposes catalog product operations.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// CreateProductInput holds the payload to create a product.
type CreateProductInput struct {
	Title        string
	Slug         string
	Description  string
	UnitPrice    decimal.Decimal
	Inventory    int
	CollectionID uuid.UUID
}

// UpdateProductInput holds optional mutation values. A PUT sets every field.
type UpdateProductInput struct {
	Title        *string
	Slug         *string
	Description  *string
	UnitPrice    *decimal.Decimal
	Inventory    *int
	CollectionID *uuid.UUID
}

// ProductCache is the read-through cache for product detail reads.
type ProductCache interface {
	Get(ctx context.Context, id string) (*ProductDTO, error)
	Set(ctx context.Context, id string, value *ProductDTO) error
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo  *Repository
	cache ProductCache
	logg  *logger.Logger
}

// NewService constructs a product service. cache may be nil to disable caching.
func NewService(repo *Repository, cache ProductCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if !ValidOrdering(input.Ordering) {
		return nil, pkgerrors.Field("ordering", fmt.Sprintf("%q is not a valid ordering.", input.Ordering))
	}
	f := input.Filters
	if f.UnitPriceMin != nil && f.UnitPriceMax != nil && f.UnitPriceMin.GreaterThan(*f.UnitPriceMax) {
		return nil, pkgerrors.Field("unit_price_min", "must not exceed unit_price_max")
	}

	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	results := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		results = append(results, *NewProductDTO(&rows[i]))
	}
	page := pagination.NewPage(input.Pagination, total, results)
	return &page, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if cached := s.cached(ctx, id); cached != nil {
		return cached, nil
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := NewProductDTO(product)
	s.store(ctx, dto)
	return dto, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Title:        strings.TrimSpace(input.Title),
		Slug:         strings.TrimSpace(input.Slug),
		Description:  input.Description,
		UnitPrice:    input.UnitPrice,
		Inventory:    input.Inventory,
		CollectionID: input.CollectionID,
	}
	if err := s.validate(ctx, product); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	applyUpdateToProduct(product, input)
	if err := s.validate(ctx, product); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	s.evict(ctx, id)
	return NewProductDTO(product), nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	count, err := s.repo.CountOrderItems(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count product order items")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeProtected, ProtectedMessage)
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeProtected, err, ProtectedMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	s.evict(ctx, id)
	return nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Slug != nil {
		product.Slug = strings.TrimSpace(*input.Slug)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.UnitPrice != nil {
		product.UnitPrice = *input.UnitPrice
	}
	if input.Inventory != nil {
		product.Inventory = *input.Inventory
	}
	if input.CollectionID != nil {
		product.CollectionID = *input.CollectionID
	}
}

func (s *service) validate(ctx context.Context, p *models.Product) error {
	fields := map[string]string{}
	if p.Title == "" {
		fields["title"] = "This field may not be blank."
	} else if utf8.RuneCountInString(p.Title) > maxTitleLen {
		fields["title"] = "Ensure this field has no more than 255 characters."
	}
	if p.Slug == "" {
		fields["slug"] = "This field may not be blank."
	}
	if p.UnitPrice.LessThan(minUnitPrice) {
		fields["unit_price"] = "Ensure this value is greater than or equal to 1."
	} else if p.UnitPrice.GreaterThan(maxUnitPrice) {
		fields["unit_price"] = "Ensure this value is less than or equal to 9999.99."
	} else if !p.UnitPrice.Equal(p.UnitPrice.Round(2)) {
		fields["unit_price"] = "Ensure that there are no more than 2 decimal places."
	}
	if p.Inventory < 0 {
		fields["inventory"] = "Ensure this value is greater than or equal to 0."
	}

	if p.CollectionID == uuid.Nil {
		fields["collection_id"] = "This field is required."
	} else {
		ok, err := s.repo.CollectionExists(ctx, p.CollectionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
		}
		if !ok {
			fields["collection_id"] = "Invalid pk - object does not exist."
		}
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(fields)
	}
	return nil
}

func (s *service) cached(ctx context.Context, id uuid.UUID) *ProductDTO {
	if s.cache == nil {
		return nil
	}
	dto, err := s.cache.Get(ctx, id.String())
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", id.String()), "product cache read failed: "+err.Error())
		}
		return nil
	}
	return dto
}

func (s *service) store(ctx context.Context, dto *ProductDTO) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, dto.ID.String(), dto); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", dto.ID.String()), "product cache write failed: "+err.Error())
	}
}

func (s *service) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id.String()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", id.String()), "product cache evict failed: "+err.Error())
	}
}
