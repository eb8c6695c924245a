package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists products.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CollectionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Collection{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// UpdateProduct writes every column of an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Save(product).Error
}

// DeleteProduct removes a product by ID.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// CountOrderItems reports how many order lines reference the product.
func (r *Repository) CountOrderItems(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&count).Error
	return count, err
}

// List applies filters, ordering and pagination and returns the page plus the total count.
func (r *Repository) List(ctx context.Context, input ListProductsInput) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, input.Filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ordering := input.Ordering
	if ordering == "" {
		ordering = defaultOrdering
	}
	page := input.Pagination.Normalize()

	var rows []models.Product
	err := r.filtered(ctx, input.Filters).
		Order(orderings[ordering]).
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	return rows, total, err
}

func (r *Repository) filtered(ctx context.Context, f ProductListFilters) *gorm.DB {
	query := r.DB(ctx).Model(&models.Product{})

	if f.CollectionID != nil {
		query = query.Where("collection_id = ?", *f.CollectionID)
	}
	if f.UnitPriceMin != nil {
		query = query.Where("unit_price >= ?", *f.UnitPriceMin)
	}
	if f.UnitPriceMax != nil {
		query = query.Where("unit_price <= ?", *f.UnitPriceMax)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		query = query.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}
	return query
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
