package collections

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type collectionRow struct {
	ID            uuid.UUID `gorm:"column:id"`
	Title         string    `gorm:"column:title"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
	ProductsCount int64     `gorm:"column:products_count"`
}

// Repository persists collections.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) withCounts(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("collections").
		Select("collections.id, collections.title, collections.created_at, collections.updated_at, COUNT(products.id) AS products_count").
		Joins("LEFT JOIN products ON products.collection_id = collections.id").
		Group("collections.id, collections.title, collections.created_at, collections.updated_at")
}

// List returns every collection with its product count, ordered by title.
func (r *Repository) List(ctx context.Context) ([]collectionRow, error) {
	var rows []collectionRow
	err := r.withCounts(ctx).Order("collections.title ASC").Scan(&rows).Error
	return rows, err
}

// Get returns one collection with its product count.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*collectionRow, error) {
	var rows []collectionRow
	if err := r.withCounts(ctx).Where("collections.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	var c models.Collection
	if err := r.DB(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, c *models.Collection) error {
	return r.DB(ctx).Create(c).Error
}

func (r *Repository) Save(ctx context.Context, c *models.Collection) error {
	return r.DB(ctx).Save(c).Error
}

// CountProducts reports how many products reference the collection.
func (r *Repository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("collection_id = ?", id).Count(&count).Error
	return count, err
}

// Delete removes the collection and reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Collection{})
	return res.RowsAffected > 0, res.Error
}
