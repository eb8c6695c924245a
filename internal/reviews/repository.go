package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists product reviews.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}

// ListForProduct returns the product's reviews, oldest first.
func (r *Repository) ListForProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.DB(ctx).
		Where("product_id = ?", productID).
		Order("date ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// FindForProduct loads a review only when it belongs to the product.
func (r *Repository) FindForProduct(ctx context.Context, productID, reviewID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.DB(ctx).First(&review, "id = ? AND product_id = ?", reviewID, productID).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.DB(ctx).Create(review).Error
}

func (r *Repository) Save(ctx context.Context, review *models.Review) error {
	return r.DB(ctx).Save(review).Error
}

func (r *Repository) Delete(ctx context.Context, reviewID uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", reviewID).Delete(&models.Review{}).Error
}
