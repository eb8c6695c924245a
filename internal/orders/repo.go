package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CustomerIDForUser resolves the caller's customer row. gorm.ErrRecordNotFound when absent.
func (r *repository) CustomerIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Select("id").First(&customer, "user_id = ?", userID).Error
	if err != nil {
		return uuid.Nil, err
	}
	return customer.ID, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Product").Create(&items).Error
}

// List returns orders newest first, restricted to one customer when customerID is set.
func (r *repository) List(ctx context.Context, customerID *uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	query := r.withItems(ctx)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	err := query.Order("placed_at DESC").Order("id ASC").Find(&orders).Error
	return orders, err
}

func (r *repository) Find(ctx context.Context, id uuid.UUID, customerID *uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := r.withItems(ctx).Where("id = ?", id)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_status", status)
	return res.RowsAffected, res.Error
}

func (r *repository) CountItems(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("order_id = ?", id).Count(&count).Error
	return count, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{}).Error
}

func (r *repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product")
}
