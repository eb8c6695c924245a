package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service exposes anonymous cart operations.
type Service interface {
	Create(ctx context.Context) (*CartDTO, error)
	Get(ctx context.Context, cartID uuid.UUID) (*CartDTO, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
	AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*CartItemDTO, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItemDTO, error)
	GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartItemDTO, error)
	UpdateItem(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*CartItemDTO, error)
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
}

type service struct {
	repo CartRepository
}

// NewService builds a cart service backed by the provided repository.
func NewService(repo CartRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context) (*CartDTO, error) {
	cart := &models.Cart{}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart")
	}
	return newCartDTO(cart), nil
}

func (s *service) Get(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindWithItems(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCartNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return newCartDTO(cart), nil
}

func (s *service) Delete(ctx context.Context, cartID uuid.UUID) error {
	if err := s.requireCart(ctx, cartID); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	if deleted == 0 {
		return errCartNotFound()
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*CartItemDTO, error) {
	if err := s.requireCart(ctx, cartID); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	ok, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !ok {
		return nil, pkgerrors.Field("product_id", "unknown product")
	}

	item, err := s.repo.MergeItem(ctx, cartID, input.ProductID, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
	}
	dto := newItemDTO(item)
	return &dto, nil
}

func (s *service) ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItemDTO, error) {
	if err := s.requireCart(ctx, cartID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	out := make([]CartItemDTO, 0, len(items))
	for i := range items {
		out = append(out, newItemDTO(&items[i]))
	}
	return out, nil
}

func (s *service) GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartItemDTO, error) {
	item, err := s.loadItem(ctx, cartID, itemID)
	if err != nil {
		return nil, err
	}
	dto := newItemDTO(item)
	return &dto, nil
}

func (s *service) UpdateItem(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*CartItemDTO, error) {
	if _, err := s.loadItem(ctx, cartID, itemID); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItemQuantity(ctx, cartID, itemID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.GetItem(ctx, cartID, itemID)
}

func (s *service) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	if err := s.requireCart(ctx, cartID); err != nil {
		return err
	}
	affected, err := s.repo.DeleteItem(ctx, cartID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) requireCart(ctx context.Context, cartID uuid.UUID) error {
	ok, err := s.repo.Exists(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !ok {
		return errCartNotFound()
	}
	return nil
}

func (s *service) loadItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	if err := s.requireCart(ctx, cartID); err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, cartID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return item, nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.Field("quantity", "must be at least 1")
	}
	return nil
}

func errCartNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
}
