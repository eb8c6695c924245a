package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/access"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ProtectedMessage is returned when an order still has lines.
const ProtectedMessage = "Order cannot be deleted because it has order items."

// Service defines order reads and staff maintenance. Order creation lives in checkout.
type Service interface {
	List(ctx context.Context, scope access.Scope) ([]OrderDTO, error)
	Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*OrderDTO, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status string) (*OrderDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires the order service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, scope access.Scope) ([]OrderDTO, error) {
	customerID, found, err := s.scopeCustomer(ctx, scope)
	if err != nil {
		return nil, err
	}
	if !found {
		return []OrderDTO{}, nil
	}
	rows, err := s.repo.List(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*OrderDTO, error) {
	customerID, found, err := s.scopeCustomer(ctx, scope)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errOrderNotFound()
	}
	order, err := s.repo.Find(ctx, id, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOrderNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.List(ctx, &customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return newOrderDTOs(rows), nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, raw string) (*OrderDTO, error) {
	status, err := enums.ParsePaymentStatus(raw)
	if err != nil {
		return nil, pkgerrors.Field("payment_status", "must be one of P, C, F")
	}
	affected, err := s.repo.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
	}
	if affected == 0 {
		return nil, errOrderNotFound()
	}
	return s.Get(ctx, access.Scope{All: true}, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Find(ctx, id, nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errOrderNotFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	count, err := s.repo.CountItems(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order items")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeProtected, ProtectedMessage)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeProtected, err, ProtectedMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

// scopeCustomer returns nil for an unrestricted scope, or the caller's customer id.
// found is false when a restricted caller has no customer row.
func (s *service) scopeCustomer(ctx context.Context, scope access.Scope) (*uuid.UUID, bool, error) {
	if scope.All {
		return nil, true, nil
	}
	customerID, err := s.repo.CustomerIDForUser(ctx, scope.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return &customerID, true, nil
}

func errOrderNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
