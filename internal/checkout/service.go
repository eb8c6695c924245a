package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// Precondition messages, reported under the cart_id field.
const (
	MessageCartNotFound = "No cart with the given id was found."
	MessageCartEmpty    = "No items in the cart."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type outcomeCounter interface {
	Inc(outcome string)
}

// Service converts a cart into an order.
type Service interface {
	Execute(ctx context.Context, userID, cartID uuid.UUID) (*models.Order, error)
}

type service struct {
	tx            txRunner
	cartRepo      cart.CartRepository
	ordersRepo    orders.Repository
	customersRepo *customers.Repository
	outbox        outboxPublisher
	metrics       outcomeCounter
}

// NewService builds the checkout service. counter may be nil.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.Repository,
	customersRepo *customers.Repository,
	publisher outboxPublisher,
	counter outcomeCounter,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if customersRepo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if counter == nil {
		counter = (*metrics.CheckoutMetrics)(nil)
	}
	return &service{
		tx:            tx,
		cartRepo:      cartRepo,
		ordersRepo:    ordersRepo,
		customersRepo: customersRepo,
		outbox:        publisher,
		metrics:       counter,
	}, nil
}

func (s *service) Execute(ctx context.Context, userID, cartID uuid.UUID) (*models.Order, error) {
	order, err := s.execute(ctx, userID, cartID)
	switch {
	case err == nil:
		s.metrics.Inc(metrics.CheckoutSuccess)
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		s.metrics.Inc(metrics.CheckoutValidation)
	default:
		s.metrics.Inc(metrics.CheckoutFailure)
	}
	return order, err
}

func (s *service) execute(ctx context.Context, userID, cartID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication credentials were not provided")
	}
	if cartID == uuid.Nil {
		return nil, pkgerrors.Field("cart_id", MessageCartNotFound)
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		exists, err := cartRepo.LockForCheckout(ctx, cartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if !exists {
			return pkgerrors.Field("cart_id", MessageCartNotFound)
		}
		items, err := cartRepo.ListItems(ctx, cartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
		}
		if len(items) == 0 {
			return pkgerrors.Field("cart_id", MessageCartEmpty)
		}

		customer, err := s.customersRepo.WithTx(tx).GetOrCreateForUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision customer")
		}

		order := &models.Order{CustomerID: customer.ID, PaymentStatus: enums.PaymentStatusPending}
		if err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}

		lines := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			if item.Product == nil {
				return pkgerrors.New(pkgerrors.CodeInternal, "cart item product missing")
			}
			lines = append(lines, models.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.Product.UnitPrice,
			})
		}
		if err := ordersRepo.CreateOrderItems(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
		}

		if err := cartRepo.ClearItems(ctx, cartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		deleted, err := cartRepo.Delete(ctx, cartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}
		// Another checkout consumed the cart first.
		if deleted == 0 {
			return pkgerrors.Field("cart_id", MessageCartNotFound)
		}

		order.Items = lines
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				CustomerID: customer.ID,
				UserID:     userID,
				CartID:     cartID,
				ItemCount:  len(lines),
				Total:      order.Total().StringFixed(2),
				PlacedAt:   order.PlacedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}

		reloaded, err := ordersRepo.Find(ctx, order.ID, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		result = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
