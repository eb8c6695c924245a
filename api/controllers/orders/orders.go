package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/access"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type createOrderRequest struct {
	CartID *string `json:"cart_id"`
}

type updateOrderRequest struct {
	PaymentStatus *string `json:"payment_status"`
}

// handle mounts h, or a handler that always fails when the named service was not wired.
func handle(ready bool, name string, logg *logger.Logger, h responses.Handler) http.HandlerFunc {
	if !ready {
		h = func(http.ResponseWriter, *http.Request) error {
			return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
		}
	}
	return responses.Handle(logg, h)
}

func orderID(r *http.Request) (uuid.UUID, error) {
	return validators.ParsePathUUID(r, "orderId", "order")
}

func scopeOf(r *http.Request) access.Scope {
	return access.OrderScope(middleware.PrincipalFromContext(r.Context()))
}

// List returns every order to staff and only the caller's own orders otherwise.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc != nil, "orders", logg, func(w http.ResponseWriter, r *http.Request) error {
		visible, err := svc.List(r.Context(), scopeOf(r))
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, visible)
		return nil
	})
}

// Detail hides other customers' orders behind NotFound.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc != nil, "orders", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := orderID(r)
		if err != nil {
			return err
		}
		found, err := svc.Get(r.Context(), scopeOf(r), id)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, found)
		return nil
	})
}

// parseCartID maps an absent cart_id to required and a malformed one to the unknown cart message.
func (b createOrderRequest) parseCartID() (uuid.UUID, error) {
	if b.CartID == nil {
		return uuid.Nil, pkgerrors.Field("cart_id", "This field is required.")
	}
	id, err := uuid.Parse(strings.TrimSpace(*b.CartID))
	if err != nil {
		return uuid.Nil, pkgerrors.Field("cart_id", checkoutsvc.MessageCartNotFound)
	}
	return id, nil
}

// Create checks the cart out into an order for the caller.
func Create(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc != nil, "checkout", logg, func(w http.ResponseWriter, r *http.Request) error {
		buyer := middleware.PrincipalFromContext(r.Context())
		if !buyer.Authenticated {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
		}
		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		cartID, err := body.parseCartID()
		if err != nil {
			return err
		}

		placed, err := svc.Execute(r.Context(), buyer.UserID, cartID)
		if err != nil {
			return err
		}
		if logg != nil {
			logg.Info(logg.WithFields(r.Context(), map[string]any{
				"order_id": placed.ID.String(),
				"cart_id":  cartID.String(),
			}), "checkout.completed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.NewOrderDTO(placed))
		return nil
	})
}

// UpdatePaymentStatus lets staff move an order between P, C and F.
func UpdatePaymentStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc != nil, "orders", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := orderID(r)
		if err != nil {
			return err
		}
		var body updateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		if body.PaymentStatus == nil {
			return pkgerrors.Field("payment_status", "This field is required.")
		}
		updated, err := svc.UpdatePaymentStatus(r.Context(), id, *body.PaymentStatus)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, updated)
		return nil
	})
}

func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc != nil, "orders", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := orderID(r)
		if err != nil {
			return err
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			return err
		}
		responses.WriteNoContent(w)
		return nil
	})
}
