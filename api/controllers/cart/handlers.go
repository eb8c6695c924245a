package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var errNoCartService = pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")

// handle mounts h, or a handler that always fails when the service was not wired.
func handle(svc cartsvc.Service, logg *logger.Logger, h responses.Handler) http.HandlerFunc {
	if svc == nil {
		h = func(http.ResponseWriter, *http.Request) error { return errNoCartService }
	}
	return responses.Handle(logg, h)
}

func cartID(r *http.Request) (uuid.UUID, error) {
	return validators.ParsePathUUID(r, "cartId", "cart")
}

// lineIDs reads the cart and item ids of a nested item route.
func lineIDs(r *http.Request) (cart, item uuid.UUID, err error) {
	if cart, err = cartID(r); err != nil {
		return
	}
	item, err = validators.ParsePathUUID(r, "itemId", "cart item")
	return
}

// CartCreate opens an anonymous cart. Carts are addressed by their unguessable id.
func CartCreate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		created, err := svc.Create(r.Context())
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
		return nil
	})
}

// CartFetch returns the cart with its items and totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := cartID(r)
		if err != nil {
			return err
		}
		found, err := svc.Get(r.Context(), id)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, found)
		return nil
	})
}

func CartDelete(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := cartID(r)
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

func ItemList(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := cartID(r)
		if err != nil {
			return err
		}
		lines, err := svc.ListItems(r.Context(), id)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, lines)
		return nil
	})
}

// ItemAdd merges the product into the cart, adding to an existing line's quantity.
func ItemAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := cartID(r)
		if err != nil {
			return err
		}
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		line, err := svc.AddItem(r.Context(), id, body.toInput())
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, line)
		return nil
	})
}

func ItemDetail(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		cid, iid, err := lineIDs(r)
		if err != nil {
			return err
		}
		line, err := svc.GetItem(r.Context(), cid, iid)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, line)
		return nil
	})
}

// ItemUpdate replaces the quantity of a cart line.
func ItemUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		cid, iid, err := lineIDs(r)
		if err != nil {
			return err
		}
		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		line, err := svc.UpdateItem(r.Context(), cid, iid, *body.Quantity)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, line)
		return nil
	})
}

func ItemDelete(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		cid, iid, err := lineIDs(r)
		if err != nil {
			return err
		}
		if err := svc.DeleteItem(r.Context(), cid, iid); err != nil {
			return err
		}
		responses.WriteNoContent(w)
		return nil
	})
}
