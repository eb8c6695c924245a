package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type customerCreateRequest struct {
	UserID     string      `json:"user_id" validate:"required,uuid"`
	Phone      string      `json:"phone" validate:"max=255"`
	BirthDate  *types.Date `json:"birth_date"`
	Membership string      `json:"membership"`
}

type customerUpdateRequest struct {
	Phone      *string     `json:"phone" validate:"required,max=255"`
	BirthDate  *types.Date `json:"birth_date"`
	Membership *string     `json:"membership"`
}

type customerPatch struct {
	Phone      *string     `json:"phone" validate:"omitempty,max=255"`
	BirthDate  *types.Date `json:"birth_date"`
	Membership *string     `json:"membership"`
}

type customerMeRequest struct {
	Phone     string      `json:"phone" validate:"max=255"`
	BirthDate *types.Date `json:"birth_date"`
}

func dateOrZero(d *types.Date) types.Date {
	if d == nil {
		return types.Date{}
	}
	return *d
}

func customerID(r *http.Request) (uuid.UUID, error) {
	return validators.ParsePathUUID(r, "customerId", "customer")
}

func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "customer", logg, func(w http.ResponseWriter, r *http.Request) error {
		all, err := svc.List(r.Context())
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, all)
		return nil
	})
}

func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "customer", logg, func(w http.ResponseWriter, r *http.Request) error {
		var body customerCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		owner, err := uuid.Parse(body.UserID)
		if err != nil {
			return pkgerrors.Field("user_id", "must be a valid uuid")
		}
		created, err := svc.Create(r.Context(), customers.CreateCustomerInput{
			UserID:     owner,
			Phone:      body.Phone,
			BirthDate:  dateOrZero(body.BirthDate),
			Membership: body.Membership,
		})
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
		return nil
	})
}

func CustomerDetail(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "customer", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := customerID(r)
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

// CustomerUpdate serves staff PUT and PATCH. PUT requires phone; user_id is never writable.
func CustomerUpdate(svc customers.Service, partial bool, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "customer", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := customerID(r)
		if err != nil {
			return err
		}
		body, err := decodeBody(r, partial, func(full customerUpdateRequest) customerPatch { return customerPatch(full) })
		if err != nil {
			return err
		}
		if !partial && body.BirthDate == nil {
			body.BirthDate = &types.Date{}
		}
		updated, err := svc.Update(r.Context(), id, customers.UpdateCustomerInput{
			Phone:      body.Phone,
			BirthDate:  body.BirthDate,
			Membership: body.Membership,
		})
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, updated)
		return nil
	})
}

func CustomerDelete(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "customer", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := customerID(r)
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

// CustomerMe returns the caller's own customer profile.
func CustomerMe(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "customer", logg, func(w http.ResponseWriter, r *http.Request) error {
		me, err := caller(r)
		if err != nil {
			return err
		}
		profile, err := svc.Me(r.Context(), me.UserID)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, profile)
		return nil
	})
}

// CustomerUpdateMe replaces the caller's phone and birth date.
func CustomerUpdateMe(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "customer", logg, func(w http.ResponseWriter, r *http.Request) error {
		me, err := caller(r)
		if err != nil {
			return err
		}
		var body customerMeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		profile, err := svc.UpdateMe(r.Context(), me.UserID, customers.UpdateMeInput{
			Phone:     body.Phone,
			BirthDate: dateOrZero(body.BirthDate),
		})
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, profile)
		return nil
	})
}

// CustomerHistory lists a customer's orders for holders of view_history.
func CustomerHistory(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "customer", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := customerID(r)
		if err != nil {
			return err
		}
		history, err := svc.History(r.Context(), id)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, history)
		return nil
	})
}
