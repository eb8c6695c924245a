package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type reviewRequest struct {
	Name        *string `json:"name" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

type reviewPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (b reviewRequest) input() reviews.ReviewInput { return reviewPatch(b).input() }

func (b reviewPatch) input() reviews.ReviewInput {
	return reviews.ReviewInput{Name: b.Name, Description: b.Description}
}

func productID(r *http.Request) (uuid.UUID, error) {
	return validators.ParsePathUUID(r, "productId", "product")
}

// reviewIDs reads the product and review ids of a nested review route.
func reviewIDs(r *http.Request) (product, review uuid.UUID, err error) {
	if product, err = productID(r); err != nil {
		return
	}
	review, err = validators.ParsePathUUID(r, "reviewId", "review")
	return
}

func ReviewList(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "review", logg, func(w http.ResponseWriter, r *http.Request) error {
		pid, err := productID(r)
		if err != nil {
			return err
		}
		all, err := svc.List(r.Context(), pid)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, all)
		return nil
	})
}

func ReviewCreate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "review", logg, func(w http.ResponseWriter, r *http.Request) error {
		pid, err := productID(r)
		if err != nil {
			return err
		}
		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		created, err := svc.Create(r.Context(), pid, body.input())
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
		return nil
	})
}

func ReviewDetail(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "review", logg, func(w http.ResponseWriter, r *http.Request) error {
		pid, rid, err := reviewIDs(r)
		if err != nil {
			return err
		}
		found, err := svc.Get(r.Context(), pid, rid)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, found)
		return nil
	})
}

// ReviewUpdate serves PUT (name and description required) and PATCH.
func ReviewUpdate(svc reviews.Service, partial bool, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "review", logg, func(w http.ResponseWriter, r *http.Request) error {
		pid, rid, err := reviewIDs(r)
		if err != nil {
			return err
		}
		body, err := decodeBody(r, partial, func(full reviewRequest) reviewPatch { return reviewPatch(full) })
		if err != nil {
			return err
		}
		updated, err := svc.Update(r.Context(), pid, rid, body.input())
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, updated)
		return nil
	})
}

func ReviewDelete(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "review", logg, func(w http.ResponseWriter, r *http.Request) error {
		pid, rid, err := reviewIDs(r)
		if err != nil {
			return err
		}
		if err := svc.Delete(r.Context(), pid, rid); err != nil {
			return err
		}
		responses.WriteNoContent(w)
		return nil
	})
}
