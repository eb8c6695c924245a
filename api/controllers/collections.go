package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/collections"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type collectionRequest struct {
	Title *string `json:"title" validate:"required"`
}

type collectionPatch struct {
	Title *string `json:"title"`
}

func collectionID(r *http.Request) (uuid.UUID, error) {
	return validators.ParsePathUUID(r, "collectionId", "collection")
}

func CollectionList(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "collection", logg, func(w http.ResponseWriter, r *http.Request) error {
		all, err := svc.List(r.Context())
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, all)
		return nil
	})
}

func CollectionDetail(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "collection", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := collectionID(r)
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

func CollectionCreate(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "collection", logg, func(w http.ResponseWriter, r *http.Request) error {
		var body collectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		created, err := svc.Create(r.Context(), collections.CollectionInput{Title: deref(body.Title)})
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
		return nil
	})
}

// CollectionUpdate serves PUT and PATCH. A PATCH without a title leaves the collection unchanged.
func CollectionUpdate(svc collections.Service, partial bool, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "collection", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := collectionID(r)
		if err != nil {
			return err
		}
		body, err := decodeBody(r, partial, func(full collectionRequest) collectionPatch { return collectionPatch(full) })
		if err != nil {
			return err
		}

		var updated *collections.CollectionDTO
		if partial && body.Title == nil {
			updated, err = svc.Get(r.Context(), id)
		} else {
			updated, err = svc.Update(r.Context(), id, collections.CollectionInput{Title: deref(body.Title)})
		}
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, updated)
		return nil
	})
}

func CollectionDelete(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "collection", logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := collectionID(r)
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
