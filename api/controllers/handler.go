package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/pkg/access"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// endpoint mounts h behind svc. A nil service turns every call into an internal error.
func endpoint[S any](svc S, name string, logg *logger.Logger, h responses.Handler) http.HandlerFunc {
	if any(svc) == nil {
		missing := pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
		h = func(http.ResponseWriter, *http.Request) error { return missing }
	}
	return responses.Handle(logg, h)
}

// caller is the authenticated principal of r.
func caller(r *http.Request) (access.Principal, error) {
	p := middleware.PrincipalFromContext(r.Context())
	if !p.Authenticated {
		return p, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// decodeBody reads a PUT body as Full, whose tags require every field, or a
// PATCH body as Patch. Both shapes share their fields, so asPatch is a plain conversion.
func decodeBody[Full, Patch any](r *http.Request, partial bool, asPatch func(Full) Patch) (Patch, error) {
	var patch Patch
	if partial {
		err := validators.DecodeJSONBody(r, &patch)
		return patch, err
	}
	var full Full
	if err := validators.DecodeJSONBody(r, &full); err != nil {
		return patch, err
	}
	return asPatch(full), nil
}
