package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ParsePathUUID reads a chi URL parameter. A malformed id cannot name a row,
// so it is reported as NotFound for the given noun.
func ParsePathUUID(r *http.Request, key, noun string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if raw == "" || err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, noun+" not found")
	}
	return id, nil
}
