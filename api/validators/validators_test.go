package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type itemBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBodyFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
	var body itemBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "This field is required.", details["product_id"])
	assert.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":1,"extra":true}`))
	var body itemBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseAuthToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"JWT abc":     "abc",
		"jwt   abc":   "abc",
		"abc":         "abc",
		"Bearer\tabc": "abc",
	}
	for raw, want := range cases {
		got, err := ParseAuthToken(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "   ", "Bearer ", "Bearer", "bearer", "JWT", "jwt \t", "Bearer a b", "Basic abc"} {
		_, err := ParseAuthToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&collection_id=nope&unit_price_min=12.50", nil)

	page, err := ParseQueryInt(req, "page", 1, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	_, err = ParseQueryUUID(req, "collection_id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	min, err := ParseQueryDecimal(req, "unit_price_min")
	require.NoError(t, err)
	require.NotNil(t, min)
	assert.Equal(t, "12.50", min.StringFixed(2))

	max, err := ParseQueryDecimal(req, "unit_price_max")
	require.NoError(t, err)
	assert.Nil(t, max)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "héllo", SanitizeString("  héllo wörld ", 5))
	assert.Equal(t, "x", SanitizeString(" x ", 0))
}
