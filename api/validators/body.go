package validators

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their wire name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	return v
}()

// tagMessages renders a failed validate tag. %s is the tag parameter.
var tagMessages = map[string]string{
	"required": "This field is required.",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"gte":      "must be greater than or equal to %s",
	"email":    "must be a valid email",
	"uuid":     "must be a valid uuid",
	"oneof":    "must be one of %s",
}

// DecodeJSONBody decodes a strict JSON body into dest and runs its validate tags.
// An empty body decodes as {} so required tags report per field.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer io.Copy(io.Discard, r.Body) //nolint:errcheck
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
			WithDetails(map[string]any{"error": err.Error()})
	}
	return checkStruct(dest)
}

func checkStruct(v any) error {
	err := validate.Struct(v)
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
		return nil
	}
	details := make(map[string]string, len(fields))
	for _, fe := range fields {
		details[fe.Field()] = fieldMessage(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func fieldMessage(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return strings.Replace(msg, "%s", strings.ReplaceAll(fe.Param(), " ", ", "), 1)
	}
	return msg
}
