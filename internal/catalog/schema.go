package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report upstream field names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody decodes a JSON body into result and checks it against the
// struct's validate tags. Any failure is a *SchemaError.
func decodeBody(op string, body io.Reader, result any) error {
	if err := json.NewDecoder(body).Decode(result); err != nil {
		return &SchemaError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := validate.Struct(result); err != nil {
		return &SchemaError{Op: op, Err: describeValidation(rootName(result), err)}
	}
	return nil
}

// rootName is the type name validator puts at the head of every namespace.
func rootName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// describeValidation flattens validator errors into one readable error.
func describeValidation(root string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// "Page[...].results[0].id" reads "results[0].id".
		ns := strings.TrimPrefix(fe.Namespace(), root+".")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", ns, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", ns, fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
