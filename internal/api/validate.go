package api

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// oneof splits on spaces, which "men's clothing" contains.
	_ = validate.RegisterValidation("product_category", func(fl validator.FieldLevel) bool {
		return IsProductCategory(fl.Field().String())
	})
	// max counts runes; bcrypt limits bytes.
	_ = validate.RegisterValidation("max_bytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
}

// IsProductCategory reports whether c is one of types.ProductCategories.
func IsProductCategory(c string) bool {
	for _, known := range types.ProductCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Validate runs the `validate` tags of s (a pointer to a struct). A failing
// field reports the text of its `message_<rule>` tag, then of its `message`
// tag, falling back to a generic sentence built from the rule. Fields are
// reported in declaration order.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	structType := reflect.TypeOf(s)
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	verr := &types.ValidationError{}
	seen := make(map[string]struct{}, len(validationErrs))
	for _, e := range validationErrs {
		name, tag := describeField(structType, e.StructNamespace())
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		msg := tag.Get("message_" + e.Tag())
		if msg == "" {
			msg = tag.Get("message")
		}
		if msg == "" {
			msg = defaultMessage(name, e)
		}
		verr.Fields = append(verr.Fields, types.FieldError{Field: name, Message: msg})
	}
	return verr
}

// describeField walks a "Type.Field.Nested" namespace and returns the dotted
// json path of the field together with its struct tag.
func describeField(t reflect.Type, namespace string) (string, reflect.StructTag) {
	segments := strings.Split(namespace, ".")
	if len(segments) > 1 {
		segments = segments[1:]
	}
	path := make([]string, 0, len(segments))
	var tag reflect.StructTag
	for _, seg := range segments {
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			path = append(path, seg)
			t = nil
			continue
		}
		field, ok := t.FieldByName(seg)
		if !ok {
			path = append(path, seg)
			t = nil
			continue
		}
		name := seg
		if js := field.Tag.Get("json"); js != "" && js != "-" {
			name = strings.Split(js, ",")[0]
		}
		path = append(path, name)
		tag = field.Tag
		t = field.Type
	}
	return strings.Join(path, "."), tag
}

func defaultMessage(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The field '%s' is required.", field)
	case "email":
		return fmt.Sprintf("The field '%s' must be a valid email address.", field)
	case "min":
		return fmt.Sprintf("The field '%s' must be at least %s.", field, e.Param())
	case "max_bytes":
		return fmt.Sprintf("The field '%s' must be at most %s bytes.", field, e.Param())
	case "max":
		return fmt.Sprintf("The field '%s' must be at most %s.", field, e.Param())
	case "gte":
		return fmt.Sprintf("The field '%s' must be greater than or equal to %s.", field, e.Param())
	case "lte":
		return fmt.Sprintf("The field '%s' must be less than or equal to %s.", field, e.Param())
	case "oneof":
		return fmt.Sprintf("The field '%s' must be one of %s.", field, e.Param())
	case "product_category":
		return fmt.Sprintf("The field '%s' must be one of: %s.", field, strings.Join(types.ProductCategories, ", "))
	default:
		return fmt.Sprintf("Field '%s' is invalid: %s", field, e.Tag())
	}
}
