// Package validation turns request payloads into either a typed value or a
// set of field errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
)

const invalidMessage = "invalid data"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Result is Ok when Fields is empty, Invalid otherwise.
type Result[T any] struct {
	Value  T
	Fields map[string]string
}

func (r Result[T]) Ok() bool { return len(r.Fields) == 0 }

// Err returns nil for an Ok result and a validation *apperror.Error otherwise.
func (r Result[T]) Err() error {
	if r.Ok() {
		return nil
	}
	return apperror.NewValidation(invalidMessage, r.Fields)
}

// Check validates v against its `validate` struct tags.
func Check[T any](v T) Result[T] {
	res := Result[T]{Value: v}
	err := validate.Struct(v)
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Fields = map[string]string{"_": err.Error()}
		return res
	}

	res.Fields = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		res.Fields[fieldPath(fe)] = message(fe)
	}
	return res
}

// Parse decodes the request body into T and validates it.
func Parse[T any](c *fiber.Ctx) (T, error) {
	var v T
	if err := c.BodyParser(&v); err != nil {
		return v, apperror.NewValidation("invalid request body", nil)
	}
	res := Check(v)
	return res.Value, res.Err()
}

// Merge adds extra field errors to a result, keeping existing messages.
func (r *Result[T]) Merge(fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		if _, exists := r.Fields[k]; !exists {
			r.Fields[k] = v
		}
	}
}

// fieldPath drops the root struct name: "checkoutRequest.billing.zip" -> "billing.zip".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if isText {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			if fe.Param() == "1" {
				return "must not be empty"
			}
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isText {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
