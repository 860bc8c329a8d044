package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
	"go-buildmart/repository"
)

const maxBodyBytes = 1 << 20

// Validate is the shared validator. Field names in messages use json tags.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.ValidCategory(fl.Field().String())
	})
	return v
}

// Normalizer is implemented by request bodies that clean their fields
// before validation.
type Normalizer interface {
	Normalize()
}

// DecodeJSON reads the body into dst, normalizes it and validates it.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return BadRequest("Request body is empty")
		}
		return &AppError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}
	return Validate.Struct(dst)
}

func flatten(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters long", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", field)
	case "category":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(models.Categories, ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

// PathID parses a hex ObjectID from a route variable.
func PathID(vars map[string]string, name string) (primitive.ObjectID, error) {
	return repository.ParseID(vars[name])
}

// ParsePage reads ?page= and ?limit=.
func ParsePage(r *http.Request) repository.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return repository.Page{Number: page, Limit: limit}.Normalize()
}
