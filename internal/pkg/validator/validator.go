package validator

import (
	"fmt"
	"sort"
	"strings"

	"equiprent/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return domain.Department(fl.Field().String()).Valid()
	})
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		errors[err.Field()] = err.Tag()
	}
	return errors
}

// Describe renders field errors as "Field: tag" pairs in a stable order.
func Describe(errs map[string]string) string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, errs[f]))
	}
	return strings.Join(parts, ", ")
}
