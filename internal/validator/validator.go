// Package validator checks reasoning backend output against the strict
// report and interpretation schemas before it becomes domain data.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"labassist/internal/domain"
	"labassist/internal/llm"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("finding_category", validateFindingCategory)
	_ = validate.RegisterValidation("nonblank", validateNotBlank)
}

func validateFindingCategory(fl validator.FieldLevel) bool {
	_, ok := domain.ParseCategory(fl.Field().String())
	return ok
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// schemaError converts validation failures into a malformed-response error so
// the caller's retry policy treats it like any other unusable model output.
func schemaError(what string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s: %v", llm.ErrMalformedResponse, what, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s: %s", llm.ErrMalformedResponse, what, strings.Join(msgs, ", "))
}
