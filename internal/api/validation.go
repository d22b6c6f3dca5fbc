package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// decimal.Decimal is validated in place; a custom type func returning the
	// same type would recurse.
	if err := vld.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && value.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("failed to register 'positive_decimal': %w", err)
	}

	// Report JSON field names rather than Go field names.
	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return vld, nil
}

func getValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	return validate, errValidate
}

// validateStruct runs the struct's validate tags and reports the first
// failure as BadRequest.
func validateStruct(payload any) error {
	vld, err := getValidator()
	if err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "validation unavailable", err)
	}

	if err := vld.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return apperr.BadRequest(describe(fieldErrs[0]))
		}
		return apperr.Wrap(apperr.KindBadRequest, "invalid request", err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", field)
	case "email":
		return fmt.Sprintf("'%s' must be a valid email", field)
	case "min":
		return fmt.Sprintf("'%s' must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("'%s' must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("'%s' must be one of [%s]", field, fe.Param())
	case "positive_decimal":
		return fmt.Sprintf("'%s' must be a positive amount", field)
	default:
		return fmt.Sprintf("'%s' failed '%s' check", field, fe.Tag())
	}
}

// parseBody decodes a JSON body into payload and validates it.
func parseBody(c *fiber.Ctx, payload any) error {
	ct := c.Get(fiber.HeaderContentType)
	if ct != "" && !strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		return apperr.BadRequest("Content-Type must be application/json")
	}
	if len(c.Body()) == 0 {
		return apperr.BadRequest("request body is required")
	}

	c.Request().Header.SetContentType(fiber.MIMEApplicationJSON)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "malformed JSON body", err)
	}
	return validateStruct(payload)
}
