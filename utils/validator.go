package utils

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hdreventsza-arch/hrd-events/models"
	"github.com/labstack/echo/v4"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidatorErrorResponse struct {
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors"`
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		var errs []ValidationError
		for _, fe := range verrs {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Message: getErrorMessages(fe),
			})
		}

		return echo.NewHTTPError(http.StatusBadRequest, ValidatorErrorResponse{
			Message: "validate failed",
			Errors:  errs,
		})
	}
	return nil
}

// ValidationErrors unwraps the field errors produced by Validate.
func ValidationErrors(err error) []ValidationError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if resp, ok := he.Message.(ValidatorErrorResponse); ok {
			return resp.Errors
		}
	}
	return nil
}

func getErrorMessages(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Too short"
	case "max":
		return "Too long"
	case "gte":
		return "Value too small"
	case "lte":
		return "Value too large"
	case "datetime":
		return "Invalid date, expected YYYY-MM-DD"
	case "qualification":
		return "Unknown qualification"
	case "nonnegint":
		return "Must be a whole number of zero or more"
	case "subject", "oneof":
		return "Unknown option"
	default:
		return "Invalid value"
	}
}

func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// the browser form only offers these values: a select, a number input
	// with min 0, and checkboxes over the subject catalog
	_ = v.RegisterValidation("qualification", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, opt := range models.QualificationOptions {
			if opt.Value == value {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("nonnegint", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && n >= 0
	})
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return models.IsCatalogSubject(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}
