package validation

import (
	"errors"
	"reflect"
	"strings"

	"stayhub/internal/domain"
	"stayhub/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func oneOf[T ~string](values ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := T(fl.Field().String())
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

func registerCustomValidations() {
	_ = validate.RegisterValidation("property_type", oneOf(
		models.PropertyApartment, models.PropertyHouse, models.PropertyRoom, models.PropertyHotel))
	_ = validate.RegisterValidation("currency", oneOf(
		models.CurrencyRUB, models.CurrencyUSD, models.CurrencyEUR))
	_ = validate.RegisterValidation("room_status", oneOf(
		models.RoomStatusActive, models.RoomStatusHidden, models.RoomStatusBlocked))
	_ = validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})
}

// Fields validates s and returns per-field messages, nil when s is valid.
func Fields(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

// Struct validates s and returns a domain validation error listing every
// failing field.
func Struct(s interface{}) error {
	if fields := Fields(s); fields != nil {
		return domain.Validation("invalid request", fields)
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "Value is too short (min: " + fe.Param() + ")"
		}
		return "Value must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Value is too long (max: " + fe.Param() + ")"
		}
		return "Value must be at most " + fe.Param()
	case "gte":
		return "Value must be at least " + fe.Param()
	case "lte":
		return "Value must be at most " + fe.Param()
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "ltefield":
		return "Value must not exceed " + fe.Param()
	case "property_type":
		return "Invalid property type. Must be: apartment, house, room, or hotel"
	case "currency":
		return "Invalid currency. Must be: RUB, USD, or EUR"
	case "room_status":
		return "Invalid status. Must be: active, hidden, or blocked"
	case "date":
		return "Invalid date, expected YYYY-MM-DD"
	default:
		return "Invalid value"
	}
}
