// Package validation holds the shared struct validator and its ERP-specific rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"example.com/textile/erp/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var (
	validate    *validator.Validate
	regionMu    sync.RWMutex
	phoneRegion = "IN"
)

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// decimal.Decimal compares as a float so gt/gte/lte work on money and meters
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.InexactFloat64()
	}, decimal.Decimal{})

	registerCustomValidations()
}

func registerCustomValidations() {
	_ = validate.RegisterValidation("stage", func(fl validator.FieldLevel) bool {
		return models.IsValidStage(fl.Field().String())
	})
	_ = validate.RegisterValidation("stage_status", func(fl validator.FieldLevel) bool {
		return models.IsValidStageStatus(fl.Field().String())
	})
	_ = validate.RegisterValidation("qc_status", func(fl validator.FieldLevel) bool {
		return models.IsValidQCStatus(fl.Field().String())
	})
	_ = validate.RegisterValidation("report_type", func(fl validator.FieldLevel) bool {
		return models.IsValidReportType(fl.Field().String())
	})
	_ = validate.RegisterValidation("permission", func(fl validator.FieldLevel) bool {
		return models.IsKnownPermission(fl.Field().String())
	})
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, err := NormalizePhone(fl.Field().String())
		return err == nil
	})
}

// SetPhoneRegion sets the default region used to parse numbers without a
// country code
func SetPhoneRegion(region string) {
	if region == "" {
		return
	}
	regionMu.Lock()
	defer regionMu.Unlock()
	phoneRegion = strings.ToUpper(region)
}

// NormalizePhone parses a phone number and returns it in E.164 form
func NormalizePhone(phone string) (string, error) {
	regionMu.RLock()
	region := phoneRegion
	regionMu.RUnlock()

	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return "", fmt.Errorf("invalid phone number %q: %w", phone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// Struct validates a struct using its validate tags
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// Message renders a validation error as one human readable line
func Message(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "stage":
		return fmt.Sprintf("%s must be a known production stage", field)
	case "stage_status":
		return fmt.Sprintf("%s must be a known stage status", field)
	case "qc_status":
		return fmt.Sprintf("%s must be one of pass, fail, partial", field)
	case "report_type":
		return fmt.Sprintf("%s must be a known report type", field)
	case "permission":
		return fmt.Sprintf("%s contains an unknown permission", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
