package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors содержит ошибки валидации по полям: имя поля (как в JSON) -> сообщения
type Errors map[string][]string

// Error реализует интерфейс error
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], " "))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет сообщение об ошибке для поля
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В ошибках используем имена полей из json тегов
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "decimal", isDecimal)
	mustRegister(v, "nonnegative", isNonNegative)
	mustRegister(v, "decimal_places", hasMaxDecimalPlaces)
	mustRegister(v, "max_digits", hasMaxDigits)
	mustRegister(v, "whole_digits", hasMaxWholeDigits)
	mustRegister(v, "max_bytes", hasMaxBytes)

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// hasMaxBytes ограничивает длину строки в байтах, а не в символах
func hasMaxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic("validation: tag " + fl.GetTag() + " requires integer param")
	}
	return len(fl.Field().String()) <= n
}

// Struct валидирует структуру по тегам validate.
// Возвращает Errors, если есть ошибки в полях, или nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate: %w", err)
	}

	errs := make(Errors, len(fieldErrors))
	for _, fe := range fieldErrors {
		errs.Add(fe.Field(), message(fe))
	}

	return errs
}

// message возвращает человекочитаемое сообщение для ошибки поля
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max_bytes":
		return fmt.Sprintf("Ensure this field has no more than %s bytes.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "datetime":
		return "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	case "decimal":
		return "A valid number is required."
	case "nonnegative":
		return "Ensure this value is greater than or equal to 0."
	case "decimal_places":
		return fmt.Sprintf("Ensure that there are no more than %s decimal places.", fe.Param())
	case "max_digits":
		return fmt.Sprintf("Ensure that there are no more than %s digits in total.", fe.Param())
	case "whole_digits":
		return fmt.Sprintf("Ensure that there are no more than %s digits before the decimal point.", fe.Param())
	default:
		return "Invalid value."
	}
}
