package validation

import (
	"math/big"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// digits возвращает общее число цифр и число цифр после точки,
// так же как их считает decimal(max_digits, decimal_places) в SQL
func digits(d decimal.Decimal) (total, fractional int) {
	coefficient := new(big.Int).Abs(d.Coefficient()).String()
	exp := int(d.Exponent())

	total = len(coefficient)
	if exp >= 0 {
		return total + exp, 0
	}

	fractional = -exp
	if fractional > total {
		total = fractional
	}

	return total, fractional
}

func parseField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func paramInt(fl validator.FieldLevel) int {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic("validation: tag " + fl.GetTag() + " requires integer param")
	}
	return n
}

func isDecimal(fl validator.FieldLevel) bool {
	_, ok := parseField(fl)
	return ok
}

func isNonNegative(fl validator.FieldLevel) bool {
	d, ok := parseField(fl)
	return ok && !d.IsNegative()
}

func hasMaxDecimalPlaces(fl validator.FieldLevel) bool {
	d, ok := parseField(fl)
	if !ok {
		return false
	}
	_, fractional := digits(d)
	return fractional <= paramInt(fl)
}

func hasMaxDigits(fl validator.FieldLevel) bool {
	d, ok := parseField(fl)
	if !ok {
		return false
	}
	total, _ := digits(d)
	return total <= paramInt(fl)
}

func hasMaxWholeDigits(fl validator.FieldLevel) bool {
	d, ok := parseField(fl)
	if !ok {
		return false
	}
	total, fractional := digits(d)
	return total-fractional <= paramInt(fl)
}
