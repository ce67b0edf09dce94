// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"papertrade/internal/models"
	"papertrade/internal/money"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("symbol", validateSymbol)
		_ = v.RegisterValidation("trade_side", validateTradeSide)
		_ = v.RegisterValidation("instrument_kind", validateInstrumentKind)
	}
}

// decimalValue lets numeric tags such as gt=0 apply to decimal fields.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateISO4217(fl validator.FieldLevel) bool {
	return money.IsKnownCurrency(fl.Field().String())
}

// validateSymbol accepts any casing; services normalize before use.
func validateSymbol(fl validator.FieldLevel) bool {
	_, ok := models.NormalizeSymbol(fl.Field().String())
	return ok
}

func validateTradeSide(fl validator.FieldLevel) bool {
	switch models.TradeSide(strings.ToUpper(fl.Field().String())) {
	case models.TradeSideBuy, models.TradeSideSell:
		return true
	}
	return false
}

func validateInstrumentKind(fl validator.FieldLevel) bool {
	return models.InstrumentKind(fl.Field().String()).IsValid()
}
