// Package money renders decimal amounts for display in an account currency.
package money

import (
	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Format renders amount with the currency's symbol, grouping and minor-unit
// precision. Unknown currencies fall back to a plain two-place string.
func Format(amount decimal.Decimal, currency string) string {
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := amount.Mul(factor).Round(0).IntPart()
	return gomoney.New(minor, cur.Code).Display()
}

// IsKnownCurrency reports whether currency is an ISO 4217 code go-money knows.
func IsKnownCurrency(currency string) bool {
	return gomoney.GetCurrency(currency) != nil
}
