package models

import (
	"regexp"
	"strings"
)

// SymbolPattern matches a normalized instrument symbol such as TCS, M&M or SBI-BLUECHIP.
var SymbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9&.\-]{0,19}$`)

// NormalizeSymbol trims and upper-cases s and reports whether the result is well formed.
func NormalizeSymbol(s string) (string, bool) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	return sym, SymbolPattern.MatchString(sym)
}

// IsValid reports whether k is a known instrument kind.
func (k InstrumentKind) IsValid() bool {
	switch k {
	case InstrumentKindStock, InstrumentKindETF, InstrumentKindMutualFund:
		return true
	}
	return false
}
