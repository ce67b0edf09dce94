package models

import "github.com/shopspring/decimal"

// InstrumentKind groups instruments the way the catalog endpoints list them.
type InstrumentKind string

const (
	InstrumentKindStock      InstrumentKind = "stock"
	InstrumentKindETF        InstrumentKind = "etf"
	InstrumentKindMutualFund InstrumentKind = "mutual_fund"
)

// Instrument is mock market reference data: the last traded price and daily change.
type Instrument struct {
	Base
	Symbol        string          `gorm:"size:20;uniqueIndex;not null" json:"symbol"`
	Name          string          `json:"name"`
	Kind          InstrumentKind  `gorm:"size:16;not null;index" json:"kind"`
	Price         decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"price"`
	ChangePercent decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0" json:"change_percent"`
}
