package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// PriceColumn identifies one price-valued column of an EquityBar.
type PriceColumn string

const (
	PriceColumnOpen            PriceColumn = "open"
	PriceColumnHigh            PriceColumn = "high"
	PriceColumnLow             PriceColumn = "low"
	PriceColumnClose           PriceColumn = "close"
	PriceColumnPrevClose       PriceColumn = "prev_close"
	PriceColumnSettlementPrice PriceColumn = "settlement_price"
)

// AllPriceColumns returns every price-valued column in a stable order.
func AllPriceColumns() []PriceColumn {
	return []PriceColumn{
		PriceColumnOpen,
		PriceColumnHigh,
		PriceColumnLow,
		PriceColumnClose,
		PriceColumnPrevClose,
		PriceColumnSettlementPrice,
	}
}

// EquityBar is one trading-day record for one symbol. Any subset of the price
// columns may be present; volume is carried through unadjusted.
type EquityBar struct {
	Symbol    string
	TradeDate time.Time

	Open            optional.Option[float64]
	High            optional.Option[float64]
	Low             optional.Option[float64]
	Close           optional.Option[float64]
	PrevClose       optional.Option[float64]
	SettlementPrice optional.Option[float64]

	Volume float64

	// AdjustmentFactor is the divide-by factor that was applied to the price
	// columns; 1.0 on adjusted bars with no pending future action
	AdjustmentFactor float64
	// AdjustmentDate is the ex-date of the nearest future action the factor
	// came from; None when no future action exists
	AdjustmentDate optional.Option[time.Time]
}

// Price returns the value of the given column, or None when the column is
// absent on this bar.
func (b *EquityBar) Price(col PriceColumn) optional.Option[float64] {
	switch col {
	case PriceColumnOpen:
		return b.Open
	case PriceColumnHigh:
		return b.High
	case PriceColumnLow:
		return b.Low
	case PriceColumnClose:
		return b.Close
	case PriceColumnPrevClose:
		return b.PrevClose
	case PriceColumnSettlementPrice:
		return b.SettlementPrice
	}

	return optional.None[float64]()
}

// SetPrice sets the value of the given column. Unknown columns are ignored.
func (b *EquityBar) SetPrice(col PriceColumn, value float64) {
	switch col {
	case PriceColumnOpen:
		b.Open = optional.Some(value)
	case PriceColumnHigh:
		b.High = optional.Some(value)
	case PriceColumnLow:
		b.Low = optional.Some(value)
	case PriceColumnClose:
		b.Close = optional.Some(value)
	case PriceColumnPrevClose:
		b.PrevClose = optional.Some(value)
	case PriceColumnSettlementPrice:
		b.SettlementPrice = optional.Some(value)
	}
}
