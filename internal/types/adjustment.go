package types

import "time"

// CumulativeAdjustment is one compiled adjustment row per (symbol, ex-date)
// pair. Both factors are stored in the divide-by convention: a historical
// price dated strictly before ExDate is divided by CumulativeFactor to land
// on the current price scale.
type CumulativeAdjustment struct {
	Symbol string
	ExDate time.Time
	Type   ActionType
	// AdjustmentFactor is this event's own factor
	AdjustmentFactor float64
	// CumulativeFactor is the product of this event's factor with the factors
	// of every later event for the same symbol
	CumulativeFactor float64
}
