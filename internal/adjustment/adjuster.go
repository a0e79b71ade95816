package adjustment

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

// RejectedBar pairs an input bar that failed validation with the reason it
// was rejected.
type RejectedBar struct {
	Bar types.EquityBar
	Err error
}

// AdjustBars applies a compiled adjustment table to raw bars and returns new,
// annotated bars; the inputs are never mutated.
//
// For each bar the nearest future adjustment for its symbol (smallest ex-date
// strictly after the trade date) supplies the divide-by factor and the
// adjustment date. The cumulative factor of that single row already encodes
// every later event, so exactly one row is applied per bar. Bars with no
// future event, and symbols with no adjustments at all, pass through
// numerically unchanged with factor 1.0.
//
// columns selects which price columns are adjusted; an empty slice means all
// of them. Absent columns on a bar are skipped. Bars missing their symbol or
// trade date are rejected individually with ErrCodeMissingKey; the error is
// non-nil only when a non-empty input produced no valid bar at all.
func AdjustBars(bars []types.EquityBar, adjustments []types.CumulativeAdjustment, columns []types.PriceColumn) ([]types.EquityBar, []RejectedBar, error) {
	if len(columns) == 0 {
		columns = types.AllPriceColumns()
	}

	bySymbol := groupAdjustments(adjustments)

	result := make([]types.EquityBar, 0, len(bars))

	var rejected []RejectedBar

	for _, bar := range bars {
		if bar.Symbol == "" {
			rejected = append(rejected, RejectedBar{
				Bar: bar,
				Err: errors.New(errors.ErrCodeMissingKey, "bar has no symbol"),
			})

			continue
		}

		if bar.TradeDate.IsZero() {
			rejected = append(rejected, RejectedBar{
				Bar: bar,
				Err: errors.Newf(errors.ErrCodeMissingKey, "bar for %s has no trade date", bar.Symbol),
			})

			continue
		}

		result = append(result, adjustBar(bar, bySymbol[bar.Symbol], columns))
	}

	if len(bars) > 0 && len(result) == 0 {
		return nil, rejected, errors.Newf(errors.ErrCodeAllBarsInvalid,
			"all %d bars were rejected", len(bars))
	}

	return result, rejected, nil
}

// groupAdjustments partitions the table by symbol and orders each group by
// ex-date descending. The sort is stable so rows sharing an ex-date keep the
// compiler's order, where the last row of a same-date run carries the full
// product of that date's factors.
func groupAdjustments(adjustments []types.CumulativeAdjustment) map[string][]types.CumulativeAdjustment {
	bySymbol := make(map[string][]types.CumulativeAdjustment)

	for _, adj := range adjustments {
		bySymbol[adj.Symbol] = append(bySymbol[adj.Symbol], adj)
	}

	for symbol := range bySymbol {
		group := bySymbol[symbol]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ExDate.After(group[j].ExDate)
		})
	}

	return bySymbol
}

// adjustBar returns a copy of bar with the nearest future adjustment applied
// to the requested columns.
func adjustBar(bar types.EquityBar, group []types.CumulativeAdjustment, columns []types.PriceColumn) types.EquityBar {
	adjusted := bar
	adjusted.AdjustmentFactor = 1.0
	adjusted.AdjustmentDate = optional.None[time.Time]()

	// group is sorted by ex-date descending, so rows with ExDate > TradeDate
	// form a prefix; the last row of that prefix is the nearest future event.
	futures := sort.Search(len(group), func(i int) bool {
		return !group[i].ExDate.After(bar.TradeDate)
	})

	if futures == 0 {
		return adjusted
	}

	nearest := group[futures-1]
	adjusted.AdjustmentFactor = nearest.CumulativeFactor
	adjusted.AdjustmentDate = optional.Some(nearest.ExDate)

	if nearest.CumulativeFactor == 1.0 {
		return adjusted
	}

	for _, col := range columns {
		if value := bar.Price(col); value.IsSome() {
			adjusted.SetPrice(col, value.Unwrap()/nearest.CumulativeFactor)
		}
	}

	return adjusted
}
