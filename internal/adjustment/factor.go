// Package adjustment converts classified corporate-action events into
// cumulative back-adjustment factors and applies them to raw OHLC bars.
//
// All factors are kept in a single divide-by convention: a historical price
// dated before an event's ex-date is divided by the event's factor to land on
// the current price scale. Dividend factors, which the standard convention
// expresses as a multiplier in (0, 1], are normalized to this convention at
// calculation time so that split, bonus and dividend factors compose into one
// cumulative product with one operator.
package adjustment

import (
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

// SplitFactor returns the divide-by factor for a split of old shares into new
// shares. A 1-for-5 split (old=1, new=5) yields 5.0: dividing pre-split prices
// by 5 maps them onto the post-split scale.
func SplitFactor(oldShares, newShares int64) (float64, error) {
	if oldShares <= 0 || newShares <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidRatio,
			"split ratio must have positive share counts, got old=%d new=%d", oldShares, newShares)
	}

	factor, _ := decimal.NewFromInt(newShares).Div(decimal.NewFromInt(oldShares)).Float64()

	return factor, nil
}

// BonusFactor returns the divide-by factor for a bonus issue of new shares
// per existing shares held. A 1-for-2 bonus (new=1, existing=2) yields 1.5.
func BonusFactor(newShares, existingShares int64) (float64, error) {
	if newShares <= 0 || existingShares <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidRatio,
			"bonus ratio must have positive share counts, got new=%d existing=%d", newShares, existingShares)
	}

	factor, _ := decimal.NewFromInt(existingShares + newShares).
		Div(decimal.NewFromInt(existingShares)).Float64()

	return factor, nil
}

// DividendFactor returns the multiplicative dividend factor
// 1 - amount/referenceClose, always in (0, 1]. A 2 rupee dividend on a 100
// rupee close yields 0.98. Note this is the conventional multiplier, not the
// divide-by form; EventFactor normalizes it before compilation.
func DividendFactor(amount, referenceClose float64) (float64, error) {
	if amount < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidDividend,
			"dividend amount must be non-negative, got %v", amount)
	}

	if referenceClose <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidDividend,
			"reference close must be positive, got %v", referenceClose)
	}

	if amount >= referenceClose {
		return 0, errors.Newf(errors.ErrCodeInvalidDividend,
			"dividend amount %v must be below the reference close %v", amount, referenceClose)
	}

	factor, _ := decimal.NewFromInt(1).
		Sub(decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(referenceClose))).
		Float64()

	return factor, nil
}

// EventFactor resolves a corporate action to its effective divide-by factor.
//
// An explicit AdjustmentFactor on the action always wins. Otherwise the factor
// is derived from the ratio or amount fields for SPLIT, BONUS and DIVIDEND
// actions; every other action type resolves to the identity factor 1.0.
// Dividend factors are inverted here so that the result is in the divide-by
// convention like split and bonus factors.
func EventFactor(action types.CorporateAction) (float64, error) {
	if action.AdjustmentFactor.IsSome() {
		factor := action.AdjustmentFactor.Unwrap()
		if factor <= 0 {
			return 0, errors.Newf(errors.ErrCodeInvalidRatio,
				"explicit adjustment factor must be positive, got %v", factor)
		}

		return factor, nil
	}

	switch action.Type {
	case types.ActionTypeSplit:
		ratio, err := requireRatio(action.SplitRatio, "split")
		if err != nil {
			return 0, err
		}

		return SplitFactor(ratio.Old, ratio.New)
	case types.ActionTypeBonus:
		ratio, err := requireBonus(action.BonusRatio)
		if err != nil {
			return 0, err
		}

		return BonusFactor(ratio.New, ratio.Existing)
	case types.ActionTypeDividend:
		if action.DividendAmount.IsNone() {
			return 0, errors.New(errors.ErrCodeMissingDividend,
				"dividend action has no dividend amount")
		}

		if action.ReferenceClose.IsNone() {
			return 0, errors.New(errors.ErrCodeMissingDividend,
				"dividend action has no reference close")
		}

		factor, err := DividendFactor(action.DividendAmount.Unwrap(), action.ReferenceClose.Unwrap())
		if err != nil {
			return 0, err
		}

		// invert into the divide-by convention
		inverted, _ := decimal.NewFromInt(1).Div(decimal.NewFromFloat(factor)).Float64()

		return inverted, nil
	default:
		return 1.0, nil
	}
}

func requireRatio(ratio optional.Option[types.SplitRatio], kind string) (types.SplitRatio, error) {
	if ratio.IsNone() {
		return types.SplitRatio{}, errors.Newf(errors.ErrCodeMissingRatio,
			"%s action has no ratio", kind)
	}

	return ratio.Unwrap(), nil
}

func requireBonus(ratio optional.Option[types.BonusRatio]) (types.BonusRatio, error) {
	if ratio.IsNone() {
		return types.BonusRatio{}, errors.New(errors.ErrCodeMissingRatio,
			"bonus action has no ratio")
	}

	return ratio.Unwrap(), nil
}
