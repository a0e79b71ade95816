package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type ActionType string

const (
	// ActionTypeSplit is a change in the face value of a share
	ActionTypeSplit ActionType = "SPLIT"
	// ActionTypeBonus is an issue of additional shares to existing holders
	ActionTypeBonus ActionType = "BONUS"
	// ActionTypeDividend is a cash payout per share
	ActionTypeDividend ActionType = "DIVIDEND"
	// ActionTypeRights is an offer of new shares to existing holders at a set price
	ActionTypeRights ActionType = "RIGHTS"
	// ActionTypeInterestPayment is an interest payout on a debt instrument
	ActionTypeInterestPayment ActionType = "INTEREST_PAYMENT"
	// ActionTypeDemerger is a spin-off of part of the company
	ActionTypeDemerger ActionType = "DEMERGER"
	// ActionTypeMerger is an absorption into another company
	ActionTypeMerger ActionType = "MERGER"
	// ActionTypeBuyback is a repurchase of shares by the company
	ActionTypeBuyback ActionType = "BUYBACK"
	// ActionTypeOther is any disclosed action that fits none of the above
	ActionTypeOther ActionType = "OTHER"
)

// IsValid reports whether t is one of the known action types.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionTypeSplit, ActionTypeBonus, ActionTypeDividend, ActionTypeRights,
		ActionTypeInterestPayment, ActionTypeDemerger, ActionTypeMerger,
		ActionTypeBuyback, ActionTypeOther:
		return true
	}

	return false
}

// SplitRatio describes how many new shares replace a given number of old shares.
// A 1-for-5 split is {Old: 1, New: 5}.
type SplitRatio struct {
	Old int64
	New int64
}

// BonusRatio describes how many additional shares are granted per existing
// shares held. A 1-for-2 bonus is {New: 1, Existing: 2}.
type BonusRatio struct {
	New      int64
	Existing int64
}

// CorporateAction is one disclosed action for one symbol, already classified
// by type with its ratio or amount parsed out of the disclosure text.
type CorporateAction struct {
	// Symbol is the instrument ticker the action applies to
	Symbol string
	// ExDate is the first trading date on which the action is reflected in the
	// market price; no back-adjustment applies on or after it
	ExDate time.Time
	// Type is the classified action type
	Type ActionType
	// SplitRatio is present only for SPLIT actions
	SplitRatio optional.Option[SplitRatio]
	// BonusRatio is present only for BONUS actions
	BonusRatio optional.Option[BonusRatio]
	// DividendAmount is the cash payout per share, present only for DIVIDEND actions
	DividendAmount optional.Option[float64]
	// ReferenceClose is the close price the dividend factor is computed against,
	// normally the close of the last cum-dividend session
	ReferenceClose optional.Option[float64]
	// AdjustmentFactor is a pre-computed divide-by factor supplied by the
	// caller; when present it overrides the ratio/amount derivation
	AdjustmentFactor optional.Option[float64]
}
