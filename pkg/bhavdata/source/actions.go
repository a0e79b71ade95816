// Package source reads already-classified corporate-action records and daily
// bhavcopy OHLC rows from CSV into engine types. It validates shape only; the
// upstream scraper is responsible for classifying disclosure text into action
// types and parsing out ratios and amounts.
package source

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"

	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

// actionRecord is the raw CSV shape of one classified corporate action.
// Optional columns are read as strings so an empty cell maps to None.
type actionRecord struct {
	Symbol           string `csv:"SYMBOL"`
	ExDate           string `csv:"EX_DATE"`
	ActionType       string `csv:"ACTION_TYPE"`
	OldShares        string `csv:"OLD_SHARES"`
	NewShares        string `csv:"NEW_SHARES"`
	BonusNew         string `csv:"BONUS_NEW"`
	BonusExisting    string `csv:"BONUS_EXISTING"`
	DividendAmount   string `csv:"DIVIDEND_AMOUNT"`
	ReferenceClose   string `csv:"REF_CLOSE"`
	AdjustmentFactor string `csv:"ADJUSTMENT_FACTOR"`
}

// ReadActions reads classified corporate-action records from CSV.
func ReadActions(reader io.Reader) ([]types.CorporateAction, error) {
	var records []actionRecord

	if err := gocsv.Unmarshal(reader, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceReadFailed, "failed to read actions csv", err)
	}

	actions := make([]types.CorporateAction, 0, len(records))

	for i, record := range records {
		action, err := record.toAction()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeSourceParseFailed, err,
				"actions csv record %d (%s)", i+1, record.Symbol)
		}

		actions = append(actions, action)
	}

	return actions, nil
}

// ReadActionsFile reads classified corporate-action records from a CSV file.
func ReadActionsFile(path string) ([]types.CorporateAction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSourceReadFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	return ReadActions(file)
}

func (r actionRecord) toAction() (types.CorporateAction, error) {
	exDate, err := time.Parse("2006-01-02", r.ExDate)
	if err != nil {
		return types.CorporateAction{}, errors.Wrapf(errors.ErrCodeInvalidDate, err,
			"invalid ex-date %q", r.ExDate)
	}

	actionType := types.ActionType(r.ActionType)
	if !actionType.IsValid() {
		return types.CorporateAction{}, errors.Newf(errors.ErrCodeInvalidActionType,
			"unknown action type %q", r.ActionType)
	}

	action := types.CorporateAction{
		Symbol: r.Symbol,
		ExDate: exDate,
		Type:   actionType,
	}

	if r.OldShares != "" || r.NewShares != "" {
		oldShares, err := parseShares(r.OldShares, "OLD_SHARES")
		if err != nil {
			return types.CorporateAction{}, err
		}

		newShares, err := parseShares(r.NewShares, "NEW_SHARES")
		if err != nil {
			return types.CorporateAction{}, err
		}

		action.SplitRatio = optional.Some(types.SplitRatio{Old: oldShares, New: newShares})
	}

	if r.BonusNew != "" || r.BonusExisting != "" {
		newShares, err := parseShares(r.BonusNew, "BONUS_NEW")
		if err != nil {
			return types.CorporateAction{}, err
		}

		existingShares, err := parseShares(r.BonusExisting, "BONUS_EXISTING")
		if err != nil {
			return types.CorporateAction{}, err
		}

		action.BonusRatio = optional.Some(types.BonusRatio{New: newShares, Existing: existingShares})
	}

	if r.DividendAmount != "" {
		amount, err := parsePrice(r.DividendAmount, "DIVIDEND_AMOUNT")
		if err != nil {
			return types.CorporateAction{}, err
		}

		action.DividendAmount = optional.Some(amount)
	}

	if r.ReferenceClose != "" {
		refClose, err := parsePrice(r.ReferenceClose, "REF_CLOSE")
		if err != nil {
			return types.CorporateAction{}, err
		}

		action.ReferenceClose = optional.Some(refClose)
	}

	if r.AdjustmentFactor != "" {
		factor, err := parsePrice(r.AdjustmentFactor, "ADJUSTMENT_FACTOR")
		if err != nil {
			return types.CorporateAction{}, err
		}

		action.AdjustmentFactor = optional.Some(factor)
	}

	return action, nil
}

func parseShares(value, column string) (int64, error) {
	shares, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeSourceParseFailed, err, "invalid %s %q", column, value)
	}

	return shares, nil
}

func parsePrice(value, column string) (float64, error) {
	price, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeSourceParseFailed, err, "invalid %s %q", column, value)
	}

	return price, nil
}
