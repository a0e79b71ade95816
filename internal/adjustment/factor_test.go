package adjustment

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

type FactorTestSuite struct {
	suite.Suite
}

func TestFactorSuite(t *testing.T) {
	suite.Run(t, new(FactorTestSuite))
}

func (suite *FactorTestSuite) TestSplitFactor() {
	tests := []struct {
		name          string
		oldShares     int64
		newShares     int64
		expected      float64
		expectedError bool
	}{
		{
			name:      "1-for-5 split",
			oldShares: 1,
			newShares: 5,
			expected:  5.0,
		},
		{
			name:      "2-for-10 split",
			oldShares: 2,
			newShares: 10,
			expected:  5.0,
		},
		{
			name:      "reverse split",
			oldShares: 5,
			newShares: 1,
			expected:  0.2,
		},
		{
			name:          "zero old shares",
			oldShares:     0,
			newShares:     5,
			expectedError: true,
		},
		{
			name:          "zero new shares",
			oldShares:     1,
			newShares:     0,
			expectedError: true,
		},
		{
			name:          "negative old shares",
			oldShares:     -1,
			newShares:     5,
			expectedError: true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			factor, err := SplitFactor(tc.oldShares, tc.newShares)
			if tc.expectedError {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidRatio))

				return
			}

			suite.NoError(err)
			suite.Equal(tc.expected, factor)
		})
	}
}

func (suite *FactorTestSuite) TestBonusFactor() {
	tests := []struct {
		name           string
		newShares      int64
		existingShares int64
		expected       float64
		expectedError  bool
	}{
		{
			name:           "1-for-2 bonus",
			newShares:      1,
			existingShares: 2,
			expected:       1.5,
		},
		{
			name:           "1-for-1 bonus",
			newShares:      1,
			existingShares: 1,
			expected:       2.0,
		},
		{
			name:           "zero existing shares",
			newShares:      1,
			existingShares: 0,
			expectedError:  true,
		},
		{
			name:           "zero new shares",
			newShares:      0,
			existingShares: 2,
			expectedError:  true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			factor, err := BonusFactor(tc.newShares, tc.existingShares)
			if tc.expectedError {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidRatio))

				return
			}

			suite.NoError(err)
			suite.Equal(tc.expected, factor)
		})
	}
}

func (suite *FactorTestSuite) TestDividendFactor() {
	tests := []struct {
		name           string
		amount         float64
		referenceClose float64
		expected       float64
		expectedError  bool
	}{
		{
			name:           "2 rupee dividend on 100 close",
			amount:         2.0,
			referenceClose: 100.0,
			expected:       0.98,
		},
		{
			name:           "zero dividend is identity",
			amount:         0.0,
			referenceClose: 100.0,
			expected:       1.0,
		},
		{
			name:           "negative dividend",
			amount:         -1.0,
			referenceClose: 100.0,
			expectedError:  true,
		},
		{
			name:           "zero reference close",
			amount:         2.0,
			referenceClose: 0.0,
			expectedError:  true,
		},
		{
			name:           "dividend equal to reference close",
			amount:         100.0,
			referenceClose: 100.0,
			expectedError:  true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			factor, err := DividendFactor(tc.amount, tc.referenceClose)
			if tc.expectedError {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidDividend))

				return
			}

			suite.NoError(err)
			suite.Equal(tc.expected, factor)
		})
	}
}

func (suite *FactorTestSuite) TestEventFactorSplit() {
	action := types.CorporateAction{
		Symbol:     "RELIANCE",
		ExDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Type:       types.ActionTypeSplit,
		SplitRatio: optional.Some(types.SplitRatio{Old: 1, New: 5}),
	}

	factor, err := EventFactor(action)
	suite.NoError(err)
	suite.Equal(5.0, factor)
}

func (suite *FactorTestSuite) TestEventFactorSplitWithoutRatio() {
	action := types.CorporateAction{
		Symbol: "RELIANCE",
		ExDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Type:   types.ActionTypeSplit,
	}

	_, err := EventFactor(action)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingRatio))
}

func (suite *FactorTestSuite) TestEventFactorDividendIsInverted() {
	action := types.CorporateAction{
		Symbol:         "ITC",
		ExDate:         time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Type:           types.ActionTypeDividend,
		DividendAmount: optional.Some(2.0),
		ReferenceClose: optional.Some(100.0),
	}

	factor, err := EventFactor(action)
	suite.NoError(err)
	// divide-by form of the 0.98 multiplier
	suite.InDelta(1.0/0.98, factor, 1e-12)
}

func (suite *FactorTestSuite) TestEventFactorDividendWithoutReferenceClose() {
	action := types.CorporateAction{
		Symbol:         "ITC",
		ExDate:         time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Type:           types.ActionTypeDividend,
		DividendAmount: optional.Some(2.0),
	}

	_, err := EventFactor(action)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingDividend))
}

func (suite *FactorTestSuite) TestEventFactorExplicitOverride() {
	action := types.CorporateAction{
		Symbol:           "HDFCBANK",
		ExDate:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Type:             types.ActionTypeDemerger,
		AdjustmentFactor: optional.Some(1.25),
	}

	factor, err := EventFactor(action)
	suite.NoError(err)
	suite.Equal(1.25, factor)
}

func (suite *FactorTestSuite) TestEventFactorExplicitNonPositive() {
	action := types.CorporateAction{
		Symbol:           "HDFCBANK",
		ExDate:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Type:             types.ActionTypeSplit,
		AdjustmentFactor: optional.Some(0.0),
	}

	_, err := EventFactor(action)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidRatio))
}

func (suite *FactorTestSuite) TestEventFactorNonAdjustingTypes() {
	for _, actionType := range []types.ActionType{
		types.ActionTypeRights,
		types.ActionTypeInterestPayment,
		types.ActionTypeDemerger,
		types.ActionTypeMerger,
		types.ActionTypeBuyback,
		types.ActionTypeOther,
	} {
		action := types.CorporateAction{
			Symbol: "SBIN",
			ExDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			Type:   actionType,
		}

		factor, err := EventFactor(action)
		suite.NoError(err)
		suite.Equal(1.0, factor, "expected identity factor for %s", actionType)
	}
}
