package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

type SourceTestSuite struct {
	suite.Suite
}

func TestSourceSuite(t *testing.T) {
	suite.Run(t, new(SourceTestSuite))
}

const actionsCSV = `SYMBOL,EX_DATE,ACTION_TYPE,OLD_SHARES,NEW_SHARES,BONUS_NEW,BONUS_EXISTING,DIVIDEND_AMOUNT,REF_CLOSE,ADJUSTMENT_FACTOR
RELIANCE,2024-01-15,SPLIT,1,5,,,,,
TATAMOTORS,2024-02-25,BONUS,,,1,2,,,
ITC,2024-03-01,DIVIDEND,,,,,2.0,100.0,
HDFCBANK,2024-04-10,DEMERGER,,,,,,,1.25
SBIN,2024-05-01,BUYBACK,,,,,,,
`

func (suite *SourceTestSuite) TestReadActions() {
	actions, err := ReadActions(strings.NewReader(actionsCSV))
	suite.Require().NoError(err)
	suite.Require().Len(actions, 5)

	split := actions[0]
	suite.Equal("RELIANCE", split.Symbol)
	suite.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), split.ExDate)
	suite.Equal(types.ActionTypeSplit, split.Type)
	suite.Equal(types.SplitRatio{Old: 1, New: 5}, split.SplitRatio.Unwrap())

	bonus := actions[1]
	suite.Equal(types.ActionTypeBonus, bonus.Type)
	suite.Equal(types.BonusRatio{New: 1, Existing: 2}, bonus.BonusRatio.Unwrap())

	dividend := actions[2]
	suite.Equal(types.ActionTypeDividend, dividend.Type)
	suite.Equal(2.0, dividend.DividendAmount.Unwrap())
	suite.Equal(100.0, dividend.ReferenceClose.Unwrap())

	demerger := actions[3]
	suite.Equal(types.ActionTypeDemerger, demerger.Type)
	suite.Equal(1.25, demerger.AdjustmentFactor.Unwrap())

	buyback := actions[4]
	suite.Equal(types.ActionTypeBuyback, buyback.Type)
	suite.True(buyback.SplitRatio.IsNone())
	suite.True(buyback.AdjustmentFactor.IsNone())
}

func (suite *SourceTestSuite) TestReadActionsInvalidDate() {
	csv := "SYMBOL,EX_DATE,ACTION_TYPE\nRELIANCE,15-01-2024,SPLIT\n"

	_, err := ReadActions(strings.NewReader(csv))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSourceParseFailed))
}

func (suite *SourceTestSuite) TestReadActionsUnknownType() {
	csv := "SYMBOL,EX_DATE,ACTION_TYPE\nRELIANCE,2024-01-15,SPINOFF\n"

	_, err := ReadActions(strings.NewReader(csv))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSourceParseFailed))
}

func (suite *SourceTestSuite) TestReadActionsBadShares() {
	csv := "SYMBOL,EX_DATE,ACTION_TYPE,OLD_SHARES,NEW_SHARES\nRELIANCE,2024-01-15,SPLIT,one,5\n"

	_, err := ReadActions(strings.NewReader(csv))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSourceParseFailed))
}

const bhavCSV = `SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN
RELIANCE,EQ,2480.00,2520.00,2460.00,2500.00,2499.00,2470.00,1000000,2500000000.00,10-JAN-2024,50000,INE002A01018
RELIANCE,GB,100.00,101.00,99.00,100.50,100.50,100.00,500,50250.00,10-JAN-2024,10,INE002A08EX8
TCS,EQ,3500.00,3550.00,3480.00,3520.00,3521.00,3490.00,500000,1760000000.00,10-JAN-2024,30000,INE467B01029
`

func (suite *SourceTestSuite) TestReadBhav() {
	bars, err := ReadBhav(strings.NewReader(bhavCSV), nil)
	suite.Require().NoError(err)

	// the GB series row is skipped by the default filter
	suite.Require().Len(bars, 2)

	reliance := bars[0]
	suite.Equal("RELIANCE", reliance.Symbol)
	suite.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), reliance.TradeDate)
	suite.Equal(2480.0, reliance.Open.Unwrap())
	suite.Equal(2520.0, reliance.High.Unwrap())
	suite.Equal(2460.0, reliance.Low.Unwrap())
	suite.Equal(2500.0, reliance.Close.Unwrap())
	suite.Equal(2470.0, reliance.PrevClose.Unwrap())
	suite.True(reliance.SettlementPrice.IsNone())
	suite.Equal(1000000.0, reliance.Volume)
}

func (suite *SourceTestSuite) TestReadBhavCustomSeries() {
	bars, err := ReadBhav(strings.NewReader(bhavCSV), []string{"GB"})
	suite.Require().NoError(err)
	suite.Require().Len(bars, 1)
	suite.Equal(100.5, bars[0].Close.Unwrap())
}

func (suite *SourceTestSuite) TestReadBhavBadDate() {
	csv := "SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN\n" +
		"RELIANCE,EQ,1,1,1,1,1,1,1,1,2024/01/10,1,X\n"

	_, err := ReadBhav(strings.NewReader(csv), nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSourceParseFailed))
}
