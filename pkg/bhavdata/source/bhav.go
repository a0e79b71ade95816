package source

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"

	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

// DefaultSeries are the bhavcopy series kept when no filter is given: the
// rolling-settlement equity series.
var DefaultSeries = []string{"EQ", "BE"}

// bhavRecord is the raw shape of one row of an NSE equity bhavcopy file.
type bhavRecord struct {
	Symbol    string  `csv:"SYMBOL"`
	Series    string  `csv:"SERIES"`
	Open      float64 `csv:"OPEN"`
	High      float64 `csv:"HIGH"`
	Low       float64 `csv:"LOW"`
	Close     float64 `csv:"CLOSE"`
	Last      float64 `csv:"LAST"`
	PrevClose float64 `csv:"PREVCLOSE"`
	TotTrdQty float64 `csv:"TOTTRDQTY"`
	TotTrdVal float64 `csv:"TOTTRDVAL"`
	Timestamp string  `csv:"TIMESTAMP"`
	TotTrades int64   `csv:"TOTALTRADES"`
	Isin      string  `csv:"ISIN"`
}

// ReadBhav reads daily bars from an NSE bhavcopy CSV. Rows whose SERIES is
// not in the given filter are skipped, not errors; a nil filter means
// DefaultSeries.
func ReadBhav(reader io.Reader, series []string) ([]types.EquityBar, error) {
	if series == nil {
		series = DefaultSeries
	}

	keep := make(map[string]bool, len(series))
	for _, s := range series {
		keep[strings.TrimSpace(s)] = true
	}

	var records []bhavRecord

	if err := gocsv.Unmarshal(reader, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceReadFailed, "failed to read bhavcopy csv", err)
	}

	bars := make([]types.EquityBar, 0, len(records))

	for i, record := range records {
		if !keep[strings.TrimSpace(record.Series)] {
			continue
		}

		tradeDate, err := parseBhavDate(record.Timestamp)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeSourceParseFailed, err,
				"bhavcopy record %d (%s)", i+1, record.Symbol)
		}

		bars = append(bars, types.EquityBar{
			Symbol:    record.Symbol,
			TradeDate: tradeDate,
			Open:      optional.Some(record.Open),
			High:      optional.Some(record.High),
			Low:       optional.Some(record.Low),
			Close:     optional.Some(record.Close),
			PrevClose: optional.Some(record.PrevClose),
			Volume:    record.TotTrdQty,
		})
	}

	return bars, nil
}

// ReadBhavFile reads daily bars from a bhavcopy CSV file.
func ReadBhavFile(path string, series []string) ([]types.EquityBar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSourceReadFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	return ReadBhav(file, series)
}

// parseBhavDate parses the bhavcopy TIMESTAMP column, which uses an
// upper-cased month abbreviation like 10-JAN-2024.
func parseBhavDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) >= 7 {
		month := value[3:6]
		value = value[:3] + strings.ToUpper(month[:1]) + strings.ToLower(month[1:]) + value[6:]
	}

	tradeDate, err := time.Parse("02-Jan-2006", value)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid trade date %q", value)
	}

	return tradeDate, nil
}
