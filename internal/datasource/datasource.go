package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/nsetools/bhavadjust/internal/types"
)

// DataSource reads normalized daily OHLC bars for the adjustment pipeline.
type DataSource interface {
	// Initialize points the data source at the given parquet data path
	Initialize(path string) error
	// Count returns the number of bars within the optional date range
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// ReadAll reads all bars within the optional date range in trade-date
	// order and yields them to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.EquityBar, error) bool)
	// GetRange returns the bars for one symbol between start and end inclusive
	GetRange(symbol string, start time.Time, end time.Time) ([]types.EquityBar, error)
	// ReadLastBar returns the most recent bar for a symbol
	ReadLastBar(symbol string) (types.EquityBar, error)
	// AllSymbols returns every distinct symbol in the data
	AllSymbols() ([]string, error)
	// Close releases the underlying resources
	Close() error
}
