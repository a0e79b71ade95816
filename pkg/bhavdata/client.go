// Package bhavdata orchestrates the back-adjustment pipeline: load classified
// corporate actions, compile the cumulative factor table, read raw daily bars,
// adjust them and persist the result.
package bhavdata

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/nsetools/bhavadjust/internal/adjustment"
	"github.com/nsetools/bhavadjust/internal/datasource"
	"github.com/nsetools/bhavadjust/internal/logger"
	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/bhavdata/source"
	"github.com/nsetools/bhavadjust/pkg/bhavdata/writer"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

// SourceType defines the format the raw bars are read from.
type SourceType string

const (
	SourceCSV     SourceType = "csv"
	SourceParquet SourceType = "parquet"
)

// WriterType defines the format the adjusted bars are written to.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the adjustment pipeline client.
type ClientConfig struct {
	SourceType  SourceType `yaml:"source" validate:"required,oneof=csv parquet"`
	WriterType  WriterType `yaml:"writer" validate:"required,oneof=duckdb"`
	ActionsPath string     `yaml:"actions_path" validate:"required"`
	BhavPath    string     `yaml:"bhav_path" validate:"required"`
	OutputPath  string     `yaml:"output_path" validate:"required"`
	// Series restricts which bhavcopy series are read; empty means the
	// default equity series
	Series []string `yaml:"series"`
	// Columns restricts which price columns are adjusted; empty means all
	Columns []types.PriceColumn `yaml:"columns"`
	// Workers bounds the per-symbol adjustment pool; 0 means GOMAXPROCS
	Workers int `yaml:"workers" validate:"min=0"`
}

// RunParams narrows one pipeline run to a subset of the data.
type RunParams struct {
	// Symbols restricts the run to the given symbols; empty means all
	Symbols []string
	// StartDate and EndDate bound the trade dates read from the bar source
	StartDate optional.Option[time.Time]
	EndDate   optional.Option[time.Time]
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	EventsCompiled int
	EventsRejected int
	BarsAdjusted   int
	BarsRejected   int
	OutputPath     string
}

// OnAdjustProgress is called as symbols complete adjustment.
type OnAdjustProgress = func(current float64, total float64, message string)

// Client runs the adjustment pipeline.
type Client struct {
	config     ClientConfig
	logger     *logger.Logger
	onProgress OnAdjustProgress
}

// NewClient creates a new pipeline client with the given configuration.
// onProgress may be nil.
func NewClient(config ClientConfig, log *logger.Logger, onProgress OnAdjustProgress) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		config:     config,
		logger:     log,
		onProgress: onProgress,
	}, nil
}

// Run executes the pipeline: read actions, compile adjustments, read bars,
// adjust per symbol and write the adjusted output. The context cancels the
// per-symbol adjustment loop between symbols.
func (c *Client) Run(ctx context.Context, params RunParams) (RunResult, error) {
	result := RunResult{OutputPath: c.config.OutputPath}

	actions, err := source.ReadActionsFile(c.config.ActionsPath)
	if err != nil {
		return result, err
	}

	actions = filterActions(actions, params.Symbols)

	adjustments, rejectedEvents, err := adjustment.CompileAdjustments(actions)
	if err != nil && !errors.HasCode(err, errors.ErrCodeAllEventsInvalid) {
		return result, err
	}

	for _, rejected := range rejectedEvents {
		c.logger.Warn("rejected corporate action",
			zap.String("symbol", rejected.Event.Symbol),
			zap.Error(rejected.Err))
	}

	result.EventsCompiled = len(adjustments)
	result.EventsRejected = len(rejectedEvents)

	bars, err := c.readBars(params)
	if err != nil {
		return result, err
	}

	c.logger.Info("loaded pipeline inputs",
		zap.Int("actions", len(actions)),
		zap.Int("adjustments", len(adjustments)),
		zap.Int("bars", len(bars)))

	adjusted, rejectedBars, err := c.adjustBySymbol(ctx, bars, adjustments)
	if err != nil {
		return result, err
	}

	for _, rejected := range rejectedBars {
		c.logger.Warn("rejected bar",
			zap.String("symbol", rejected.Bar.Symbol),
			zap.Error(rejected.Err))
	}

	result.BarsAdjusted = len(adjusted)
	result.BarsRejected = len(rejectedBars)

	if err := c.writeBars(adjusted); err != nil {
		return result, err
	}

	return result, nil
}

// readBars loads raw bars from the configured source.
func (c *Client) readBars(params RunParams) ([]types.EquityBar, error) {
	var bars []types.EquityBar

	switch c.config.SourceType {
	case SourceCSV:
		loaded, err := source.ReadBhavFile(c.config.BhavPath, c.config.Series)
		if err != nil {
			return nil, err
		}

		bars = loaded
	case SourceParquet:
		ds, err := datasource.NewDuckDBDataSource(":memory:", c.logger)
		if err != nil {
			return nil, err
		}
		defer ds.Close()

		if err := ds.Initialize(c.config.BhavPath); err != nil {
			return nil, err
		}

		for bar, err := range ds.ReadAll(params.StartDate, params.EndDate) {
			if err != nil {
				return nil, err
			}

			bars = append(bars, bar)
		}
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported source type: %s", c.config.SourceType)
	}

	return filterBars(bars, params), nil
}

// adjustBySymbol partitions the bars by symbol and adjusts each partition on
// a bounded worker pool. Partitions are independent, so the result is the
// same regardless of worker count; output is ordered by symbol with input
// order preserved within a symbol.
func (c *Client) adjustBySymbol(ctx context.Context, bars []types.EquityBar, adjustments []types.CumulativeAdjustment) ([]types.EquityBar, []adjustment.RejectedBar, error) {
	partitions := make(map[string][]types.EquityBar)

	var rejected []adjustment.RejectedBar

	for _, bar := range bars {
		if bar.Symbol == "" || bar.TradeDate.IsZero() {
			rejected = append(rejected, adjustment.RejectedBar{
				Bar: bar,
				Err: errors.New(errors.ErrCodeMissingKey, "bar has no symbol or trade date"),
			})

			continue
		}

		partitions[bar.Symbol] = append(partitions[bar.Symbol], bar)
	}

	symbols := make([]string, 0, len(partitions))
	for symbol := range partitions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	workers := c.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if workers > len(symbols) {
		workers = len(symbols)
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		runErr    error
		completed float64
		adjusted  = make(map[string][]types.EquityBar, len(symbols))
	)

	jobs := make(chan string)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for symbol := range jobs {
				out, rej, err := adjustment.AdjustBars(partitions[symbol], adjustments, c.config.Columns)

				mu.Lock()
				if err != nil && runErr == nil {
					runErr = err
				}

				adjusted[symbol] = out
				rejected = append(rejected, rej...)
				completed++

				if c.onProgress != nil {
					c.onProgress(completed, float64(len(symbols)), symbol)
				}
				mu.Unlock()
			}
		}()
	}

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			break
		}

		jobs <- symbol
	}

	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, rejected, err
	}

	if runErr != nil && !errors.HasCode(runErr, errors.ErrCodeAllBarsInvalid) {
		return nil, rejected, runErr
	}

	result := make([]types.EquityBar, 0, len(bars))
	for _, symbol := range symbols {
		result = append(result, adjusted[symbol]...)
	}

	if len(bars) > 0 && len(result) == 0 {
		return nil, rejected, errors.Newf(errors.ErrCodeAllBarsInvalid, "all %d bars were rejected", len(bars))
	}

	return result, rejected, nil
}

// writeBars persists the adjusted bars through the configured writer.
func (c *Client) writeBars(bars []types.EquityBar) error {
	switch c.config.WriterType {
	case WriterDuckDB:
		if _, err := os.Stat(c.config.OutputPath); os.IsNotExist(err) {
			if err := os.MkdirAll(c.config.OutputPath, 0755); err != nil {
				return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create %s", c.config.OutputPath)
			}
		}

		barWriter := writer.NewDuckDBWriter(c.config.OutputPath)
		if err := barWriter.Initialize(); err != nil {
			return err
		}
		defer barWriter.Close()

		for _, bar := range bars {
			if err := barWriter.Write(bar); err != nil {
				return err
			}
		}

		outputPath, err := barWriter.Finalize()
		if err != nil {
			return err
		}

		c.logger.Info("wrote adjusted bars",
			zap.Int("bars", len(bars)),
			zap.String("path", outputPath))

		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}

func filterActions(actions []types.CorporateAction, symbols []string) []types.CorporateAction {
	if len(symbols) == 0 {
		return actions
	}

	keep := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		keep[symbol] = true
	}

	filtered := make([]types.CorporateAction, 0, len(actions))

	for _, action := range actions {
		if keep[action.Symbol] {
			filtered = append(filtered, action)
		}
	}

	return filtered
}

func filterBars(bars []types.EquityBar, params RunParams) []types.EquityBar {
	keep := make(map[string]bool, len(params.Symbols))
	for _, symbol := range params.Symbols {
		keep[symbol] = true
	}

	filtered := make([]types.EquityBar, 0, len(bars))

	for _, bar := range bars {
		if len(params.Symbols) > 0 && !keep[bar.Symbol] {
			continue
		}

		if params.StartDate.IsSome() && bar.TradeDate.Before(params.StartDate.Unwrap()) {
			continue
		}

		if params.EndDate.IsSome() && bar.TradeDate.After(params.EndDate.Unwrap()) {
			continue
		}

		filtered = append(filtered, bar)
	}

	return filtered
}
