package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/nsetools/bhavadjust/internal/logger"
	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

const barColumns = "trade_date, symbol, open, high, low, close, prev_close, settlement_price, volume"

// DuckDBDataSource reads daily bars from parquet files through a DuckDB view.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBDataSource creates a new DuckDB data source backed by the database
// at path; use ":memory:" for an ephemeral instance. This is distinct from
// Initialize(), which points the source at the parquet data to read.
func NewDuckDBDataSource(path string, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing bhav data source", zap.String("path", path))

	_, err := d.db.Exec(`DROP VIEW IF EXISTS bhav;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing view", err)
	}

	// Squirrel has no CREATE VIEW support; raw SQL with the path inlined,
	// matching how DuckDB's read_parquet takes its glob.
	query := fmt.Sprintf(`
		CREATE VIEW bhav AS
		SELECT * FROM read_parquet('%s');
	`, path)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to create view over %s", path)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query := "SELECT COUNT(*) FROM bhav"

	conditions, params := dateRangeConditions(start, end)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int

	err := d.db.QueryRow(query, params...).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource. Bars are yielded in trade-date order, with
// symbol order stable within a date.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.EquityBar, error) bool) {
	return func(yield func(types.EquityBar, error) bool) {
		d.logger.Debug("Reading all bars from DuckDB")

		query := "SELECT " + barColumns + " FROM bhav"

		conditions, params := dateRangeConditions(start, end)
		if len(conditions) > 0 {
			query += " WHERE " + strings.Join(conditions, " AND ")
		}

		query += " ORDER BY trade_date ASC, symbol ASC"

		rows, err := d.db.Query(query, params...)
		if err != nil {
			yield(types.EquityBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			bar, err := scanBar(rows)
			if err != nil {
				yield(types.EquityBar{}, err)

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.EquityBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating bars", err))
		}
	}
}

// GetRange implements DataSource.
func (d *DuckDBDataSource) GetRange(symbol string, start time.Time, end time.Time) ([]types.EquityBar, error) {
	query, args, err := d.sq.
		Select("trade_date", "symbol", "open", "high", "low", "close", "prev_close", "settlement_price", "volume").
		From("bhav").
		Where(squirrel.And{
			squirrel.Eq{"symbol": symbol},
			squirrel.GtOrEq{"trade_date": start},
			squirrel.LtOrEq{"trade_date": end},
		}).
		OrderBy("trade_date ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query bars for %s", symbol)
	}
	defer rows.Close()

	result := make([]types.EquityBar, 0, 256)

	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, err
		}

		result = append(result, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating bars", err)
	}

	return result, nil
}

// ReadLastBar implements DataSource.
func (d *DuckDBDataSource) ReadLastBar(symbol string) (types.EquityBar, error) {
	d.logger.Debug("Reading last bar for symbol", zap.String("symbol", symbol))

	query, args, err := d.sq.
		Select("trade_date", "symbol", "open", "high", "low", "close", "prev_close", "settlement_price", "volume").
		From("bhav").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("trade_date DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return types.EquityBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	row := d.db.QueryRow(query, args...)

	bar, err := scanBar(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.HasCode(err, errors.ErrCodeNoDataFound) {
			return types.EquityBar{}, errors.Newf(errors.ErrCodeNoDataFound, "no bars found for symbol: %s", symbol)
		}

		return types.EquityBar{}, err
	}

	return bar, nil
}

// AllSymbols implements DataSource.
func (d *DuckDBDataSource) AllSymbols() ([]string, error) {
	rows, err := d.db.Query("SELECT DISTINCT symbol FROM bhav ORDER BY symbol")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBar(row scanner) (types.EquityBar, error) {
	var (
		tradeDate                                             time.Time
		symbol                                                string
		open, high, low, close, prevClose, settlement, volume sql.NullFloat64
	)

	err := row.Scan(&tradeDate, &symbol, &open, &high, &low, &close, &prevClose, &settlement, &volume)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.EquityBar{}, errors.Wrap(errors.ErrCodeNoDataFound, "no bar found", err)
		}

		return types.EquityBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
	}

	return types.EquityBar{
		Symbol:          symbol,
		TradeDate:       tradeDate,
		Open:            nullableToOption(open),
		High:            nullableToOption(high),
		Low:             nullableToOption(low),
		Close:           nullableToOption(close),
		PrevClose:       nullableToOption(prevClose),
		SettlementPrice: nullableToOption(settlement),
		Volume:          volume.Float64,
	}, nil
}

func nullableToOption(value sql.NullFloat64) optional.Option[float64] {
	if !value.Valid {
		return optional.None[float64]()
	}

	return optional.Some(value.Float64)
}

func dateRangeConditions(start optional.Option[time.Time], end optional.Option[time.Time]) ([]string, []any) {
	var conditions []string

	var params []any

	paramCount := 0

	if start.IsSome() {
		paramCount++
		conditions = append(conditions, fmt.Sprintf("trade_date >= $%d", paramCount))
		params = append(params, start.Unwrap())
	}

	if end.IsSome() {
		paramCount++
		conditions = append(conditions, fmt.Sprintf("trade_date <= $%d", paramCount))
		params = append(params, end.Unwrap())
	}

	return conditions, params
}
