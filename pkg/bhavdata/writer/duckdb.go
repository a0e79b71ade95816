package writer

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"

	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

// DuckDBWriter stages adjusted bars in an in-memory DuckDB table and exports
// them as parquet partitioned by year/month/day of the trade date, the keys
// the downstream store partitions on.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
}

// NewDuckDBWriter creates a new DuckDBWriter.
// outputPath specifies the directory the partitioned parquet is written to.
func NewDuckDBWriter(outputPath string) AdjustedBarWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
	}
}

// Initialize sets up the staging table, begins a transaction and prepares the
// insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS adjusted_bhav (
			id TEXT,
			trade_date TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			prev_close DOUBLE,
			settlement_price DOUBLE,
			volume DOUBLE,
			adjustment_factor DOUBLE,
			adjustment_date TIMESTAMP,
			year INTEGER,
			month INTEGER,
			day INTEGER
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create staging table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO adjusted_bhav (
			id, trade_date, symbol, open, high, low, close, prev_close,
			settlement_price, volume, adjustment_factor, adjustment_date,
			year, month, day
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write stages a single adjusted bar.
func (w *DuckDBWriter) Write(bar types.EquityBar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	_, err := w.stmt.Exec(
		uuid.New().String(),
		bar.TradeDate,
		bar.Symbol,
		optionToNullable(bar.Open),
		optionToNullable(bar.High),
		optionToNullable(bar.Low),
		optionToNullable(bar.Close),
		optionToNullable(bar.PrevClose),
		optionToNullable(bar.SettlementPrice),
		bar.Volume,
		bar.AdjustmentFactor,
		dateToNullable(bar.AdjustmentDate),
		bar.TradeDate.Year(),
		int(bar.TradeDate.Month()),
		bar.TradeDate.Day(),
	)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to stage bar for %s", bar.Symbol)
	}

	return nil
}

// Finalize commits the staged bars and exports them as partitioned parquet.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	if err := w.tx.Commit(); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit staged bars", err)
	}

	w.tx = nil

	query := fmt.Sprintf(`
		COPY adjusted_bhav TO '%s'
		(FORMAT PARQUET, PARTITION_BY (year, month, day), OVERWRITE_OR_IGNORE)
	`, w.outputPath)

	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to export parquet to %s", w.outputPath)
	}

	return w.outputPath, nil
}

// Close releases the database resources.
func (w *DuckDBWriter) Close() error {
	if w.stmt != nil {
		w.stmt.Close()
		w.stmt = nil
	}

	if w.tx != nil {
		w.tx.Rollback()
		w.tx = nil
	}

	if w.db != nil {
		err := w.db.Close()
		w.db = nil

		return err
	}

	return nil
}

// GetOutputPath returns the configured output directory.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

func optionToNullable(value optional.Option[float64]) any {
	if value.IsNone() {
		return nil
	}

	return value.Unwrap()
}

func dateToNullable(value optional.Option[time.Time]) any {
	if value.IsNone() {
		return nil
	}

	return value.Unwrap()
}
