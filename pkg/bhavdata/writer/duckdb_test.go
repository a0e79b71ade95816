package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/nsetools/bhavadjust/internal/types"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	outputDir string
	writer    AdjustedBarWriter
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupTest() {
	suite.outputDir = filepath.Join(suite.T().TempDir(), "adjusted")
	suite.writer = NewDuckDBWriter(suite.outputDir)
	suite.Require().NoError(suite.writer.Initialize())
}

func (suite *DuckDBWriterTestSuite) TearDownTest() {
	suite.NoError(suite.writer.Close())
}

func adjustedBar(symbol string, tradeDate time.Time, close float64, factor float64) types.EquityBar {
	return types.EquityBar{
		Symbol:           symbol,
		TradeDate:        tradeDate,
		Open:             optional.Some(close - 10),
		High:             optional.Some(close + 20),
		Low:              optional.Some(close - 20),
		Close:            optional.Some(close),
		Volume:           100000,
		AdjustmentFactor: factor,
	}
}

func (suite *DuckDBWriterTestSuite) TestWriteAndFinalize() {
	bars := []types.EquityBar{
		adjustedBar("RELIANCE", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 500.0, 5.0),
		adjustedBar("RELIANCE", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), 502.0, 5.0),
		adjustedBar("TCS", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 3520.0, 1.0),
	}

	for _, bar := range bars {
		suite.Require().NoError(suite.writer.Write(bar))
	}

	outputPath, err := suite.writer.Finalize()
	suite.Require().NoError(err)
	suite.Equal(suite.outputDir, outputPath)

	// hive partition directories keyed by trade date
	januaryDir := filepath.Join(suite.outputDir, "year=2024", "month=1", "day=10")
	_, err = os.Stat(januaryDir)
	suite.NoError(err, "expected partition directory %s", januaryDir)

	// read the export back through a fresh connection
	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)

	defer db.Close()

	glob := filepath.Join(suite.outputDir, "**", "*.parquet")

	var count int
	err = db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM read_parquet('%s', hive_partitioning=true)`, glob)).Scan(&count)
	suite.Require().NoError(err)
	suite.Equal(3, count)

	var factor float64
	err = db.QueryRow(fmt.Sprintf(
		`SELECT adjustment_factor FROM read_parquet('%s', hive_partitioning=true) WHERE symbol = 'TCS'`, glob,
	)).Scan(&factor)
	suite.Require().NoError(err)
	suite.Equal(1.0, factor)
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	uninitialized := NewDuckDBWriter(suite.outputDir)
	err := uninitialized.Write(adjustedBar("RELIANCE", time.Now(), 500.0, 1.0))
	suite.Error(err)
}

func (suite *DuckDBWriterTestSuite) TestNullColumnsRoundTrip() {
	bar := types.EquityBar{
		Symbol:           "SBIN",
		TradeDate:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Close:            optional.Some(600.0),
		AdjustmentFactor: 1.0,
	}

	suite.Require().NoError(suite.writer.Write(bar))

	_, err := suite.writer.Finalize()
	suite.Require().NoError(err)

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)

	defer db.Close()

	glob := filepath.Join(suite.outputDir, "**", "*.parquet")

	var open sql.NullFloat64
	err = db.QueryRow(fmt.Sprintf(
		`SELECT open FROM read_parquet('%s', hive_partitioning=true) WHERE symbol = 'SBIN'`, glob,
	)).Scan(&open)
	suite.Require().NoError(err)
	suite.False(open.Valid)
}

func (suite *DuckDBWriterTestSuite) TestGetOutputPath() {
	suite.Equal(suite.outputDir, suite.writer.GetOutputPath())
}
