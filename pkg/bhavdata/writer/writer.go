package writer

import (
	"github.com/nsetools/bhavadjust/internal/types"
)

// AdjustedBarWriter defines the interface for persisting adjusted bars.
type AdjustedBarWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write stages a single adjusted bar.
	Write(bar types.EquityBar) error
	// Finalize completes the writing process and returns the output location.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output directory.
	GetOutputPath() string
}
