package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidRatio         ErrorCode = 100
	ErrCodeInvalidDividend      ErrorCode = 101
	ErrCodeMissingKey           ErrorCode = 102
	ErrCodeInvalidConfiguration ErrorCode = 103
	ErrCodeInvalidActionType    ErrorCode = 104
	ErrCodeMissingRatio         ErrorCode = 105
	ErrCodeMissingDividend      ErrorCode = 106

	// Data/Resource errors (200-299)
	ErrCodeNoDataFound           ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Adjustment errors (300-399)
	ErrCodeAllEventsInvalid ErrorCode = 300
	ErrCodeAllBarsInvalid   ErrorCode = 301

	// Source errors (700-799)
	ErrCodeSourceReadFailed  ErrorCode = 700
	ErrCodeSourceParseFailed ErrorCode = 701
	ErrCodeInvalidDate       ErrorCode = 702

	// Writer errors (800-899)
	ErrCodeWriteFailed  ErrorCode = 800
	ErrCodeExportFailed ErrorCode = 801
)
