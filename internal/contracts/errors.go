package contracts

import "errors"

// AnalysisError is an expected analysis failure (bad or insufficient input).
// Its text is the message shown to callers under the "error" key.
type AnalysisError string

func (e AnalysisError) Error() string { return string(e) }

const (
	ErrInsufficientPriceData  AnalysisError = "Insufficient price data"
	ErrNoCashFlows            AnalysisError = "No cash flows provided"
	ErrIRRFailed              AnalysisError = "Could not calculate IRR"
	ErrInsufficientReturnData AnalysisError = "Insufficient return data"
	ErrLengthMismatch         AnalysisError = "Portfolio and benchmark return lengths must match"
	ErrNoReturns              AnalysisError = "No returns provided"
	ErrInsufficientPeriods    AnalysisError = "Insufficient periods for persistence analysis"
)

// IsAnalysisError reports whether err is (or wraps) an AnalysisError.
func IsAnalysisError(err error) bool {
	var ae AnalysisError
	return errors.As(err, &ae)
}

// ErrorBody renders err as the {"error": message} mapping used by JSON consumers.
func ErrorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
