package entities

import "errors"

// Every failure in the planning core is terminal for the run. Callers match
// these with errors.Is; the wrapping message carries the offending values.
var (
	// ErrInsufficientData is returned when a series is too short for the
	// requested diagnostic or model.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelFit is returned when the optimizer does not converge or the
	// input is numerically degenerate (for example a constant series).
	ErrModelFit = errors.New("model fit failed")

	// ErrInvalidServiceLevel is returned for service levels outside (0, 1).
	ErrInvalidServiceLevel = errors.New("invalid service level")

	// ErrInvalidCostParameter is returned for negative cost rates or a
	// negative initial inventory.
	ErrInvalidCostParameter = errors.New("invalid cost parameter")

	// ErrInvalidLeadTime is returned for negative lead times.
	ErrInvalidLeadTime = errors.New("invalid lead time")

	// ErrInsufficientHorizon is returned when a forecast is too short to
	// estimate its standard deviation.
	ErrInsufficientHorizon = errors.New("insufficient forecast horizon")

	// ErrInvalidOrder is returned for negative model orders or a seasonal
	// period that cannot carry the requested seasonal terms.
	ErrInvalidOrder = errors.New("invalid model order")

	// ErrDataLoad is returned by loaders when records are missing, malformed,
	// out of order or not contiguous.
	ErrDataLoad = errors.New("data load error")
)
