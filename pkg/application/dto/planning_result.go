package dto

import (
	"time"

	"github.com/vsinha/invplan/pkg/application/services/forecast"
	"github.com/vsinha/invplan/pkg/domain/entities"
	"github.com/vsinha/invplan/pkg/domain/services/diagnostics"
	"github.com/vsinha/invplan/pkg/domain/services/stationarity"
)

// PlanningResult contains the complete output of a planning run
type PlanningResult struct {
	RunID        string
	ProductID    entities.ProductID
	Observations int
	HistoryStart time.Time
	HistoryEnd   time.Time

	// Diagnostics is nil when the run skipped the advisory checks
	Diagnostics *DiagnosticsReport

	Model    ModelSummary
	Forecast *entities.ForecastResult
	Inputs   entities.PolicyInputs
	Policy   *entities.PolicyResult
}

// DiagnosticsReport holds the advisory stationarity tests and correlograms
// for the raw demand series and its first difference.
type DiagnosticsReport struct {
	RawStationarity         *stationarity.Result    `json:"rawStationarity"`
	DifferencedStationarity *stationarity.Result    `json:"differencedStationarity"`
	RawACF                  diagnostics.Correlogram `json:"rawAcf"`
	RawPACF                 diagnostics.Correlogram `json:"rawPacf"`
	DifferencedACF          diagnostics.Correlogram `json:"differencedAcf"`
	DifferencedPACF         diagnostics.Correlogram `json:"differencedPacf"`

	// Warnings names the checks that could not be computed for this series
	Warnings []string `json:"warnings,omitempty"`
}

// ModelSummary describes the fitted forecasting model
type ModelSummary struct {
	Order         entities.ModelOrder    `json:"order"`
	SeasonalOrder entities.SeasonalOrder `json:"seasonalOrder"`
	Coefficients  forecast.Coefficients  `json:"coefficients"`
	Diagnostics   forecast.Diagnostics   `json:"diagnostics"`
	FitDuration   time.Duration          `json:"fitDurationNs"`
}
