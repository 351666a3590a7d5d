package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/vsinha/invplan/pkg/application/dto"
	"github.com/vsinha/invplan/pkg/application/services/forecast"
	"github.com/vsinha/invplan/pkg/application/services/policy"
	"github.com/vsinha/invplan/pkg/domain/entities"
	"github.com/vsinha/invplan/pkg/domain/repositories"
	"github.com/vsinha/invplan/pkg/domain/services/diagnostics"
	"github.com/vsinha/invplan/pkg/domain/services/stationarity"
	"github.com/vsinha/invplan/pkg/infrastructure/events"
)

// MetricsRecorder receives the numeric outputs of a run
type MetricsRecorder interface {
	ObserveFit(productID entities.ProductID, duration time.Duration, sigma2 float64)
	ObserveForecast(forecast *entities.ForecastResult)
	ObservePolicy(productID entities.ProductID, result *entities.PolicyResult)
}

// PlanningConfig is the caller-supplied configuration of one run
type PlanningConfig struct {
	// ProductID selects the series; empty means the repository's only product
	ProductID     entities.ProductID
	Order         entities.ModelOrder
	SeasonalOrder entities.SeasonalOrder
	Horizon       int
	Policy        entities.PolicyInputs
	// UseLastInventory replaces Policy.InitialInventory with the inventory
	// of the last observation.
	UseLastInventory bool
	// SkipDiagnostics disables the advisory stationarity tests and correlograms
	SkipDiagnostics bool
	FitOptions      forecast.FitOptions
}

// PlanningOrchestrator runs the forecast and policy steps in sequence over
// one product's history.
type PlanningOrchestrator struct {
	observationRepo repositories.ObservationRepository
	policyService   *policy.Service
	eventStore      events.EventStore
	metrics         MetricsRecorder
}

// NewPlanningOrchestrator creates a new planning orchestrator. eventStore and
// metrics may be nil.
func NewPlanningOrchestrator(
	observationRepo repositories.ObservationRepository,
	policyService *policy.Service,
	eventStore events.EventStore,
	metrics MetricsRecorder,
) *PlanningOrchestrator {
	return &PlanningOrchestrator{
		observationRepo: observationRepo,
		policyService:   policyService,
		eventStore:      eventStore,
		metrics:         metrics,
	}
}

// RunPlanning loads the series, fits the model, forecasts and derives the
// inventory policy. The first failing step ends the run.
func (po *PlanningOrchestrator) RunPlanning(ctx context.Context, cfg PlanningConfig) (*dto.PlanningResult, error) {
	productID, err := po.resolveProduct(cfg.ProductID)
	if err != nil {
		return nil, err
	}

	series, err := po.observationRepo.GetSeries(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}

	result := &dto.PlanningResult{
		RunID:        uuid.NewString(),
		ProductID:    productID,
		Observations: series.Len(),
		HistoryStart: series.FirstDate(),
		HistoryEnd:   series.LastDate(),
	}
	if err := po.record(result.RunID, events.ObservationsLoadedEvent, events.ObservationsLoaded{
		ProductID:    productID,
		Observations: series.Len(),
		FirstDate:    series.FirstDate(),
		LastDate:     series.LastDate(),
	}); err != nil {
		return nil, err
	}

	if !cfg.SkipDiagnostics {
		report, err := po.runDiagnostics(result.RunID, series)
		if err != nil {
			return nil, err
		}
		result.Diagnostics = report
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fitOptions := cfg.FitOptions
	if fitOptions.MaxIterations == 0 {
		fitOptions = forecast.DefaultFitOptions()
	}

	startTime := time.Now()
	model, err := forecast.FitSeriesWithOptions(series, cfg.Order, cfg.SeasonalOrder, fitOptions)
	fitDuration := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to fit SARIMA%s%s: %w", cfg.Order, cfg.SeasonalOrder, err)
	}

	result.Model = dto.ModelSummary{
		Order:         model.Order(),
		SeasonalOrder: model.SeasonalOrder(),
		Coefficients:  model.Coefficients(),
		Diagnostics:   model.Diagnostics(),
		FitDuration:   fitDuration,
	}
	if po.metrics != nil {
		po.metrics.ObserveFit(productID, fitDuration, result.Model.Diagnostics.Sigma2)
	}
	if err := po.record(result.RunID, events.ModelFittedEvent, events.ModelFitted{
		Order:         cfg.Order,
		SeasonalOrder: cfg.SeasonalOrder,
		Sigma2:        result.Model.Diagnostics.Sigma2,
		AIC:           result.Model.Diagnostics.AIC,
		Duration:      fitDuration,
	}); err != nil {
		return nil, err
	}

	result.Forecast, err = model.Forecast(cfg.Horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to forecast: %w", err)
	}
	if po.metrics != nil {
		po.metrics.ObserveForecast(result.Forecast)
	}

	demands := make([]int64, 0, cfg.Horizon)
	for _, p := range result.Forecast.Points {
		demands = append(demands, p.Demand)
	}
	if err := po.record(result.RunID, events.ForecastGeneratedEvent, events.ForecastGenerated{
		Horizon: cfg.Horizon,
		Demands: demands,
	}); err != nil {
		return nil, err
	}

	inputs := cfg.Policy
	if cfg.UseLastInventory {
		inputs.InitialInventory = series.LastInventory()
	}
	result.Inputs = inputs

	result.Policy, err = po.policyService.Calculate(result.Forecast, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to compute policy: %w", err)
	}
	if po.metrics != nil {
		po.metrics.ObservePolicy(productID, result.Policy)
	}
	if err := po.record(result.RunID, events.PolicyComputedEvent, events.PolicyComputed{
		OrderQuantity: result.Policy.OrderQuantity,
		ReorderPoint:  result.Policy.ReorderPoint,
		SafetyStock:   result.Policy.SafetyStock,
		TotalCost:     result.Policy.TotalCost.StringFixed(2),
		Warnings:      result.Policy.Warnings,
	}); err != nil {
		return nil, err
	}

	klog.V(1).InfoS("Planning run complete",
		"run", result.RunID,
		"product", productID,
		"observations", series.Len(),
		"fitDuration", fitDuration)

	return result, nil
}

// resolveProduct picks the requested product, or the only loaded one
func (po *PlanningOrchestrator) resolveProduct(requested entities.ProductID) (entities.ProductID, error) {
	if requested != "" {
		return requested, nil
	}

	ids := po.observationRepo.GetProductIDs()
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: no observations loaded", entities.ErrDataLoad)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %d products loaded, select one of %v", entities.ErrDataLoad, len(ids), ids)
	}
}

// runDiagnostics tests the raw and first-differenced demand for a unit root
// and computes their correlograms. A check that cannot be computed leaves its
// result empty and adds a warning to the report; only a failure to record
// an event is returned.
func (po *PlanningOrchestrator) runDiagnostics(runID string, series *entities.DemandSeries) (*dto.DiagnosticsReport, error) {
	raw := series.Demands()
	differenced := series.Difference().Values()

	report := &dto.DiagnosticsReport{}
	warn := func(check string, err error) {
		klog.InfoS("Diagnostic check skipped", "run", runID, "check", check, "err", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", check, err))
	}

	for _, check := range []struct {
		name   string
		values []float64
		dst    **stationarity.Result
	}{
		{"raw", raw, &report.RawStationarity},
		{"differenced", differenced, &report.DifferencedStationarity},
	} {
		res, err := stationarity.Check(check.values)
		if err != nil {
			warn(check.name+" stationarity", err)
			continue
		}
		*check.dst = res
		if err := po.record(runID, events.StationarityCheckedEvent, events.StationarityChecked{
			Series:       check.name,
			Statistic:    res.Statistic,
			PValue:       res.PValue,
			IsStationary: res.IsStationary,
		}); err != nil {
			return nil, err
		}
	}

	for _, c := range []struct {
		name   string
		values []float64
		fn     func([]float64, int) (diagnostics.Correlogram, error)
		dst    *diagnostics.Correlogram
	}{
		{"raw ACF", raw, diagnostics.ACF, &report.RawACF},
		{"raw PACF", raw, diagnostics.PACF, &report.RawPACF},
		{"differenced ACF", differenced, diagnostics.ACF, &report.DifferencedACF},
		{"differenced PACF", differenced, diagnostics.PACF, &report.DifferencedPACF},
	} {
		correlogram, err := c.fn(c.values, diagnostics.DefaultMaxLag(len(c.values)))
		if err != nil {
			warn(c.name, err)
			continue
		}
		*c.dst = correlogram
	}

	return report, nil
}

func (po *PlanningOrchestrator) record(runID, eventType string, data any) error {
	if po.eventStore == nil {
		return nil
	}
	if err := po.eventStore.AppendEvent(runID, events.NewEvent(eventType, runID, data)); err != nil {
		return fmt.Errorf("failed to record %s: %w", eventType, err)
	}
	return nil
}
