// Package policy converts a demand forecast into inventory-control
// parameters with closed-form newsvendor and reorder-point formulas.
package policy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"k8s.io/klog/v2"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

// MinHorizon is the shortest forecast with a defined sample standard deviation
const MinHorizon = 2

var half = decimal.NewFromFloat(0.5)

// MeanStd returns the arithmetic mean and sample standard deviation (n-1
// divisor) of the forecast demands.
func MeanStd(forecast []float64) (float64, float64, error) {
	if len(forecast) < MinHorizon {
		return 0, 0, fmt.Errorf("%w: standard deviation needs at least %d forecast points, got %d",
			entities.ErrInsufficientHorizon, MinHorizon, len(forecast))
	}
	mean, std := stat.MeanStdDev(forecast, nil)
	return mean, std, nil
}

// ZScore returns the standard-normal quantile of the service level
func ZScore(serviceLevel float64) (float64, error) {
	if !(serviceLevel > 0 && serviceLevel < 1) {
		return 0, fmt.Errorf("%w: service level must be in (0, 1), got %g",
			entities.ErrInvalidServiceLevel, serviceLevel)
	}
	return distuv.UnitNormal.Quantile(serviceLevel), nil
}

// OrderQuantity returns ceil(mean + z*std). A negative raw value is clamped
// to zero and reported through clamped.
func OrderQuantity(mean, std, z float64) (qty entities.Quantity, clamped bool) {
	raw := math.Ceil(mean + z*std)
	if raw < 0 {
		return 0, true
	}
	return entities.Quantity(raw), false
}

// ReorderPoint returns mean*leadTime + z*std*sqrt(leadTime)
func ReorderPoint(mean, std, z float64, leadTimeDays int) (float64, error) {
	if leadTimeDays < 0 {
		return 0, fmt.Errorf("%w: lead time cannot be negative, got %d", entities.ErrInvalidLeadTime, leadTimeDays)
	}
	if leadTimeDays == 0 {
		return 0, nil
	}
	lt := float64(leadTimeDays)
	return mean*lt + z*std*math.Sqrt(lt), nil
}

// SafetyStock returns the lead-time variability buffer R - mean*leadTime
func SafetyStock(reorderPoint, mean float64, leadTimeDays int) float64 {
	return reorderPoint - mean*float64(leadTimeDays)
}

// TotalCost returns holdingCost*(initialInventory + Q/2) plus
// stockoutCost*max(0, mean*leadTime - initialInventory).
func TotalCost(
	initialInventory float64,
	qty entities.Quantity,
	mean float64,
	leadTimeDays int,
	holdingCost, stockoutCost decimal.Decimal,
) (decimal.Decimal, error) {
	if initialInventory < 0 {
		return decimal.Zero, fmt.Errorf("%w: initial inventory cannot be negative, got %g",
			entities.ErrInvalidCostParameter, initialInventory)
	}
	if holdingCost.IsNegative() || stockoutCost.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: cost rates cannot be negative, got holding %s stockout %s",
			entities.ErrInvalidCostParameter, holdingCost, stockoutCost)
	}

	inventory := decimal.NewFromFloat(initialInventory)
	averageOnHand := inventory.Add(decimal.NewFromInt(int64(qty)).Mul(half))
	holding := holdingCost.Mul(averageOnHand)

	shortfall := decimal.NewFromFloat(mean * float64(leadTimeDays)).Sub(inventory)
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}
	stockout := stockoutCost.Mul(shortfall)

	return holding.Add(stockout), nil
}

// Service computes a complete PolicyResult from a forecast
type Service struct{}

// NewService creates a new policy service
func NewService() *Service {
	return &Service{}
}

// Calculate runs the policy steps in order over the forecast demands
func (s *Service) Calculate(forecast *entities.ForecastResult, inputs entities.PolicyInputs) (*entities.PolicyResult, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}

	mean, std, err := MeanStd(forecast.Demands())
	if err != nil {
		return nil, err
	}

	z, err := ZScore(inputs.ServiceLevel)
	if err != nil {
		return nil, err
	}

	result := &entities.PolicyResult{
		MeanDemand: mean,
		StdDemand:  std,
		ZScore:     z,
	}

	qty, clamped := OrderQuantity(mean, std, z)
	result.OrderQuantity = qty
	if clamped {
		result.Warnings = append(result.Warnings, entities.WarningOrderQuantityClamped)
		klog.InfoS("Order quantity clamped to zero",
			"mean", mean, "std", std, "z", z, "serviceLevel", inputs.ServiceLevel)
	}

	result.ReorderPoint, err = ReorderPoint(mean, std, z, inputs.LeadTimeDays)
	if err != nil {
		return nil, err
	}
	result.SafetyStock = SafetyStock(result.ReorderPoint, mean, inputs.LeadTimeDays)

	result.TotalCost, err = TotalCost(
		inputs.InitialInventory,
		qty,
		mean,
		inputs.LeadTimeDays,
		inputs.HoldingCost,
		inputs.StockoutCost,
	)
	if err != nil {
		return nil, err
	}

	if mean*float64(inputs.LeadTimeDays) > inputs.InitialInventory {
		result.Warnings = append(result.Warnings, entities.WarningStockoutExpected)
	}

	klog.V(2).InfoS("Computed inventory policy",
		"product", forecast.ProductID,
		"orderQuantity", result.OrderQuantity,
		"reorderPoint", result.ReorderPoint,
		"safetyStock", result.SafetyStock,
		"totalCost", result.TotalCost.StringFixed(2))

	return result, nil
}
