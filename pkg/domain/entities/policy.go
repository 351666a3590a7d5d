package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity is an integer count of product units
type Quantity int64

// PolicyWarning annotates a policy result that was adjusted or needs attention
type PolicyWarning string

const (
	// WarningOrderQuantityClamped marks an order quantity whose raw value was
	// negative and was clamped to zero.
	WarningOrderQuantityClamped PolicyWarning = "order_quantity_clamped"
	// WarningStockoutExpected marks a run where expected lead-time demand
	// exceeds the initial inventory.
	WarningStockoutExpected PolicyWarning = "stockout_expected"
)

// PolicyInputs are the business parameters of an inventory policy
type PolicyInputs struct {
	InitialInventory float64
	LeadTimeDays     int
	ServiceLevel     float64
	HoldingCost      decimal.Decimal // per unit held
	StockoutCost     decimal.Decimal // per unit short
}

// NewPolicyInputs creates validated PolicyInputs
func NewPolicyInputs(
	initialInventory float64,
	leadTimeDays int,
	serviceLevel float64,
	holdingCost, stockoutCost decimal.Decimal,
) (*PolicyInputs, error) {
	inputs := &PolicyInputs{
		InitialInventory: initialInventory,
		LeadTimeDays:     leadTimeDays,
		ServiceLevel:     serviceLevel,
		HoldingCost:      holdingCost,
		StockoutCost:     stockoutCost,
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// Validate checks every field against its allowed range
func (p PolicyInputs) Validate() error {
	if p.LeadTimeDays < 0 {
		return fmt.Errorf("%w: lead time cannot be negative, got %d", ErrInvalidLeadTime, p.LeadTimeDays)
	}
	if !(p.ServiceLevel > 0 && p.ServiceLevel < 1) {
		return fmt.Errorf("%w: service level must be in (0, 1), got %g", ErrInvalidServiceLevel, p.ServiceLevel)
	}
	if p.InitialInventory < 0 {
		return fmt.Errorf("%w: initial inventory cannot be negative, got %g", ErrInvalidCostParameter, p.InitialInventory)
	}
	if p.HoldingCost.IsNegative() {
		return fmt.Errorf("%w: holding cost cannot be negative, got %s", ErrInvalidCostParameter, p.HoldingCost)
	}
	if p.StockoutCost.IsNegative() {
		return fmt.Errorf("%w: stockout cost cannot be negative, got %s", ErrInvalidCostParameter, p.StockoutCost)
	}
	return nil
}

// PolicyResult holds the inventory policy derived from a forecast
type PolicyResult struct {
	MeanDemand    float64         `json:"mean_demand"`
	StdDemand     float64         `json:"std_demand"`
	ZScore        float64         `json:"z_score"`
	OrderQuantity Quantity        `json:"order_quantity"`
	ReorderPoint  float64         `json:"reorder_point"`
	SafetyStock   float64         `json:"safety_stock"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Warnings      []PolicyWarning `json:"warnings,omitempty"`
}

// HasWarning reports whether the result carries the given warning
func (r *PolicyResult) HasWarning(w PolicyWarning) bool {
	for _, existing := range r.Warnings {
		if existing == w {
			return true
		}
	}
	return false
}
