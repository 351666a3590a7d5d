package entities

import (
	"fmt"
	"time"
)

// DefaultHorizon is the number of days forecast per run
const DefaultHorizon = 10

// ModelOrder is the non-seasonal (p, d, q) order of a SARIMA model
type ModelOrder struct {
	P int `json:"p" yaml:"p"`
	D int `json:"d" yaml:"d"`
	Q int `json:"q" yaml:"q"`
}

// SeasonalOrder is the seasonal (P, D, Q, s) order of a SARIMA model
type SeasonalOrder struct {
	P int `json:"p" yaml:"p"`
	D int `json:"d" yaml:"d"`
	Q int `json:"q" yaml:"q"`
	S int `json:"s" yaml:"s"`
}

// String formats the order as (p,d,q)
func (o ModelOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// String formats the order as (P,D,Q,s)
func (o SeasonalOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", o.P, o.D, o.Q, o.S)
}

// IsZero reports whether the order carries no seasonal terms
func (o SeasonalOrder) IsZero() bool {
	return o.P == 0 && o.D == 0 && o.Q == 0
}

// ValidateOrders checks that both orders describe a fittable model
func ValidateOrders(order ModelOrder, seasonal SeasonalOrder) error {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return fmt.Errorf("%w: order %s has negative terms", ErrInvalidOrder, order)
	}
	if seasonal.P < 0 || seasonal.D < 0 || seasonal.Q < 0 || seasonal.S < 0 {
		return fmt.Errorf("%w: seasonal order %s has negative terms", ErrInvalidOrder, seasonal)
	}
	if !seasonal.IsZero() && seasonal.S < 2 {
		return fmt.Errorf("%w: seasonal period must be at least 2, got %d", ErrInvalidOrder, seasonal.S)
	}
	return nil
}

// ForecastPoint is the demand estimate for one future day
type ForecastPoint struct {
	Date time.Time `json:"date"`
	// Demand is Estimate truncated toward zero and clamped at zero
	Demand   int64   `json:"demand"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	Lower95  float64 `json:"lower_95"`
	Upper95  float64 `json:"upper_95"`
}

// ForecastResult is the ordered forecast immediately following the last
// historical date.
type ForecastResult struct {
	ProductID ProductID       `json:"product_id"`
	Points    []ForecastPoint `json:"points"`
}

// Horizon returns the number of forecast days
func (f *ForecastResult) Horizon() int {
	return len(f.Points)
}

// Demands returns the integer demand estimates as floats, in date order
func (f *ForecastResult) Demands() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = float64(p.Demand)
	}
	return out
}
