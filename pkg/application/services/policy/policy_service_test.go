package policy

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

// referenceForecast has mean 121 and sample standard deviation sqrt(440/9)
var referenceForecast = []float64{110, 113, 116, 118, 120, 122, 124, 126, 129, 132}

func forecastOf(demands ...float64) *entities.ForecastResult {
	points := make([]entities.ForecastPoint, len(demands))
	for i, d := range demands {
		points[i] = entities.ForecastPoint{Demand: int64(d), Estimate: d}
	}
	return &entities.ForecastResult{ProductID: "SKU-1", Points: points}
}

func referenceInputs(initialInventory float64) entities.PolicyInputs {
	return entities.PolicyInputs{
		InitialInventory: initialInventory,
		LeadTimeDays:     2,
		ServiceLevel:     0.95,
		HoldingCost:      decimal.RequireFromString("0.1"),
		StockoutCost:     decimal.NewFromInt(10),
	}
}

func TestMeanStd(t *testing.T) {
	mean, std, err := MeanStd(referenceForecast)
	require.NoError(t, err)
	assert.InDelta(t, 121.0, mean, 1e-12)
	assert.InDelta(t, math.Sqrt(440.0/9.0), std, 1e-12)
}

func TestMeanStd_SingleValue(t *testing.T) {
	_, _, err := MeanStd([]float64{120})
	assert.ErrorIs(t, err, entities.ErrInsufficientHorizon)

	_, _, err = MeanStd(nil)
	assert.ErrorIs(t, err, entities.ErrInsufficientHorizon)
}

func TestZScore(t *testing.T) {
	tests := []struct {
		name         string
		serviceLevel float64
		want         float64
		wantErr      bool
	}{
		{"median", 0.5, 0, false},
		{"95%", 0.95, 1.6448536269514722, false},
		{"99%", 0.99, 2.3263478740408408, false},
		{"1%", 0.01, -2.3263478740408408, false},
		{"zero", 0, 0, true},
		{"one", 1, 0, true},
		{"negative", -0.1, 0, true},
		{"above one", 1.5, 0, true},
		{"NaN", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, err := ZScore(tt.serviceLevel)
			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrInvalidServiceLevel)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, z, 1e-9)
		})
	}
}

func TestZScore_Monotonic(t *testing.T) {
	prev := math.Inf(-1)
	for sl := 0.05; sl < 1; sl += 0.05 {
		z, err := ZScore(sl)
		require.NoError(t, err)
		assert.Greater(t, z, prev)
		prev = z
	}
}

func TestOrderQuantity(t *testing.T) {
	tests := []struct {
		name        string
		mean, std   float64
		z           float64
		want        entities.Quantity
		wantClamped bool
	}{
		{"reference", 121, math.Sqrt(440.0 / 9.0), 1.6448536269514722, 133, false},
		{"exact integer", 100, 10, 1, 110, false},
		{"rounds up", 100.2, 0, 1, 101, false},
		{"negative clamps", 5, 10, -2.3263478740408408, 0, true},
		{"zero stays unclamped", 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, clamped := OrderQuantity(tt.mean, tt.std, tt.z)
			assert.Equal(t, tt.want, qty)
			assert.Equal(t, tt.wantClamped, clamped)
		})
	}
}

func TestOrderQuantity_AtLeastMeanForHighServiceLevels(t *testing.T) {
	z, err := ZScore(0.8)
	require.NoError(t, err)

	for _, mean := range []float64{0, 0.5, 12.3, 121, 4000} {
		qty, _ := OrderQuantity(mean, 7, z)
		assert.GreaterOrEqual(t, float64(qty), mean)
	}
}

func TestReorderPoint(t *testing.T) {
	std := math.Sqrt(440.0 / 9.0)
	z := 1.6448536269514722

	r, err := ReorderPoint(121, std, z, 2)
	require.NoError(t, err)
	assert.InDelta(t, 242+z*std*math.Sqrt2, r, 1e-9)
	assert.InDelta(t, 258.26, r, 0.01)

	r, err = ReorderPoint(121, std, z, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)

	_, err = ReorderPoint(121, std, z, -1)
	assert.ErrorIs(t, err, entities.ErrInvalidLeadTime)
}

func TestReorderPoint_IncreasesWithLeadTime(t *testing.T) {
	prev := 0.0
	for lt := 1; lt <= 30; lt++ {
		r, err := ReorderPoint(121, 7, 1.64, lt)
		require.NoError(t, err)
		assert.Greater(t, r, prev)
		prev = r
	}
}

func TestSafetyStock_IsReorderPointLessLeadTimeDemand(t *testing.T) {
	for _, lt := range []int{0, 1, 2, 7, 14} {
		for _, z := range []float64{-1.2, 0, 1.64, 2.33} {
			mean, std := 121.0, 6.99
			r, err := ReorderPoint(mean, std, z, lt)
			require.NoError(t, err)

			ss := SafetyStock(r, mean, lt)
			assert.InDelta(t, r-mean*float64(lt), ss, 1e-9)
			if lt > 0 {
				assert.InDelta(t, z*std*math.Sqrt(float64(lt)), ss, 1e-9)
			}
		}
	}
}

func TestTotalCost(t *testing.T) {
	holding := decimal.RequireFromString("0.1")
	stockout := decimal.NewFromInt(10)

	tests := []struct {
		name      string
		inventory float64
		qty       entities.Quantity
		mean      float64
		leadTime  int
		want      string
	}{
		{"no shortfall", 5500, 133, 121, 2, "556.65"},
		{"shortfall", 100, 133, 121, 2, "1436.65"},
		{"exact cover", 242, 0, 121, 2, "24.20"},
		{"zero lead time", 0, 10, 121, 0, "0.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := TotalCost(tt.inventory, tt.qty, tt.mean, tt.leadTime, holding, stockout)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cost.StringFixed(2))
			assert.False(t, cost.IsNegative())
		})
	}
}

func TestTotalCost_InvalidParameters(t *testing.T) {
	holding := decimal.RequireFromString("0.1")
	stockout := decimal.NewFromInt(10)

	_, err := TotalCost(-1, 10, 100, 2, holding, stockout)
	assert.ErrorIs(t, err, entities.ErrInvalidCostParameter)

	_, err = TotalCost(10, 10, 100, 2, holding.Neg(), stockout)
	assert.ErrorIs(t, err, entities.ErrInvalidCostParameter)

	_, err = TotalCost(10, 10, 100, 2, holding, stockout.Neg())
	assert.ErrorIs(t, err, entities.ErrInvalidCostParameter)
}

func TestService_Calculate_Reference(t *testing.T) {
	result, err := NewService().Calculate(forecastOf(referenceForecast...), referenceInputs(5500))
	require.NoError(t, err)

	assert.InDelta(t, 121.0, result.MeanDemand, 1e-12)
	assert.Equal(t, entities.Quantity(133), result.OrderQuantity)
	assert.InDelta(t, 258.26, result.ReorderPoint, 0.01)
	assert.InDelta(t, result.ReorderPoint-result.MeanDemand*2, result.SafetyStock, 1e-9)
	assert.Equal(t, "556.65", result.TotalCost.StringFixed(2))
	assert.Empty(t, result.Warnings)
}

func TestService_Calculate_Warnings(t *testing.T) {
	t.Run("stockout expected", func(t *testing.T) {
		result, err := NewService().Calculate(forecastOf(referenceForecast...), referenceInputs(100))
		require.NoError(t, err)
		assert.True(t, result.HasWarning(entities.WarningStockoutExpected))
		assert.False(t, result.HasWarning(entities.WarningOrderQuantityClamped))
		assert.Equal(t, "1436.65", result.TotalCost.StringFixed(2))
	})

	t.Run("order quantity clamped", func(t *testing.T) {
		inputs := referenceInputs(5500)
		inputs.ServiceLevel = 0.01

		result, err := NewService().Calculate(forecastOf(0, 0, 15, 5), inputs)
		require.NoError(t, err)
		assert.Equal(t, entities.Quantity(0), result.OrderQuantity)
		assert.True(t, result.HasWarning(entities.WarningOrderQuantityClamped))
	})
}

func TestService_Calculate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		forecast *entities.ForecastResult
		mutate   func(*entities.PolicyInputs)
		wantErr  error
	}{
		{"single point horizon", forecastOf(120), func(*entities.PolicyInputs) {}, entities.ErrInsufficientHorizon},
		{"service level one", forecastOf(referenceForecast...), func(p *entities.PolicyInputs) { p.ServiceLevel = 1 }, entities.ErrInvalidServiceLevel},
		{"negative holding", forecastOf(referenceForecast...), func(p *entities.PolicyInputs) { p.HoldingCost = decimal.NewFromInt(-1) }, entities.ErrInvalidCostParameter},
		{"negative lead time", forecastOf(referenceForecast...), func(p *entities.PolicyInputs) { p.LeadTimeDays = -2 }, entities.ErrInvalidLeadTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := referenceInputs(5500)
			tt.mutate(&inputs)

			result, err := NewService().Calculate(tt.forecast, inputs)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}
