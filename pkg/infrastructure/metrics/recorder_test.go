package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

func TestRecorder_ObservePolicy(t *testing.T) {
	r := NewRecorder()

	r.ObservePolicy("SKU-1", &entities.PolicyResult{
		MeanDemand:    121,
		StdDemand:     6.99,
		OrderQuantity: 133,
		ReorderPoint:  258.26,
		SafetyStock:   16.26,
		TotalCost:     decimal.RequireFromString("556.65"),
		Warnings:      []entities.PolicyWarning{entities.WarningStockoutExpected},
	})

	assert.Equal(t, 133.0, testutil.ToFloat64(r.orderQuantity.WithLabelValues("SKU-1")))
	assert.Equal(t, 258.26, testutil.ToFloat64(r.reorderPoint.WithLabelValues("SKU-1")))
	assert.Equal(t, 556.65, testutil.ToFloat64(r.totalCost.WithLabelValues("SKU-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.warnings.WithLabelValues("SKU-1", string(entities.WarningStockoutExpected))))

	expected := `
# HELP invplan_safety_stock_units Lead-time variability buffer
# TYPE invplan_safety_stock_units gauge
invplan_safety_stock_units{product="SKU-1"} 16.26
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "invplan_safety_stock_units"))
}

func TestRecorder_ObserveForecastAndFit(t *testing.T) {
	r := NewRecorder()

	r.ObserveFit("SKU-1", 1500*time.Millisecond, 42.5)
	r.ObserveForecast(&entities.ForecastResult{
		ProductID: "SKU-1",
		Points: []entities.ForecastPoint{
			{Demand: 110},
			{Demand: 113},
			{Demand: 116},
		},
	})

	assert.Equal(t, 1.5, testutil.ToFloat64(r.fitDuration.WithLabelValues("SKU-1")))
	assert.Equal(t, 42.5, testutil.ToFloat64(r.fitSigma2.WithLabelValues("SKU-1")))
	assert.Equal(t, 3, testutil.CollectAndCount(r.forecastDemand))
	assert.Equal(t, 113.0, testutil.ToFloat64(r.forecastDemand.WithLabelValues("SKU-1", "2")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveFit("SKU-1", time.Second, 3)

	path := filepath.Join(t.TempDir(), "invplan.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `invplan_model_sigma2{product="SKU-1"} 3`)
}
