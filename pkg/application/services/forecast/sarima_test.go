package forecast

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/invplan/pkg/domain/entities"
	testhelpers "github.com/vsinha/invplan/pkg/infrastructure/testing"
)

var (
	referenceOrder    = entities.ModelOrder{P: 1, D: 1, Q: 1}
	referenceSeasonal = entities.SeasonalOrder{P: 1, D: 1, Q: 1, S: 2}
)

func TestFitSeries_ReferenceForecast(t *testing.T) {
	series := testhelpers.BuildReferenceSeries()

	model, err := FitSeries(series, referenceOrder, referenceSeasonal)
	require.NoError(t, err)

	diag := model.Diagnostics()
	assert.Greater(t, diag.Sigma2, 0.0)
	// three values lost to differencing and three to the AR window
	assert.Equal(t, series.Len()-6, diag.NResiduals)
	assert.False(t, math.IsInf(diag.AIC, 0))

	coef := model.Coefficients()
	require.Len(t, coef.AR, 1)
	require.Len(t, coef.SeasonalAR, 1)
	require.Len(t, coef.MA, 1)
	require.Len(t, coef.SeasonalMA, 1)
	assert.Less(t, math.Abs(coef.AR[0]), 1.0)
	assert.Less(t, math.Abs(coef.MA[0]), 1.0)

	result, err := model.Forecast(entities.DefaultHorizon)
	require.NoError(t, err)
	require.Len(t, result.Points, entities.DefaultHorizon)
	assert.Equal(t, testhelpers.ReferenceProduct, result.ProductID)

	sum := 0.0
	for h, p := range result.Points {
		assert.Equal(t, series.LastDate().AddDate(0, 0, h+1), p.Date)
		assert.GreaterOrEqual(t, p.Demand, int64(0))
		assert.LessOrEqual(t, p.Lower95, p.Estimate)
		assert.GreaterOrEqual(t, p.Upper95, p.Estimate)
		if h > 0 {
			assert.GreaterOrEqual(t, p.StdErr, result.Points[h-1].StdErr)
		}
		sum += float64(p.Demand)
	}
	mean := sum / float64(len(result.Points))
	assert.Greater(t, mean, 80.0)
	assert.Less(t, mean, 160.0)
}

func TestFit_Deterministic(t *testing.T) {
	series := testhelpers.BuildReferenceSeries()

	first, err := FitSeries(series, referenceOrder, referenceSeasonal)
	require.NoError(t, err)
	second, err := FitSeries(series, referenceOrder, referenceSeasonal)
	require.NoError(t, err)

	assert.Equal(t, first.Coefficients(), second.Coefficients())

	a, err := first.Forecast(10)
	require.NoError(t, err)
	b, err := first.Forecast(10)
	require.NoError(t, err)
	c, err := second.Forecast(10)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestFit_RecoversAR1(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	series := make([]float64, 400)
	for i := 1; i < len(series); i++ {
		series[i] = 0.6*series[i-1] + rng.NormFloat64()
	}

	model, err := Fit(series, entities.ModelOrder{P: 1}, entities.SeasonalOrder{})
	require.NoError(t, err)

	assert.InDelta(t, 0.6, model.Coefficients().AR[0], 0.1)
	assert.InDelta(t, 1.0, model.Diagnostics().Sigma2, 0.2)
}

func TestFit_RandomWalkHasNoParameters(t *testing.T) {
	series := []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16}

	model, err := Fit(series, entities.ModelOrder{D: 1}, entities.SeasonalOrder{})
	require.NoError(t, err)

	diag := model.Diagnostics()
	assert.Equal(t, "NoParameters", diag.Status)
	assert.Equal(t, 9, diag.NResiduals)
	assert.InDelta(t, 24.0/9.0, diag.Sigma2, 1e-12)

	result, err := model.Forecast(3)
	require.NoError(t, err)
	for h, p := range result.Points {
		assert.InDelta(t, 16.0, p.Estimate, 1e-12)
		assert.Equal(t, int64(16), p.Demand)
		assert.InDelta(t, math.Sqrt(diag.Sigma2*float64(h+1)), p.StdErr, 1e-12)
		assert.True(t, p.Date.IsZero())
	}
}

func TestFit_WhiteNoiseForecastsMean(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	model, err := Fit(series, entities.ModelOrder{}, entities.SeasonalOrder{})
	require.NoError(t, err)

	result, err := model.Forecast(2)
	require.NoError(t, err)
	for _, p := range result.Points {
		assert.InDelta(t, 5.5, p.Estimate, 1e-12)
		assert.Equal(t, int64(5), p.Demand)
	}
}

func TestFit_Errors(t *testing.T) {
	constant := make([]float64, 40)
	for i := range constant {
		constant[i] = 100
	}

	tests := []struct {
		name     string
		series   []float64
		order    entities.ModelOrder
		seasonal entities.SeasonalOrder
		wantErrs []error
	}{
		{
			name:     "constant series",
			series:   constant,
			order:    referenceOrder,
			seasonal: referenceSeasonal,
			wantErrs: []error{entities.ErrModelFit},
		},
		{
			name:     "too short for model",
			series:   testhelpers.BuildReferenceSeries().Demands()[:10],
			order:    referenceOrder,
			seasonal: referenceSeasonal,
			wantErrs: []error{entities.ErrModelFit, entities.ErrInsufficientData},
		},
		{
			name:     "non-finite value",
			series:   append(testhelpers.BuildReferenceSeries().Demands(), math.NaN()),
			order:    referenceOrder,
			seasonal: referenceSeasonal,
			wantErrs: []error{entities.ErrModelFit},
		},
		{
			name:     "invalid order",
			series:   testhelpers.BuildReferenceSeries().Demands(),
			order:    entities.ModelOrder{P: -1},
			seasonal: entities.SeasonalOrder{},
			wantErrs: []error{entities.ErrInvalidOrder},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := Fit(tt.series, tt.order, tt.seasonal)
			require.Error(t, err)
			assert.Nil(t, model)
			for _, want := range tt.wantErrs {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestForecast_InvalidHorizon(t *testing.T) {
	model, err := Fit([]float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16}, entities.ModelOrder{D: 1}, entities.SeasonalOrder{})
	require.NoError(t, err)

	_, err = model.Forecast(0)
	assert.ErrorIs(t, err, entities.ErrInsufficientHorizon)
}

func TestToDemand(t *testing.T) {
	assert.Equal(t, int64(12), toDemand(12.9))
	assert.Equal(t, int64(0), toDemand(0.4))
	assert.Equal(t, int64(0), toDemand(-3.7))
}

func TestPsiWeights(t *testing.T) {
	// AR(1) with phi 0.5
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25, 0.125}, psiWeights([]float64{1, -0.5}, []float64{1}, 4), 1e-12)
	// MA(1) with theta 0.4
	assert.InDeltaSlice(t, []float64{1, 0.4, 0}, psiWeights([]float64{1}, []float64{1, 0.4}, 3), 1e-12)
}
