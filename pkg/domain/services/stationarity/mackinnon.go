package stationarity

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// MacKinnon (1994) response surface for the constant-only, single-series
// Dickey-Fuller distribution.
var (
	tauMax  = 2.74
	tauMin  = -18.83
	tauStar = -1.61

	// polynomial coefficients in ascending powers of the statistic
	tauSmallP = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// MacKinnon (2010) critical value surfaces: b0 + b1/T + b2/T^2 + b3/T^3
var criticalSurfaces = []struct {
	level string
	coef  [4]float64
}{
	{"1%", [4]float64{-3.43035, -6.5393, -16.786, -79.433}},
	{"5%", [4]float64{-2.86154, -2.8903, -4.234, -40.040}},
	{"10%", [4]float64{-2.56677, -1.5384, -2.809, 0}},
}

// PValue returns the approximate MacKinnon p-value of an ADF statistic for a
// regression with a constant.
func PValue(statistic float64) float64 {
	switch {
	case math.IsNaN(statistic):
		return math.NaN()
	case statistic > tauMax:
		return 1.0
	case statistic < tauMin:
		return 0.0
	}

	coef := tauLargeP
	if statistic <= tauStar {
		coef = tauSmallP
	}
	return distuv.UnitNormal.CDF(polyval(coef, statistic))
}

// CriticalValues returns the 1%, 5% and 10% critical values for a sample of
// nobs regression observations.
func CriticalValues(nobs int) map[string]float64 {
	out := make(map[string]float64, len(criticalSurfaces))
	t := float64(nobs)
	for _, s := range criticalSurfaces {
		out[s.level] = s.coef[0] + s.coef[1]/t + s.coef[2]/(t*t) + s.coef[3]/(t*t*t)
	}
	return out
}

func polyval(coef []float64, x float64) float64 {
	v := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		v = v*x + coef[i]
	}
	return v
}
