// Package diagnostics computes the autocorrelation and partial
// autocorrelation functions an analyst inspects when choosing model orders.
package diagnostics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

// Correlogram holds correlation coefficients for lags 0..MaxLag and the
// approximate 95% significance band +/- Band.
type Correlogram struct {
	Values []float64 `json:"values"`
	Band   float64   `json:"band"`
}

// MaxLag returns the largest lag in the correlogram
func (c Correlogram) MaxLag() int {
	return len(c.Values) - 1
}

// Significant returns the lags, excluding lag 0, whose coefficient lies
// outside the band.
func (c Correlogram) Significant() []int {
	var lags []int
	for lag := 1; lag < len(c.Values); lag++ {
		if math.Abs(c.Values[lag]) > c.Band {
			lags = append(lags, lag)
		}
	}
	return lags
}

// DefaultMaxLag caps the lag at half the series length, and at 20
func DefaultMaxLag(n int) int {
	return min(20, n/2)
}

// ACF returns the sample autocorrelation function up to maxLag
func ACF(series []float64, maxLag int) (Correlogram, error) {
	n := len(series)
	if maxLag < 0 || maxLag >= n {
		return Correlogram{}, fmt.Errorf("%w: lag %d needs more than %d observations",
			entities.ErrInsufficientData, maxLag, n)
	}

	mean := stat.Mean(series, nil)
	c0 := 0.0
	for _, v := range series {
		c0 += (v - mean) * (v - mean)
	}
	if c0 == 0 {
		return Correlogram{}, fmt.Errorf("%w: autocorrelation of a constant series", entities.ErrModelFit)
	}

	values := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		sum := 0.0
		for t := lag; t < n; t++ {
			sum += (series[t] - mean) * (series[t-lag] - mean)
		}
		values[lag] = sum / c0
	}

	return Correlogram{Values: values, Band: band(n)}, nil
}

// PACF returns the partial autocorrelation function up to maxLag, computed
// from the sample autocorrelations by the Durbin-Levinson recursion.
func PACF(series []float64, maxLag int) (Correlogram, error) {
	acf, err := ACF(series, maxLag)
	if err != nil {
		return Correlogram{}, err
	}

	rho := acf.Values
	values := make([]float64, maxLag+1)
	values[0] = 1

	prev := make([]float64, maxLag+1)
	curr := make([]float64, maxLag+1)
	for k := 1; k <= maxLag; k++ {
		num := rho[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * rho[k-j]
			den -= prev[j] * rho[j]
		}
		if den == 0 {
			return Correlogram{}, fmt.Errorf("%w: partial autocorrelation undefined at lag %d",
				entities.ErrModelFit, k)
		}

		curr[k] = num / den
		for j := 1; j < k; j++ {
			curr[j] = prev[j] - curr[k]*prev[k-j]
		}
		values[k] = curr[k]
		copy(prev, curr)
	}

	return Correlogram{Values: values, Band: band(len(series))}, nil
}

func band(n int) float64 {
	return 1.96 / math.Sqrt(float64(n))
}
