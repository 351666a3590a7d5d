// Package stationarity implements the augmented Dickey-Fuller unit-root test
// used to decide how much to difference a demand series. The result is
// advisory; nothing downstream reads it automatically.
package stationarity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

// MinObservations is the shortest series the test accepts
const MinObservations = 8

// SignificanceLevel is the p-value below which a series is reported stationary
const SignificanceLevel = 0.05

// Options controls lag selection for the test regression
type Options struct {
	// MaxLag is the largest number of lagged differences considered.
	// A negative value selects the Schwert rule 12*(n/100)^(1/4).
	MaxLag int
	// AutoLag picks the lag in [0, MaxLag] minimising AIC. When false MaxLag
	// is used as is.
	AutoLag bool
}

// DefaultOptions returns AIC lag selection bounded by the Schwert rule
func DefaultOptions() Options {
	return Options{MaxLag: -1, AutoLag: true}
}

// Result is the outcome of an augmented Dickey-Fuller test
type Result struct {
	Statistic      float64            `json:"statistic"`
	PValue         float64            `json:"p_value"`
	UsedLag        int                `json:"used_lag"`
	NObs           int                `json:"n_obs"`
	CriticalValues map[string]float64 `json:"critical_values"`
	IsStationary   bool               `json:"is_stationary"`
}

// Check runs the test with DefaultOptions
func Check(series []float64) (*Result, error) {
	return CheckWithOptions(series, DefaultOptions())
}

// CheckWithOptions regresses the first difference on the lagged level, a
// constant and lagged differences, and reports the t statistic of the level
// coefficient.
func CheckWithOptions(series []float64, opts Options) (*Result, error) {
	n := len(series)
	if n < MinObservations {
		return nil, fmt.Errorf("%w: stationarity test needs at least %d observations, got %d",
			entities.ErrInsufficientData, MinObservations, n)
	}
	if stat.Variance(series, nil) == 0 {
		return nil, fmt.Errorf("%w: stationarity test on a constant series", entities.ErrModelFit)
	}

	const ntrend = 1
	limit := n/2 - ntrend - 1
	maxLag := opts.MaxLag
	if maxLag < 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("%w: series of %d observations leaves no room for lags",
			entities.ErrInsufficientData, n)
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = series[i] - series[i-1]
	}

	usedLag := maxLag
	if opts.AutoLag {
		best := math.Inf(1)
		for lag := 0; lag <= maxLag; lag++ {
			// every candidate is fitted on the same sample so AICs compare
			fit, err := fitADFRegression(series, diff, maxLag, lag)
			if err != nil {
				return nil, err
			}
			if fit.aic < best {
				best = fit.aic
				usedLag = lag
			}
		}
	}

	fit, err := fitADFRegression(series, diff, usedLag, usedLag)
	if err != nil {
		return nil, err
	}

	statistic := fit.tValue(0)
	pValue := PValue(statistic)
	return &Result{
		Statistic:      statistic,
		PValue:         pValue,
		UsedLag:        usedLag,
		NObs:           fit.nobs,
		CriticalValues: CriticalValues(fit.nobs),
		IsStationary:   pValue < SignificanceLevel,
	}, nil
}

type olsFit struct {
	beta []float64
	cov  *mat.Dense // (X'X)^-1 scaled by the residual variance
	nobs int
	ssr  float64
	aic  float64
}

func (f *olsFit) tValue(i int) float64 {
	return f.beta[i] / math.Sqrt(f.cov.At(i, i))
}

// fitADFRegression fits diff[t] on series[t], diff[t-1..t-lag] and a
// constant for t in [start, len(diff)).
func fitADFRegression(series, diff []float64, start, lag int) (*olsFit, error) {
	rows := len(diff) - start
	cols := lag + 2

	X := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := start + r
		y[r] = diff[t]
		X.Set(r, 0, series[t])
		for i := 1; i <= lag; i++ {
			X.Set(r, i, diff[t-i])
		}
		X.Set(r, cols-1, 1)
	}

	return ols(X, y)
}

func ols(X *mat.Dense, y []float64) (*olsFit, error) {
	rows, cols := X.Dims()
	if rows <= cols {
		return nil, fmt.Errorf("%w: regression with %d rows and %d regressors",
			entities.ErrInsufficientData, rows, cols)
	}

	var qr mat.QR
	qr.Factorize(X)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(rows, y)); err != nil {
		return nil, fmt.Errorf("%w: singular test regression: %v", entities.ErrModelFit, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)

	ssr := 0.0
	for i := 0; i < rows; i++ {
		e := y[i] - fitted.AtVec(i)
		ssr += e * e
	}
	if ssr == 0 {
		return nil, fmt.Errorf("%w: test regression fits exactly", entities.ErrModelFit)
	}

	var xtx, inv mat.Dense
	xtx.Mul(X.T(), X)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: singular test regression: %v", entities.ErrModelFit, err)
	}
	inv.Scale(ssr/float64(rows-cols), &inv)

	nobs := float64(rows)
	llf := -nobs / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nobs) + 1)

	b := make([]float64, cols)
	for i := range b {
		b[i] = beta.AtVec(i)
	}

	return &olsFit{
		beta: b,
		cov:  &inv,
		nobs: rows,
		ssr:  ssr,
		aic:  -2*llf + 2*float64(cols),
	}, nil
}
