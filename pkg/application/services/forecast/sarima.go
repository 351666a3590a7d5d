// Package forecast fits seasonal ARIMA models to a daily demand series by
// conditional sum of squares and produces fixed-horizon demand forecasts.
package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"k8s.io/klog/v2"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

// MinResiduals is the number of innovations a fit must have beyond those
// consumed by differencing and the lag polynomials.
const MinResiduals = 8

// FitOptions tunes the optimizer
type FitOptions struct {
	// MaxIterations bounds the Nelder-Mead iterations; exceeding it is a fit failure
	MaxIterations int
	// Tolerance is the absolute and relative objective change treated as converged
	Tolerance float64
}

// DefaultFitOptions returns the options used by Fit
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MaxIterations: 5000,
		Tolerance:     1e-10,
	}
}

// Coefficients are the estimated lag coefficients of a SARIMA model
type Coefficients struct {
	AR         []float64 `json:"ar"`
	SeasonalAR []float64 `json:"seasonal_ar"`
	MA         []float64 `json:"ma"`
	SeasonalMA []float64 `json:"seasonal_ma"`
}

// Diagnostics summarises the quality of a fit
type Diagnostics struct {
	Sigma2          float64 `json:"sigma2"`
	LogLikelihood   float64 `json:"log_likelihood"`
	AIC             float64 `json:"aic"`
	AICc            float64 `json:"aicc"`
	BIC             float64 `json:"bic"`
	NResiduals      int     `json:"n_residuals"`
	Iterations      int     `json:"iterations"`
	FuncEvaluations int     `json:"func_evaluations"`
	Status          string  `json:"status"`
}

// FittedModel is a SARIMA model estimated on one demand series. It is not
// modified after Fit returns.
type FittedModel struct {
	order    entities.ModelOrder
	seasonal entities.SeasonalOrder

	productID entities.ProductID
	lastDate  time.Time

	// history is the fitted series, centered on mean when the model has no
	// differencing.
	history  []float64
	mean     float64
	centered bool

	coefficients Coefficients
	arPoly       []float64
	maPoly       []float64
	diffPoly     []float64

	// residuals are aligned with history; entries before the first
	// conditional innovation are zero.
	residuals   []float64
	diagnostics Diagnostics
}

// Order returns the non-seasonal order
func (m *FittedModel) Order() entities.ModelOrder { return m.order }

// SeasonalOrder returns the seasonal order
func (m *FittedModel) SeasonalOrder() entities.SeasonalOrder { return m.seasonal }

// Coefficients returns a copy of the estimated coefficients
func (m *FittedModel) Coefficients() Coefficients {
	return Coefficients{
		AR:         append([]float64(nil), m.coefficients.AR...),
		SeasonalAR: append([]float64(nil), m.coefficients.SeasonalAR...),
		MA:         append([]float64(nil), m.coefficients.MA...),
		SeasonalMA: append([]float64(nil), m.coefficients.SeasonalMA...),
	}
}

// Diagnostics returns the fit diagnostics
func (m *FittedModel) Diagnostics() Diagnostics { return m.diagnostics }

// LastDate returns the date of the last fitted observation
func (m *FittedModel) LastDate() time.Time { return m.lastDate }

// FitSeries fits the model to the demand column of a series; forecasts are
// dated from the series' last day.
func FitSeries(series *entities.DemandSeries, order entities.ModelOrder, seasonal entities.SeasonalOrder) (*FittedModel, error) {
	return FitSeriesWithOptions(series, order, seasonal, DefaultFitOptions())
}

// FitSeriesWithOptions is FitSeries with explicit optimizer options
func FitSeriesWithOptions(series *entities.DemandSeries, order entities.ModelOrder, seasonal entities.SeasonalOrder, opts FitOptions) (*FittedModel, error) {
	model, err := FitWithOptions(series.Demands(), order, seasonal, opts)
	if err != nil {
		return nil, err
	}
	model.productID = series.ProductID()
	model.lastDate = series.LastDate()
	return model, nil
}

// Fit estimates a SARIMA(order)(seasonal) model on raw demand values
func Fit(series []float64, order entities.ModelOrder, seasonal entities.SeasonalOrder) (*FittedModel, error) {
	return FitWithOptions(series, order, seasonal, DefaultFitOptions())
}

// FitWithOptions is Fit with explicit optimizer options
func FitWithOptions(series []float64, order entities.ModelOrder, seasonal entities.SeasonalOrder, opts FitOptions) (*FittedModel, error) {
	if err := entities.ValidateOrders(order, seasonal); err != nil {
		return nil, err
	}

	s := seasonal.S
	if seasonal.IsZero() {
		s = 0
	}

	n := len(series)
	required := order.D + seasonal.D*s + order.P + seasonal.P*s + order.Q + seasonal.Q*s + MinResiduals
	if n < required {
		return nil, fmt.Errorf("%w: %w: SARIMA%s%s needs at least %d observations, got %d",
			entities.ErrModelFit, entities.ErrInsufficientData, order, seasonal, required, n)
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value at index %d", entities.ErrModelFit, i)
		}
	}

	m := &FittedModel{
		order:    order,
		seasonal: seasonal,
		history:  append([]float64(nil), series...),
		diffPoly: differencingPolynomial(order.D, seasonal.D, s),
	}
	if len(m.diffPoly) == 1 {
		m.centered = true
		m.mean = stat.Mean(m.history, nil)
		for i := range m.history {
			m.history[i] -= m.mean
		}
	}

	w := applyFilter(m.diffPoly, m.history)
	if stat.Variance(w, nil) == 0 {
		return nil, fmt.Errorf("%w: differenced series is constant", entities.ErrModelFit)
	}

	params := newParamLayout(order, seasonal, s)

	objective := func(x []float64) float64 {
		ar, ma := params.polynomials(x)
		sse, _, _ := conditionalSumOfSquares(ar, ma, w)
		return sse
	}

	x := make([]float64, params.size())
	if params.size() > 0 {
		result, err := optimize.Minimize(optimize.Problem{Func: objective}, x, &optimize.Settings{
			MajorIterations: opts.MaxIterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   opts.Tolerance,
				Relative:   opts.Tolerance,
				Iterations: 100,
			},
		}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("%w: optimizer: %v", entities.ErrModelFit, err)
		}
		if !converged(result.Status) {
			return nil, fmt.Errorf("%w: optimizer stopped with status %s after %d iterations",
				entities.ErrModelFit, result.Status, result.Stats.MajorIterations)
		}
		x = result.X
		m.diagnostics.Iterations = result.Stats.MajorIterations
		m.diagnostics.FuncEvaluations = result.Stats.FuncEvaluations
		m.diagnostics.Status = result.Status.String()
	} else {
		m.diagnostics.Status = "NoParameters"
	}

	m.coefficients = params.coefficients(x)
	m.arPoly, m.maPoly = params.polynomials(x)

	sse, innovations, nres := conditionalSumOfSquares(m.arPoly, m.maPoly, w)
	if math.IsNaN(sse) || math.IsInf(sse, 0) || nres == 0 {
		return nil, fmt.Errorf("%w: non-finite objective at optimum", entities.ErrModelFit)
	}

	offset := len(m.diffPoly) - 1
	m.residuals = make([]float64, n)
	copy(m.residuals[offset:], innovations)

	m.diagnostics.NResiduals = nres
	m.diagnostics.Sigma2 = sse / float64(nres)
	fillInformationCriteria(&m.diagnostics, params.size()+1)

	klog.V(2).InfoS("Fitted SARIMA model",
		"order", order.String(),
		"seasonalOrder", seasonal.String(),
		"observations", n,
		"sigma2", m.diagnostics.Sigma2,
		"aic", m.diagnostics.AIC,
		"iterations", m.diagnostics.Iterations)
	klog.V(4).InfoS("SARIMA coefficients",
		"ar", m.coefficients.AR,
		"seasonalAR", m.coefficients.SeasonalAR,
		"ma", m.coefficients.MA,
		"seasonalMA", m.coefficients.SeasonalMA,
		"status", m.diagnostics.Status)

	return m, nil
}

// Forecast produces horizon daily demand estimates following the last fitted
// observation. Future innovations are taken as zero, so repeated calls on
// the same model return identical results.
func (m *FittedModel) Forecast(horizon int) (*entities.ForecastResult, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon must be at least 1, got %d", entities.ErrInsufficientHorizon, horizon)
	}

	full := polyMul(m.arPoly, m.diffPoly)
	n := len(m.history)

	y := make([]float64, n+horizon)
	copy(y, m.history)
	e := make([]float64, n+horizon)
	copy(e, m.residuals)

	for t := n; t < n+horizon; t++ {
		v := 0.0
		for k := 1; k < len(full); k++ {
			v -= full[k] * y[t-k]
		}
		for j := 1; j < len(m.maPoly); j++ {
			v += m.maPoly[j] * e[t-j]
		}
		y[t] = v
	}

	psi := psiWeights(full, m.maPoly, horizon)
	z := distuv.UnitNormal.Quantile(0.975)

	result := &entities.ForecastResult{
		ProductID: m.productID,
		Points:    make([]entities.ForecastPoint, horizon),
	}

	variance := 0.0
	for h := 0; h < horizon; h++ {
		estimate := y[n+h]
		if m.centered {
			estimate += m.mean
		}
		if math.IsNaN(estimate) || math.IsInf(estimate, 0) {
			return nil, fmt.Errorf("%w: forecast diverged at step %d", entities.ErrModelFit, h+1)
		}

		variance += m.diagnostics.Sigma2 * psi[h] * psi[h]
		stdErr := math.Sqrt(variance)

		var date time.Time
		if !m.lastDate.IsZero() {
			date = m.lastDate.AddDate(0, 0, h+1)
		}

		result.Points[h] = entities.ForecastPoint{
			Date:     date,
			Demand:   toDemand(estimate),
			Estimate: estimate,
			StdErr:   stdErr,
			Lower95:  estimate - z*stdErr,
			Upper95:  estimate + z*stdErr,
		}
	}

	return result, nil
}

// toDemand truncates toward zero and clamps negative estimates to zero
func toDemand(estimate float64) int64 {
	if estimate <= 0 {
		return 0
	}
	return int64(estimate)
}

// psiWeights returns the first h coefficients of ma(B)/ar(B)
func psiWeights(ar, ma []float64, h int) []float64 {
	psi := make([]float64, h)
	psi[0] = 1
	for j := 1; j < h; j++ {
		v := 0.0
		if j < len(ma) {
			v = ma[j]
		}
		for k := 1; k < len(ar) && k <= j; k++ {
			v -= ar[k] * psi[j-k]
		}
		psi[j] = v
	}
	return psi
}

// conditionalSumOfSquares returns the sum of squared innovations of the
// ARMA filter over w, the innovations themselves (zero before the first
// full AR window) and the number of innovations summed.
func conditionalSumOfSquares(ar, ma, w []float64) (float64, []float64, int) {
	start := len(ar) - 1
	e := make([]float64, len(w))
	sse := 0.0
	for t := start; t < len(w); t++ {
		v := 0.0
		for i, c := range ar {
			v += c * w[t-i]
		}
		for j := 1; j < len(ma) && j <= t; j++ {
			v -= ma[j] * e[t-j]
		}
		e[t] = v
		sse += v * v
	}
	return sse, e, len(w) - start
}

func fillInformationCriteria(d *Diagnostics, k int) {
	n := float64(d.NResiduals)
	d.LogLikelihood = -n / 2 * (math.Log(2*math.Pi*d.Sigma2) + 1)
	d.AIC = -2*d.LogLikelihood + 2*float64(k)
	d.BIC = -2*d.LogLikelihood + math.Log(n)*float64(k)
	// AICc stays zero when the sample is too small to define it
	if denom := n - float64(k) - 1; denom > 0 {
		d.AICc = d.AIC + 2*float64(k)*float64(k+1)/denom
	}
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success,
		optimize.FunctionConvergence,
		optimize.MethodConverge,
		optimize.FunctionThreshold,
		optimize.StepConvergence:
		return true
	default:
		return false
	}
}

// paramLayout maps the flat optimizer vector onto the four coefficient
// blocks [AR | seasonal AR | MA | seasonal MA].
type paramLayout struct {
	p, sp, q, sq int
	s            int
}

func newParamLayout(order entities.ModelOrder, seasonal entities.SeasonalOrder, s int) paramLayout {
	return paramLayout{p: order.P, sp: seasonal.P, q: order.Q, sq: seasonal.Q, s: s}
}

func (l paramLayout) size() int {
	return l.p + l.sp + l.q + l.sq
}

func (l paramLayout) coefficients(x []float64) Coefficients {
	i := 0
	next := func(k int) []float64 {
		block := x[i : i+k]
		i += k
		return block
	}
	ar := constrainStationary(next(l.p))
	sar := constrainStationary(next(l.sp))
	ma := constrainInvertible(next(l.q))
	sma := constrainInvertible(next(l.sq))
	return Coefficients{AR: ar, SeasonalAR: sar, MA: ma, SeasonalMA: sma}
}

func (l paramLayout) polynomials(x []float64) ([]float64, []float64) {
	c := l.coefficients(x)
	return arPolynomial(c.AR, c.SeasonalAR, l.s), maPolynomial(c.MA, c.SeasonalMA, l.s)
}
