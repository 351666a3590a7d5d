package forecast

import "math"

// Lag polynomials are stored as coefficients in ascending powers of the
// backshift operator B, with the B^0 coefficient first.

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// arPolynomial returns (1 - sum phi_i B^i)(1 - sum Phi_j B^(j*s))
func arPolynomial(phi, seasonalPhi []float64, s int) []float64 {
	return polyMul(lagPolynomial(phi, 1, -1), lagPolynomial(seasonalPhi, s, -1))
}

// maPolynomial returns (1 + sum theta_i B^i)(1 + sum Theta_j B^(j*s))
func maPolynomial(theta, seasonalTheta []float64, s int) []float64 {
	return polyMul(lagPolynomial(theta, 1, 1), lagPolynomial(seasonalTheta, s, 1))
}

// differencingPolynomial returns (1 - B)^d (1 - B^s)^D
func differencingPolynomial(d, seasonalD, s int) []float64 {
	out := []float64{1}
	for i := 0; i < d; i++ {
		out = polyMul(out, []float64{1, -1})
	}
	if seasonalD > 0 {
		seasonal := make([]float64, s+1)
		seasonal[0], seasonal[s] = 1, -1
		for i := 0; i < seasonalD; i++ {
			out = polyMul(out, seasonal)
		}
	}
	return out
}

func lagPolynomial(coef []float64, step int, sign float64) []float64 {
	out := make([]float64, len(coef)*step+1)
	out[0] = 1
	for i, c := range coef {
		out[(i+1)*step] = sign * c
	}
	return out
}

// applyFilter returns sum_k poly[k] * x[t-k] for every t with a full window
func applyFilter(poly, x []float64) []float64 {
	k := len(poly) - 1
	if len(x) <= k {
		return nil
	}
	out := make([]float64, len(x)-k)
	for t := k; t < len(x); t++ {
		v := 0.0
		for i, c := range poly {
			v += c * x[t-i]
		}
		out[t-k] = v
	}
	return out
}

// constrainStationary maps unconstrained reals onto the coefficients of a
// stationary AR polynomial through partial autocorrelations in (-1, 1).
func constrainStationary(unconstrained []float64) []float64 {
	n := len(unconstrained)
	if n == 0 {
		return nil
	}

	y := make([][]float64, n)
	for k := range y {
		y[k] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		r := unconstrained[k] / math.Sqrt(1+unconstrained[k]*unconstrained[k])
		for i := 0; i < k; i++ {
			y[k][i] = y[k-1][i] + r*y[k-1][k-i-1]
		}
		y[k][k] = r
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = -y[n-1][i]
	}
	return out
}

// constrainInvertible is constrainStationary for MA polynomials written with
// a plus sign.
func constrainInvertible(unconstrained []float64) []float64 {
	out := constrainStationary(unconstrained)
	for i := range out {
		out[i] = -out[i]
	}
	return out
}
