package bootstrap

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Global calibration: solve the full rate vector simultaneously by
// Gauss-Newton on a stacked residual vector of weighted per-instrument
// pricing errors plus smoothness and monotonicity penalty rows. The Jacobian
// is the per-instrument sensitivity to each curve node, assembled by finite
// differences; a numerically singular normal system is a non-convergence
// failure, not something to regularize behind the caller's back (a positive
// smoothness penalty regularizes it by construction, and explicitly).
func solveGlobal(fitted []point, s Settings) ([]float64, error) {
	n := len(fitted)
	years := make([]float64, n)
	rates := make([]float64, n)
	for i, p := range fitted {
		years[i] = p.years
		rates[i] = p.inst.Rate
	}
	if len(s.InitialGuess) == n {
		copy(rates, s.InitialGuess)
	}

	m := n
	if s.Penalties.Smoothness > 0 && n > 2 {
		m += n - 2
	}
	if s.Penalties.Monotonicity > 0 && n > 1 {
		m += n - 1
	}

	residuals := func(r []float64) ([]float64, error) {
		e, err := newEval(years, r, s.Interpolation)
		if err != nil {
			return nil, err
		}
		out := make([]float64, 0, m)
		for i, p := range fitted {
			out = append(out, p.inst.Weight*(impliedRate(p.inst.Kind, years[i], e)-p.inst.Rate))
		}
		if s.Penalties.Smoothness > 0 && n > 2 {
			for j := 1; j < n-1; j++ {
				out = append(out, s.Penalties.Smoothness*(r[j-1]-2*r[j]+r[j+1]))
			}
		}
		if s.Penalties.Monotonicity > 0 && n > 1 {
			for j := 0; j < n-1; j++ {
				// Violated only when the discount factor would increase.
				v := r[j]*years[j] - r[j+1]*years[j+1]
				if v < 0 {
					v = 0
				}
				out = append(out, s.Penalties.Monotonicity*v)
			}
		}
		return out, nil
	}

	// Worst unweighted instrument repricing error; convergence is judged on
	// this, not on the penalty rows.
	priceError := func(r []float64) float64 {
		e, err := newEval(years, r, s.Interpolation)
		if err != nil {
			return math.Inf(1)
		}
		worst := 0.0
		for i, p := range fitted {
			d := math.Abs(impliedRate(p.inst.Kind, years[i], e) - p.inst.Rate)
			if d > worst {
				worst = d
			}
		}
		return worst
	}

	const h = 1e-7
	for iter := 0; iter < s.MaxIterations; iter++ {
		if priceError(rates) < s.Tolerance {
			return rates, nil
		}

		f0, err := residuals(rates)
		if err != nil {
			return nil, &NonConvergenceError{Method: MethodGlobal, Reason: err.Error()}
		}

		jac := mat.NewDense(m, n, nil)
		for j := 0; j < n; j++ {
			bumped := append([]float64(nil), rates...)
			bumped[j] += h
			fj, err := residuals(bumped)
			if err != nil {
				return nil, &NonConvergenceError{Method: MethodGlobal, Reason: err.Error()}
			}
			for i := 0; i < m; i++ {
				jac.Set(i, j, (fj[i]-f0[i])/h)
			}
		}

		// Normal equations: (J^T J) delta = J^T F.
		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		rhs := mat.NewVecDense(m, f0)
		var jtf mat.VecDense
		jtf.MulVec(jac.T(), rhs)

		var delta mat.VecDense
		if err := delta.SolveVec(&jtj, &jtf); err != nil {
			return nil, &NonConvergenceError{
				Method:   MethodGlobal,
				Residual: priceError(rates),
				Reason:   "singular Jacobian",
				Err:      err,
			}
		}

		step := 1.0
		for j := 0; j < n; j++ {
			d := delta.AtVec(j)
			// Damp runaway steps; rates live on a unit scale.
			if math.Abs(d) > 0.5 {
				step = math.Min(step, 0.5/math.Abs(d))
			}
		}
		for j := 0; j < n; j++ {
			rates[j] -= step * delta.AtVec(j)
		}
	}

	if priceError(rates) < s.Tolerance {
		return rates, nil
	}
	return nil, &NonConvergenceError{
		Method:   MethodGlobal,
		Residual: priceError(rates),
		Reason:   "iteration bound exceeded",
	}
}
