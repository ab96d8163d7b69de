package bootstrap

import (
	"fmt"
	"math"

	"github.com/meenmo/curvelib/solver"
)

// Sequential stripping: process instruments in maturity order, solving for
// one new node rate at a time against the instrument's fair-value condition,
// using only previously solved nodes. The shared solver retries once with a
// bisection bracket before surfacing non-convergence.
func solveSequential(fitted []point, s Settings) ([]float64, error) {
	years := make([]float64, 0, len(fitted))
	rates := make([]float64, 0, len(fitted))

	sset := solver.Settings{
		Tolerance:     s.Tolerance,
		MaxIterations: s.MaxIterations,
		Damping:       0.5,
	}

	for i, p := range fitted {
		years = append(years, p.years)
		rates = append(rates, 0)

		// Evaluation failures are real errors, not non-convergence. The
		// closure records them and hands the solver a NaN to stop on.
		var evalErr error
		residual := func(x float64) float64 {
			rates[i] = x
			e, err := newEval(years, rates, s.Interpolation)
			if err != nil {
				evalErr = err
				return math.NaN()
			}
			return impliedRate(p.inst.Kind, p.years, e) - p.inst.Rate
		}
		f := func(x float64) (float64, float64) {
			const h = 1e-7
			v := residual(x)
			return v, (residual(x+h) - v) / h
		}

		guess := p.inst.Rate
		if len(s.InitialGuess) == len(fitted) {
			guess = s.InitialGuess[i]
		} else if i > 0 {
			guess = rates[i-1]
		}

		x, err := solver.Solve("bootstrap "+p.inst.Tenor, f, guess, -0.5, 1.5, sset)
		if evalErr != nil {
			return nil, fmt.Errorf("bootstrap: instrument %s: %w", p.inst.Tenor, evalErr)
		}
		if err != nil {
			return nil, &NonConvergenceError{
				Method:   MethodSequential,
				Tenor:    p.inst.Tenor,
				Residual: residual(guess),
				Reason:   "root-finder exceeded iteration or tolerance bounds",
				Err:      err,
			}
		}
		rates[i] = x
	}

	return rates, nil
}
