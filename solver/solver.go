// Package solver provides the one-dimensional root-finding primitive shared
// by curve bootstrapping, yield solving, and implied volatility recovery.
//
// Newton-Raphson is tried first; if it fails to converge (or the derivative
// degenerates) and a bracket is available, the solver retries once with
// bisection before giving up.
package solver

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNoConvergence is wrapped by every convergence failure from this package.
var ErrNoConvergence = errors.New("solver: no convergence")

// NoConvergenceError reports a failed root search.
type NoConvergenceError struct {
	Op         string
	Iterations int
	Residual   float64
	LastX      float64
}

func (e *NoConvergenceError) Error() string {
	return fmt.Sprintf("%s: no convergence after %d iterations (residual=%.6g, x=%.12g)",
		e.Op, e.Iterations, e.Residual, e.LastX)
}

func (e *NoConvergenceError) Unwrap() error { return ErrNoConvergence }

// Func evaluates the objective and its first derivative at x.
type Func func(x float64) (value, derivative float64)

// Settings bound the root search. The zero value is not usable; start from
// DefaultSettings.
type Settings struct {
	// Tolerance is the absolute residual below which the search stops.
	Tolerance float64
	// MaxIterations caps Newton steps and bisection halvings independently.
	MaxIterations int
	// Damping clamps a Newton step to Damping*|x| when x is away from zero.
	// Zero disables damping.
	Damping float64
	// Deadline, when non-zero, aborts the search once passed. A timed-out
	// search fails with NoConvergenceError; it never returns a
	// partially-converged value.
	Deadline time.Time
}

// DefaultSettings mirror the tolerances used throughout curve bootstrapping.
var DefaultSettings = Settings{
	Tolerance:     1e-12,
	MaxIterations: 100,
	Damping:       0.5,
}

const derivativeFloor = 1e-15

func (s Settings) expired() bool {
	return !s.Deadline.IsZero() && time.Now().After(s.Deadline)
}

// Newton runs a damped Newton-Raphson iteration from guess.
func Newton(op string, f Func, guess float64, s Settings) (float64, error) {
	x := guess
	val, deriv := f(x)

	for iter := 0; iter < s.MaxIterations; iter++ {
		if math.Abs(val) < s.Tolerance {
			return x, nil
		}
		if s.expired() {
			return 0, &NoConvergenceError{Op: op, Iterations: iter, Residual: val, LastX: x}
		}
		if math.Abs(deriv) < derivativeFloor || math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, &NoConvergenceError{Op: op, Iterations: iter, Residual: val, LastX: x}
		}

		step := val / deriv
		if s.Damping > 0 && math.Abs(x) > derivativeFloor && math.Abs(step) > s.Damping*math.Abs(x) {
			step = math.Copysign(s.Damping*math.Abs(x), step)
		}
		x -= step
		val, deriv = f(x)
	}

	if math.Abs(val) < s.Tolerance {
		return x, nil
	}
	return 0, &NoConvergenceError{Op: op, Iterations: s.MaxIterations, Residual: val, LastX: x}
}

// Bisect runs bisection on [lo, hi]. The objective must change sign over the
// bracket.
func Bisect(op string, f func(float64) float64, lo, hi float64, s Settings) (float64, error) {
	fLo := f(lo)
	fHi := f(hi)
	if math.Abs(fLo) < s.Tolerance {
		return lo, nil
	}
	if math.Abs(fHi) < s.Tolerance {
		return hi, nil
	}
	if fLo*fHi > 0 {
		return 0, &NoConvergenceError{Op: op, Iterations: 0, Residual: fLo, LastX: lo}
	}

	var mid, fMid float64
	for iter := 0; iter < s.MaxIterations; iter++ {
		if s.expired() {
			return 0, &NoConvergenceError{Op: op, Iterations: iter, Residual: fMid, LastX: mid}
		}
		mid = 0.5 * (lo + hi)
		fMid = f(mid)
		if math.Abs(fMid) < s.Tolerance {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return 0, &NoConvergenceError{Op: op, Iterations: s.MaxIterations, Residual: fMid, LastX: mid}
}

// Solve runs Newton from guess and, on failure, retries once with bisection
// over [lo, hi]. Pass lo == hi to disable the fallback.
func Solve(op string, f Func, guess, lo, hi float64, s Settings) (float64, error) {
	x, err := Newton(op, f, guess, s)
	if err == nil {
		return x, nil
	}
	if lo == hi {
		return 0, err
	}
	return Bisect(op, func(x float64) float64 {
		v, _ := f(x)
		return v
	}, lo, hi, s)
}
