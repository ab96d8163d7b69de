// Package bootstrap calibrates rate curves to market instrument quotes,
// either by sequential stripping or by a global penalized fit.
package bootstrap

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/daycount"
	"github.com/meenmo/curvelib/tenor"
)

// Method selects the calibration mode.
type Method string

const (
	// MethodSequential strips one curve point per instrument in maturity
	// order, each solved by one-dimensional root finding.
	MethodSequential Method = "sequential"
	// MethodGlobal solves the full rate vector simultaneously by a
	// multivariate Newton iteration with optional smoothness and
	// monotonicity penalties.
	MethodGlobal Method = "global"
)

// Penalties weight the regularization terms of the global objective.
type Penalties struct {
	// Smoothness weights the second difference of adjacent node rates.
	Smoothness float64
	// Monotonicity penalizes decreasing r*t between adjacent nodes, i.e.
	// increasing discount factors.
	Monotonicity float64
}

// Settings configure one bootstrap run. Name, Type, AsOf and Currency
// identify the output curve; the rest tune the fit.
type Settings struct {
	Name       string
	Type       curve.Type
	AsOf       time.Time
	Currency   string
	Index      string
	IndexTenor string

	Method        Method
	Interpolation curve.Interpolation
	Extrapolation curve.Extrapolation
	DayCount      daycount.Convention

	Tolerance     float64
	MaxIterations int
	Penalties     Penalties

	// InitialGuess seeds the node rates, one per fitted instrument in
	// maturity order. Used by Update for warm starts; when absent, the
	// observed quotes seed the fit.
	InitialGuess []float64
}

func (s Settings) withDefaults() Settings {
	if s.Method == "" {
		s.Method = MethodSequential
	}
	if s.Type == "" {
		s.Type = curve.TypeDiscount
	}
	if s.Interpolation == "" {
		s.Interpolation = curve.InterpLinearZero
	}
	if s.DayCount == "" {
		s.DayCount = daycount.Act365F
	}
	if s.Tolerance == 0 {
		s.Tolerance = 1e-12
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 100
	}
	return s
}

// NonConvergenceError reports a calibration that exceeded its iteration or
// tolerance bounds, including a singular Jacobian in global mode.
type NonConvergenceError struct {
	Method   Method
	Tenor    string
	Residual float64
	Reason   string
	Err      error
}

func (e *NonConvergenceError) Error() string {
	if e.Tenor != "" {
		return fmt.Sprintf("bootstrap (%s): instrument %s did not converge: %s (residual=%.6g)",
			e.Method, e.Tenor, e.Reason, e.Residual)
	}
	return fmt.Sprintf("bootstrap (%s): did not converge: %s (residual=%.6g)", e.Method, e.Reason, e.Residual)
}

func (e *NonConvergenceError) Unwrap() error { return e.Err }

// point is an instrument resolved to a year-fraction maturity. Order index
// keeps ties deterministic.
type point struct {
	inst  curve.Instrument
	years float64
	order int
}

// Bootstrap calibrates a curve from market instruments.
//
// Instruments are stable-sorted by ascending maturity; ties keep input
// order, so identical input always produces an identical curve. Weight-0
// instruments are excluded from the fit but carried on the output curve for
// quality diagnostics.
func Bootstrap(instruments []curve.Instrument, settings Settings) (*curve.RateCurve, error) {
	s := settings.withDefaults()
	if len(instruments) == 0 {
		return nil, fmt.Errorf("bootstrap: no instruments")
	}

	pts, err := resolve(instruments)
	if err != nil {
		return nil, err
	}
	fitted := make([]point, 0, len(pts))
	for _, p := range pts {
		if p.inst.Weight > 0 {
			fitted = append(fitted, p)
		}
	}
	if len(fitted) == 0 {
		return nil, fmt.Errorf("bootstrap: no instruments with positive weight")
	}
	for i := 1; i < len(fitted); i++ {
		if fitted[i].years == fitted[i-1].years {
			return nil, fmt.Errorf("bootstrap: duplicate fitted maturity %s", fitted[i].inst.Tenor)
		}
	}

	var rates []float64
	switch s.Method {
	case MethodSequential:
		rates, err = solveSequential(fitted, s)
	case MethodGlobal:
		rates, err = solveGlobal(fitted, s)
	default:
		return nil, fmt.Errorf("bootstrap: unknown method %q", s.Method)
	}
	if err != nil {
		return nil, err
	}

	nodes := make([]curve.Node, len(fitted))
	for i, p := range fitted {
		nodes[i] = curve.Node{Tenor: p.inst.Tenor, Years: p.years, Rate: rates[i]}
	}

	quality := measureQuality(pts, nodes, s)
	out, err := curve.New(s.Name, s.Type, s.AsOf, s.Currency, nodes, curve.Config{
		DayCount:      s.DayCount,
		Interpolation: s.Interpolation,
		Extrapolation: s.Extrapolation,
		Index:         s.Index,
		IndexTenor:    s.IndexTenor,
		Instruments:   sortedInstruments(pts),
		Quality:       &quality,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return out, nil
}

// Update re-bootstraps from scratch using the existing curve as the initial
// guess. It is deliberately not an incremental patch: repeated partial
// updates drift.
func Update(existing *curve.RateCurve, instruments []curve.Instrument, settings Settings) (*curve.RateCurve, error) {
	if existing == nil {
		return nil, fmt.Errorf("bootstrap: update of nil curve")
	}
	s := settings
	if s.Name == "" {
		s.Name = existing.Name()
	}
	if s.Type == "" {
		s.Type = existing.Type()
	}
	if s.AsOf.IsZero() {
		s.AsOf = existing.AsOf()
	}
	if s.Currency == "" {
		s.Currency = existing.Currency()
	}
	if s.Index == "" {
		s.Index = existing.Index()
	}
	if s.IndexTenor == "" {
		s.IndexTenor = existing.IndexTenor()
	}
	if s.Interpolation == "" {
		s.Interpolation = existing.Interpolation()
	}
	if s.Extrapolation == "" {
		s.Extrapolation = existing.Extrapolation()
	}
	if s.DayCount == "" {
		s.DayCount = existing.DayCount()
	}

	pts, err := resolve(instruments)
	if err != nil {
		return nil, err
	}
	guess := make([]float64, 0, len(pts))
	for _, p := range pts {
		if p.inst.Weight <= 0 {
			continue
		}
		r, err := existing.InterpolateRate(p.years)
		if err != nil {
			// Outside the old curve's domain: seed from the quote.
			r = p.inst.Rate
		}
		guess = append(guess, r)
	}
	s.InitialGuess = guess
	return Bootstrap(instruments, s)
}

func resolve(instruments []curve.Instrument) ([]point, error) {
	pts := make([]point, len(instruments))
	for i, inst := range instruments {
		if inst.Weight < 0 {
			return nil, fmt.Errorf("bootstrap: negative weight %.6g on %s", inst.Weight, inst.Tenor)
		}
		y, err := tenor.ToYears(inst.Tenor)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		if y <= 0 {
			return nil, fmt.Errorf("bootstrap: non-positive maturity %s", inst.Tenor)
		}
		pts[i] = point{inst: inst, years: y, order: i}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].years < pts[j].years })
	return pts, nil
}

func sortedInstruments(pts []point) []curve.Instrument {
	out := make([]curve.Instrument, len(pts))
	for i, p := range pts {
		out[i] = p.inst
	}
	return out
}
