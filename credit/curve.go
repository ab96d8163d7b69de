// Package credit bootstraps survival-probability curves from credit
// instrument quotes and derives default-leg cashflows and spread
// sensitivities. Discounting always comes from an externally supplied
// risk-free curve; recovery rates are external inputs and never derived
// here.
package credit

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/tenor"
)

// Instrument is one credit calibration point: a par spread quote (decimal)
// at a maturity tenor.
type Instrument struct {
	Tenor  string
	Spread float64
}

// Settings tune the hazard bootstrap.
type Settings struct {
	Tolerance     float64
	MaxIterations int
	// PremiumFrequencyYears is the premium payment grid step; defaults to
	// quarterly (0.25).
	PremiumFrequencyYears float64
}

func (s Settings) withDefaults() Settings {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-12
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 100
	}
	if s.PremiumFrequencyYears == 0 {
		s.PremiumFrequencyYears = 0.25
	}
	return s
}

// SurvivalCurve is a piecewise-constant hazard-rate curve. hazard[k] applies
// on (ts[k-1], ts[k]]; the last hazard extends flat beyond the final node.
type SurvivalCurve struct {
	name    string
	asOf    time.Time
	ts      []float64
	hazards []float64
}

func (c *SurvivalCurve) Name() string    { return c.name }
func (c *SurvivalCurve) AsOf() time.Time { return c.asOf }

// Nodes returns the hazard segment boundaries in years.
func (c *SurvivalCurve) Nodes() []float64 { return append([]float64(nil), c.ts...) }

// HazardRate returns the instantaneous default intensity at t.
func (c *SurvivalCurve) HazardRate(t float64) float64 {
	if t <= 0 {
		return c.hazards[0]
	}
	k := sort.SearchFloat64s(c.ts, t)
	if k >= len(c.hazards) {
		return c.hazards[len(c.hazards)-1]
	}
	return c.hazards[k]
}

// SurvivalProbability returns S(t) = exp(-integral of the hazard to t).
// S(0) = 1 and S is non-increasing in t.
func (c *SurvivalCurve) SurvivalProbability(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	integral := 0.0
	prev := 0.0
	for k, node := range c.ts {
		if t <= node {
			integral += c.hazards[k] * (t - prev)
			return math.Exp(-integral)
		}
		integral += c.hazards[k] * (node - prev)
		prev = node
	}
	integral += c.hazards[len(c.hazards)-1] * (t - prev)
	return math.Exp(-integral)
}

// BuildCreditCurve bootstraps hazard rates sequentially: one hazard segment
// per quoted maturity, each solved so the instrument's premium leg matches
// its protection leg under the risk-free discount curve.
func BuildCreditCurve(name string, instruments []Instrument, riskFree *curve.RateCurve, recovery float64, settings Settings) (*SurvivalCurve, error) {
	if riskFree == nil {
		return nil, fmt.Errorf("credit: nil risk-free curve")
	}
	if recovery < 0 || recovery >= 1 {
		return nil, fmt.Errorf("credit: recovery rate %.4f outside [0, 1)", recovery)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("credit: no instruments")
	}
	s := settings.withDefaults()

	type pt struct {
		inst  Instrument
		years float64
	}
	pts := make([]pt, len(instruments))
	for i, inst := range instruments {
		y, err := tenor.ToYears(inst.Tenor)
		if err != nil {
			return nil, fmt.Errorf("credit: %w", err)
		}
		if y <= 0 {
			return nil, fmt.Errorf("credit: non-positive maturity %s", inst.Tenor)
		}
		pts[i] = pt{inst: inst, years: y}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].years < pts[j].years })

	out := &SurvivalCurve{
		name:    name,
		asOf:    riskFree.AsOf(),
		ts:      make([]float64, 0, len(pts)),
		hazards: make([]float64, 0, len(pts)),
	}

	sset := solver.Settings{Tolerance: s.Tolerance, MaxIterations: s.MaxIterations}
	for _, p := range pts {
		out.ts = append(out.ts, p.years)
		out.hazards = append(out.hazards, 0)
		k := len(out.hazards) - 1

		// Leg valuation failures, typically a risk-free curve that cannot
		// cover the quoted maturity, propagate as themselves rather than
		// dressed up as solver non-convergence.
		var evalErr error
		residual := func(h float64) float64 {
			out.hazards[k] = h
			prem, prot, err := parLegs(out, riskFree, recovery, p.inst.Spread, p.years, s.PremiumFrequencyYears)
			if err != nil {
				evalErr = err
				return math.NaN()
			}
			return prem - prot
		}
		f := func(h float64) (float64, float64) {
			const step = 1e-7
			v := residual(h)
			return v, (residual(h+step) - v) / step
		}

		guess := p.inst.Spread / (1.0 - recovery) // credit triangle
		h, err := solver.Solve("credit "+p.inst.Tenor, f, guess, 0, 10.0, sset)
		if evalErr != nil {
			return nil, fmt.Errorf("credit: instrument %s: %w", p.inst.Tenor, evalErr)
		}
		if err != nil {
			return nil, fmt.Errorf("credit: instrument %s: %w", p.inst.Tenor, err)
		}
		if h < 0 {
			return nil, fmt.Errorf("credit: instrument %s implies negative hazard %.6g", p.inst.Tenor, h)
		}
		out.hazards[k] = h
	}

	return out, nil
}

// parLegs values the premium and protection legs of a unit-notional credit
// instrument maturing at T.
func parLegs(sc *SurvivalCurve, riskFree *curve.RateCurve, recovery, spread, maturity, freq float64) (premium, protection float64, err error) {
	prevT := 0.0
	prevS := 1.0
	for t := freq; ; t += freq {
		if t > maturity {
			t = maturity
		}
		df, err := riskFree.DiscountFactorAt(t)
		if err != nil {
			return 0, 0, err
		}
		surv := sc.SurvivalProbability(t)

		premium += spread * (t - prevT) * df * surv
		protection += (1.0 - recovery) * df * (prevS - surv)

		if t >= maturity {
			break
		}
		prevT = t
		prevS = surv
	}
	return premium, protection, nil
}
