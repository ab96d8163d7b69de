// Package risk computes bump-and-revalue sensitivities: DV01 and the
// cross-curve delta matrix. All sensitivities flow through one
// finite-difference helper so bump sizing and sign conventions cannot drift
// apart between metrics.
package risk

import (
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/valuation"
)

// DefaultBumpSize is one basis point.
const DefaultBumpSize = 1e-4

// perturbation transforms a curve set into its bumped variant. The original
// set is never touched; curves are immutable and bumps produce new ones.
type perturbation func(*curve.Set) *curve.Set

// revalue projects and discounts the instrument against a set and returns
// the total PV.
func revalue(instr valuation.Instrument, set *curve.Set, asOf time.Time) (float64, error) {
	res, err := valuation.Value(instr, set, asOf)
	if err != nil {
		return 0, err
	}
	return res.TotalPV, nil
}

// pvDelta reports PV(perturbed set) minus basePV.
func pvDelta(instr valuation.Instrument, set *curve.Set, asOf time.Time, basePV float64, p perturbation) (float64, error) {
	bumped, err := revalue(instr, p(set), asOf)
	if err != nil {
		return 0, err
	}
	return bumped - basePV, nil
}

func bumpDiscount(delta float64) perturbation {
	return func(s *curve.Set) *curve.Set {
		return s.WithDiscount(s.Discount().ParallelBump(delta))
	}
}

func bumpAllForwards(delta float64) perturbation {
	return func(s *curve.Set) *curve.Set {
		out := s
		for _, key := range s.ForwardKeys() {
			c, _ := s.ForwardCurve(key)
			out = out.WithForward(key, c.ParallelBump(delta))
		}
		return out
	}
}

func bumpForwardNode(key string, node int, delta float64) perturbation {
	return func(s *curve.Set) *curve.Set {
		c, err := s.ForwardCurve(key)
		if err != nil {
			// Keys come from the set itself.
			panic(err)
		}
		return s.WithForward(key, c.BumpNode(node, delta))
	}
}

func chain(ps ...perturbation) perturbation {
	return func(s *curve.Set) *curve.Set {
		for _, p := range ps {
			s = p(s)
		}
		return s
	}
}
