package valuation

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/curve"
)

// Component tags a projected cashflow for the PV breakdown.
type Component string

const (
	ComponentFixed     Component = "fixed"
	ComponentFloating  Component = "floating"
	ComponentPrincipal Component = "principal"
)

// ProjectedCashflow is one coupon or principal event. Instances are created
// fresh per valuation call and never mutated after being returned.
type ProjectedCashflow struct {
	AccrualStart time.Time
	AccrualEnd   time.Time
	PayDate      time.Time

	// DayCountFraction is the accrual fraction on the instrument's day
	// count; zero for principal flows.
	DayCountFraction float64
	// Rate is the all-in rate applied to the period: the fixed coupon, or
	// the projected forward plus spread, after any embedded cap/floor.
	Rate float64
	// Projected is true when Rate came from a forward curve.
	Projected bool
	Spread    float64
	Amount    float64
	Component Component
}

// ProjectCashflows projects the coupon and principal cashflows of an
// instrument against a curve set.
//
// Periods whose accrual end falls on or before asOf are historical and are
// excluded; it is the caller's job to supply realized fixings for those.
// A floating instrument whose reference rate is missing from the set fails
// with UnresolvedIndexError.
func ProjectCashflows(instr Instrument, set *curve.Set, asOf time.Time) ([]ProjectedCashflow, error) {
	if instr == nil {
		return nil, fmt.Errorf("valuation: nil instrument")
	}
	if set == nil {
		return nil, fmt.Errorf("valuation: nil curve set")
	}
	periods := instr.Schedule()
	if len(periods) == 0 {
		return nil, fmt.Errorf("valuation: instrument has no accrual periods")
	}

	var indexCurve *curve.RateCurve
	floating := instr.ReferenceRate() != ""
	if floating {
		c, err := set.ForwardCurve(instr.ReferenceRate())
		if err != nil {
			return nil, err
		}
		indexCurve = c
	}

	var bounds *RateBounds
	if rb, ok := instr.(RateBounded); ok {
		bounds = rb.Bounds()
	}

	dc := instr.Convention()
	flows := make([]ProjectedCashflow, 0, len(periods)+1)
	for _, p := range periods {
		if !p.End.After(asOf) {
			continue
		}

		var rate float64
		if floating {
			fwd, err := ForwardRate(indexCurve, p.Start, p.End, dc)
			if err != nil {
				return nil, err
			}
			rate = fwd + instr.Spread()
		} else {
			rate = instr.FixedRate() + instr.Spread()
		}
		rate = bounds.Apply(rate, p.Start, p.End)

		dcf := dc.YearFraction(p.Start, p.End)
		component := ComponentFixed
		if floating {
			component = ComponentFloating
		}
		flows = append(flows, ProjectedCashflow{
			AccrualStart:     p.Start,
			AccrualEnd:       p.End,
			PayDate:          p.PayDate,
			DayCountFraction: dcf,
			Rate:             rate,
			Projected:        floating,
			Spread:           instr.Spread(),
			Amount:           instr.Notional() * rate * dcf,
			Component:        component,
		})
	}

	// Bullet principal at final maturity.
	last := periods[len(periods)-1]
	if last.End.After(asOf) {
		flows = append(flows, ProjectedCashflow{
			AccrualStart: last.End,
			AccrualEnd:   last.End,
			PayDate:      last.PayDate,
			Amount:       instr.Notional(),
			Component:    ComponentPrincipal,
		})
	}

	return flows, nil
}
