package valuation

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/daycount"
)

// ForwardRate computes the annualized simple forward rate implied by an
// index curve over [start, end].
//
// The zero rates at the period boundaries are interpolated on the curve's
// own day count; the final annualization uses the instrument's day count.
// The two legitimately differ and must not be conflated: a EUR curve runs on
// ACT/365F while the coupon accrues ACT/360.
//
// The forward is taken from compounded growth factors,
//
//	f = ((1+r2)^t2 / (1+r1)^t1)^(1/alpha) - 1
//
// which makes a flat curve return its own rate for any period. This reads
// the zero rates as annually compounded, while discounting reads the same
// rates as continuous exp(-r*t); see curve.Node for the convention.
func ForwardRate(indexCurve *curve.RateCurve, start, end time.Time, dc daycount.Convention) (float64, error) {
	if indexCurve == nil {
		return 0, fmt.Errorf("valuation: nil index curve")
	}
	if !end.After(start) {
		return 0, fmt.Errorf("valuation: forward period end %s not after start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	alpha := dc.YearFraction(start, end)
	if alpha <= 0 {
		return 0, fmt.Errorf("valuation: non-positive accrual fraction over [%s, %s]",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	t1 := indexCurve.YearsTo(start)
	t2 := indexCurve.YearsTo(end)

	growth1 := 1.0
	if t1 > 0 {
		r1, err := indexCurve.InterpolateRate(t1)
		if err != nil {
			return 0, err
		}
		growth1 = math.Pow(1.0+r1, t1)
	}
	r2, err := indexCurve.InterpolateRate(t2)
	if err != nil {
		return 0, err
	}
	growth2 := math.Pow(1.0+r2, t2)

	return math.Pow(growth2/growth1, 1.0/alpha) - 1.0, nil
}
