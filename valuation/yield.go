package valuation

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/daycount"
	"github.com/meenmo/curvelib/solver"
)

// YieldToMaturity solves for the flat annually-compounded yield at which the
// cashflow strip prices to marketPrice.
func YieldToMaturity(cashflows []ProjectedCashflow, marketPrice float64, asOf time.Time, dc daycount.Convention, guess float64) (float64, error) {
	if len(cashflows) == 0 {
		return 0, fmt.Errorf("valuation: no cashflows for yield")
	}
	if guess == 0 {
		guess = 0.05
	}

	f := func(y float64) (float64, float64) {
		var price, deriv float64
		for _, cf := range cashflows {
			t := dc.YearFraction(asOf, cf.PayDate)
			price += cf.Amount / math.Pow(1.0+y, t)
			deriv += -t * cf.Amount / math.Pow(1.0+y, t+1)
		}
		return price - marketPrice, deriv
	}
	// Price-level-relative tolerance; see internalRate.
	return solver.Solve("valuation: ytm", f, guess, -0.9, 10.0, solver.Settings{
		Tolerance:     1e-9 * (1.0 + math.Abs(marketPrice)),
		MaxIterations: 100,
	})
}

// DurationConvexity returns modified duration and convexity of a strip at
// yield y, by central finite difference with a one-basis-point shift.
func DurationConvexity(cashflows []ProjectedCashflow, y float64, asOf time.Time, dc daycount.Convention) (duration, convexity float64, err error) {
	price := priceAtYield(cashflows, y, asOf, dc)
	if price == 0 {
		return 0, 0, fmt.Errorf("valuation: zero price at yield %.6f", y)
	}
	const dy = 1e-4
	up := priceAtYield(cashflows, y+dy, asOf, dc)
	down := priceAtYield(cashflows, y-dy, asOf, dc)

	duration = -(up - down) / (2 * dy * price)
	convexity = (up + down - 2*price) / (dy * dy * price)
	return duration, convexity, nil
}

func priceAtYield(cashflows []ProjectedCashflow, y float64, asOf time.Time, dc daycount.Convention) float64 {
	var price float64
	for _, cf := range cashflows {
		t := dc.YearFraction(asOf, cf.PayDate)
		price += cf.Amount / math.Pow(1.0+y, t)
	}
	return price
}

// ZSpread solves for the constant spread over the discount curve's zero
// rates at which the strip prices to marketPrice.
func ZSpread(cashflows []ProjectedCashflow, discount *curve.RateCurve, marketPrice float64, asOf time.Time) (float64, error) {
	if len(cashflows) == 0 {
		return 0, fmt.Errorf("valuation: no cashflows for z-spread")
	}
	if discount == nil {
		return 0, fmt.Errorf("valuation: nil discount curve")
	}

	price := func(z float64) (float64, error) {
		var pv float64
		for _, cf := range cashflows {
			t := discount.YearsTo(cf.PayDate)
			if t <= 0 {
				continue
			}
			r, err := discount.InterpolateRate(t)
			if err != nil {
				return 0, err
			}
			pv += cf.Amount * math.Exp(-(r+z)*t)
		}
		return pv, nil
	}

	// Domain errors surface immediately rather than as non-convergence.
	if _, err := price(0); err != nil {
		return 0, err
	}

	f := func(z float64) (float64, float64) {
		const h = 1e-7
		v, _ := price(z)
		vh, _ := price(z + h)
		return v - marketPrice, (vh - v) / h
	}
	return solver.Solve("valuation: z-spread", f, 0.01, -0.5, 2.0, solver.Settings{
		Tolerance:     1e-9 * (1.0 + math.Abs(marketPrice)),
		MaxIterations: 100,
	})
}
