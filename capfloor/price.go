package capfloor

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/daycount"
	"github.com/meenmo/curvelib/schedule"
	"github.com/meenmo/curvelib/tenor"
	"github.com/meenmo/curvelib/valuation"
)

// CapFloor is a multi-period cap or floor on a floating index.
type CapFloor struct {
	Kind     Kind
	Notional float64
	Strike   float64
	// Index names the reference rate; it must resolve in the curve set.
	Index    string
	DayCount daycount.Convention
	Periods  []schedule.AccrualPeriod
}

// CapletResult is one priced period.
type CapletResult struct {
	Start   time.Time
	End     time.Time
	PayDate time.Time
	Forward float64
	Vol     float64
	Price   float64
	Delta   float64
	Gamma   float64
	Vega    float64
}

// PricingResult aggregates the caplet strip. Price is exactly the sum of the
// per-period caplet prices: each caplet's payoff depends only on its own
// period's forward, so the decomposition is additive.
type PricingResult struct {
	Price float64
	Delta float64
	Gamma float64
	Vega  float64

	Caplets []CapletResult
}

// Price decomposes the cap/floor into caplets/floorlets, prices each against
// the surface, and aggregates price and Greeks.
func Price(cf CapFloor, set *curve.Set, surface *Surface, settings Settings, asOf time.Time) (PricingResult, error) {
	if err := settings.validate(); err != nil {
		return PricingResult{}, err
	}
	if surface == nil {
		return PricingResult{}, fmt.Errorf("capfloor: nil volatility surface")
	}
	if len(cf.Periods) == 0 {
		return PricingResult{}, fmt.Errorf("capfloor: no accrual periods")
	}

	idxCurve, err := set.ForwardCurve(cf.Index)
	if err != nil {
		return PricingResult{}, err
	}
	disc := set.Discount()

	// Tenor coordinate on the vol surface: the index's own tenor when the
	// curve declares one, otherwise the accrual length.
	indexTenorYears := 0.0
	if it := idxCurve.IndexTenor(); it != "" {
		y, err := tenor.ToYears(it)
		if err != nil {
			return PricingResult{}, fmt.Errorf("capfloor: %w", err)
		}
		indexTenorYears = y
	}

	var res PricingResult
	for _, p := range cf.Periods {
		if !p.End.After(asOf) {
			continue
		}

		fwd, err := valuation.ForwardRate(idxCurve, p.Start, p.End, cf.DayCount)
		if err != nil {
			return PricingResult{}, err
		}
		strike := cf.Strike

		intrinsicOnly := false
		if settings.Model == ModelBlack76 && (fwd <= 0 || strike <= 0) {
			switch settings.NegativeRates {
			case NegativeRateFloor:
				if fwd < 0 {
					fwd = 0
				}
				intrinsicOnly = true
			case NegativeRateShift:
				fwd += settings.Shift
				strike += settings.Shift
				if fwd <= 0 || strike <= 0 {
					return PricingResult{}, &NegativeRateError{Forward: fwd - settings.Shift, Start: p.Start}
				}
			default:
				return PricingResult{}, &NegativeRateError{Forward: fwd, Start: p.Start}
			}
		}

		df, err := disc.DiscountFactor(p.PayDate)
		if err != nil {
			return PricingResult{}, err
		}

		tn := indexTenorYears
		alpha := cf.DayCount.YearFraction(p.Start, p.End)
		if tn == 0 {
			tn = alpha
		}
		vol := surface.Vol(disc.YearsTo(p.End), tn, cf.Strike)

		caplet := Caplet{
			Kind:     cf.Kind,
			Forward:  fwd,
			Strike:   strike,
			Expiry:   disc.YearsTo(p.Start),
			Accrual:  alpha,
			Discount: df,
			Notional: cf.Notional,
		}
		if intrinsicOnly {
			caplet.Expiry = 0
		}

		price, delta, gamma, vega := caplet.greeks(settings.Model, vol)
		res.Price += price
		res.Delta += delta
		res.Gamma += gamma
		res.Vega += vega
		res.Caplets = append(res.Caplets, CapletResult{
			Start:   p.Start,
			End:     p.End,
			PayDate: p.PayDate,
			Forward: fwd,
			Vol:     vol,
			Price:   price,
			Delta:   delta,
			Gamma:   gamma,
			Vega:    vega,
		})
	}

	if len(res.Caplets) == 0 {
		return PricingResult{}, fmt.Errorf("capfloor: all periods historical as of %s", asOf.Format("2006-01-02"))
	}
	return res, nil
}
