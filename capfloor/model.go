package capfloor

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/curvelib/solver"
)

// Model selects the caplet pricing model. The choice is always explicit in
// settings, never inferred: negative or near-zero forwards make the
// lognormal model ill-defined, and only the caller knows the market regime.
type Model string

const (
	// ModelBlack76 is the lognormal forward model.
	ModelBlack76 Model = "black76"
	// ModelNormal is the Bachelier model; well defined for negative rates.
	ModelNormal Model = "normal"
)

// NegativeRateHandling governs what happens when a projected forward is
// negative (or a strike non-positive) under the lognormal model.
type NegativeRateHandling string

const (
	// NegativeRateReject fails with NegativeRateError.
	NegativeRateReject NegativeRateHandling = "reject"
	// NegativeRateFloor floors the forward at zero and prices the caplet at
	// its discounted intrinsic value.
	NegativeRateFloor NegativeRateHandling = "floor"
	// NegativeRateShift displaces forward and strike by Settings.Shift
	// before pricing (shifted lognormal).
	NegativeRateShift NegativeRateHandling = "shift"
)

// NegativeRateError reports a negative forward under a rejecting policy.
type NegativeRateError struct {
	Forward float64
	Start   time.Time
}

func (e *NegativeRateError) Error() string {
	return fmt.Sprintf("capfloor: negative forward %.6f for period starting %s",
		e.Forward, e.Start.Format("2006-01-02"))
}

// Settings configure cap/floor pricing.
type Settings struct {
	Model         Model
	NegativeRates NegativeRateHandling
	// Shift is the displacement used by NegativeRateShift, e.g. 0.03 for a
	// 3% shifted lognormal.
	Shift float64
}

func (s Settings) validate() error {
	switch s.Model {
	case ModelBlack76, ModelNormal:
	default:
		return fmt.Errorf("capfloor: model must be set explicitly, got %q", string(s.Model))
	}
	if s.NegativeRates == NegativeRateShift && s.Shift <= 0 {
		return fmt.Errorf("capfloor: shift handling requires a positive shift")
	}
	return nil
}

// Kind distinguishes caps from floors.
type Kind string

const (
	KindCap   Kind = "cap"
	KindFloor Kind = "floor"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Caplet is a single-period option on a forward rate: the building block a
// cap or floor decomposes into. Discount is the discount factor to the
// payment date and Expiry the year fraction to the rate fixing.
type Caplet struct {
	Kind     Kind
	Forward  float64
	Strike   float64
	Expiry   float64
	Accrual  float64
	Discount float64
	Notional float64
}

// scale is the caplet's notional-accrual-discount multiplier.
func (c Caplet) scale() float64 { return c.Notional * c.Accrual * c.Discount }

// intrinsic is the discounted payoff with no optionality left.
func (c Caplet) intrinsic() float64 {
	if c.Kind == KindFloor {
		return c.scale() * math.Max(c.Strike-c.Forward, 0)
	}
	return c.scale() * math.Max(c.Forward-c.Strike, 0)
}

// Price values the caplet at the given volatility.
func (c Caplet) Price(model Model, vol float64) float64 {
	p, _, _, _ := c.greeks(model, vol)
	return p
}

// greeks returns price, delta (dP/dF), gamma and vega.
func (c Caplet) greeks(model Model, vol float64) (price, delta, gamma, vega float64) {
	if c.Expiry <= 0 || vol <= 0 {
		price = c.intrinsic()
		if price > 0 {
			delta = c.scale()
			if c.Kind == KindFloor {
				delta = -c.scale()
			}
		}
		return price, delta, 0, 0
	}

	sqrtT := math.Sqrt(c.Expiry)
	sd := vol * sqrtT
	k := c.scale()

	if model == ModelNormal {
		d := (c.Forward - c.Strike) / sd
		pdf := stdNormal.Prob(d)
		if c.Kind == KindFloor {
			price = k * ((c.Strike-c.Forward)*stdNormal.CDF(-d) + sd*pdf)
			delta = -k * stdNormal.CDF(-d)
		} else {
			price = k * ((c.Forward-c.Strike)*stdNormal.CDF(d) + sd*pdf)
			delta = k * stdNormal.CDF(d)
		}
		gamma = k * pdf / sd
		vega = k * sqrtT * pdf
		return price, delta, gamma, vega
	}

	// Black-76. Callers guarantee positive forward and strike.
	d1 := (math.Log(c.Forward/c.Strike) + 0.5*sd*sd) / sd
	d2 := d1 - sd
	pdf := stdNormal.Prob(d1)
	if c.Kind == KindFloor {
		price = k * (c.Strike*stdNormal.CDF(-d2) - c.Forward*stdNormal.CDF(-d1))
		delta = -k * stdNormal.CDF(-d1)
	} else {
		price = k * (c.Forward*stdNormal.CDF(d1) - c.Strike*stdNormal.CDF(d2))
		delta = k * stdNormal.CDF(d1)
	}
	gamma = k * pdf / (c.Forward * sd)
	vega = k * c.Forward * pdf * sqrtT
	return price, delta, gamma, vega
}

// ImpliedVol recovers the volatility at which the caplet prices to target.
// It shares the Newton-plus-bisection primitive used by the bootstrapper and
// the yield solver.
func ImpliedVol(c Caplet, model Model, target float64) (float64, error) {
	if target < c.intrinsic() {
		return 0, fmt.Errorf("capfloor: target price %.6g below intrinsic %.6g", target, c.intrinsic())
	}
	f := func(vol float64) (float64, float64) {
		p, _, _, vega := c.greeks(model, vol)
		return p - target, vega
	}
	// Tolerance tracks the price level so large-notional caplets converge.
	return solver.Solve("capfloor: implied vol", f, 0.2, 1e-6, 5.0, solver.Settings{
		Tolerance:     1e-10 * (1.0 + math.Abs(target)),
		MaxIterations: 100,
	})
}
