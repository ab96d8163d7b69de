package credit

import (
	"fmt"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/tenor"
)

// ExpectedLossFlow is one period of the default leg: the discounted expected
// loss from defaults inside (Start, End].
type ExpectedLossFlow struct {
	Start        float64
	End          float64
	ExpectedLoss float64 // (1-R) * notional * (S(start) - S(end))
	Discount     float64
	PV           float64
}

// DefaultLeg produces the expected-loss cashflow leg of a credit exposure
// out to maturity (years), on the curve's premium grid frequency.
func DefaultLeg(sc *SurvivalCurve, riskFree *curve.RateCurve, recovery, notional, maturity, freq float64) ([]ExpectedLossFlow, error) {
	if sc == nil || riskFree == nil {
		return nil, fmt.Errorf("credit: nil curve")
	}
	if freq <= 0 {
		freq = 0.25
	}
	if maturity <= 0 {
		return nil, fmt.Errorf("credit: non-positive maturity %.4f", maturity)
	}

	flows := make([]ExpectedLossFlow, 0, int(maturity/freq)+1)
	prevT := 0.0
	prevS := 1.0
	for t := freq; ; t += freq {
		if t > maturity {
			t = maturity
		}
		df, err := riskFree.DiscountFactorAt(t)
		if err != nil {
			return nil, err
		}
		surv := sc.SurvivalProbability(t)
		el := (1.0 - recovery) * notional * (prevS - surv)
		flows = append(flows, ExpectedLossFlow{
			Start:        prevT,
			End:          t,
			ExpectedLoss: el,
			Discount:     df,
			PV:           el * df,
		})
		if t >= maturity {
			break
		}
		prevT = t
		prevS = surv
	}
	return flows, nil
}

// Position is a credit-risky exposure marked against a survival curve: a
// protection position with a contractual premium spread.
type Position struct {
	Notional float64
	// Spread is the contractual premium in decimal.
	Spread float64
	// Maturity is the position's remaining maturity tenor.
	Maturity string
	// Protection is true for a long-protection position; false flips the
	// sign (premium receiver).
	Protection bool
}

// MTM marks the position: protection leg PV minus premium leg PV for a
// protection buyer.
func MTM(pos Position, sc *SurvivalCurve, riskFree *curve.RateCurve, recovery float64, settings Settings) (float64, error) {
	s := settings.withDefaults()
	maturity, err := tenor.ToYears(pos.Maturity)
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}
	premium, protection, err := parLegs(sc, riskFree, recovery, pos.Spread, maturity, s.PremiumFrequencyYears)
	if err != nil {
		return 0, err
	}
	mtm := pos.Notional * (protection - premium)
	if !pos.Protection {
		mtm = -mtm
	}
	return mtm, nil
}

// CS01 reports the MTM change for a one-basis-point decrease in every quoted
// spread, matching the rates-down convention of DV01. The curve is re-
// bootstrapped under the bumped quotes; hazard segments are not patched in
// place.
func CS01(pos Position, instruments []Instrument, riskFree *curve.RateCurve, recovery float64, settings Settings) (float64, error) {
	base, err := BuildCreditCurve("cs01-base", instruments, riskFree, recovery, settings)
	if err != nil {
		return 0, err
	}
	baseMTM, err := MTM(pos, base, riskFree, recovery, settings)
	if err != nil {
		return 0, err
	}

	bumped := make([]Instrument, len(instruments))
	copy(bumped, instruments)
	for i := range bumped {
		bumped[i].Spread -= 1e-4
		if bumped[i].Spread <= 0 {
			return 0, fmt.Errorf("credit: bumped spread non-positive for %s", bumped[i].Tenor)
		}
	}
	bumpedCurve, err := BuildCreditCurve("cs01-bumped", bumped, riskFree, recovery, settings)
	if err != nil {
		return 0, err
	}
	bumpedMTM, err := MTM(pos, bumpedCurve, riskFree, recovery, settings)
	if err != nil {
		return 0, err
	}
	return bumpedMTM - baseMTM, nil
}

// JumpToDefault is the immediate-default P&L of the position: the
// protection payout (1-R)*N realized now, less the mark that disappears.
func JumpToDefault(pos Position, sc *SurvivalCurve, riskFree *curve.RateCurve, recovery float64, settings Settings) (float64, error) {
	mtm, err := MTM(pos, sc, riskFree, recovery, settings)
	if err != nil {
		return 0, err
	}
	payout := (1.0 - recovery) * pos.Notional
	if !pos.Protection {
		payout = -payout
	}
	return payout - mtm, nil
}
