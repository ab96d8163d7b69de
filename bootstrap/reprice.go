package bootstrap

import (
	"math"

	"github.com/meenmo/curvelib/curve"
)

// fraAccrualYears is the accrual span assumed for FRA and futures quotes:
// the three months ending at the quoted maturity.
const fraAccrualYears = 0.25

// eval is a cheap candidate-curve evaluator used inside calibration loops.
// It interpolates on the configured method but always extrapolates flat, so
// par conditions whose schedule reaches below the first node (short deposit
// legs, FRA starts) stay well defined mid-solve. The finished curve gets the
// caller's extrapolation rule instead.
type eval struct {
	ip *curve.Interpolator
}

func newEval(years, rates []float64, method curve.Interpolation) (eval, error) {
	ip, err := curve.NewInterpolator("bootstrap", method, curve.ExtrapFlat, years, rates)
	if err != nil {
		return eval{}, err
	}
	return eval{ip: ip}, nil
}

func (e eval) df(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	r, err := e.ip.Rate(t)
	if err != nil {
		// Flat extrapolation leaves no failing domain.
		panic(err)
	}
	return math.Exp(-r * t)
}

// impliedRate re-prices an instrument against a candidate curve, returning
// the market-convention rate the curve implies for it. Bootstrapping drives
// this to the observed quote; quality metrics reuse it afterwards.
func impliedRate(kind curve.InstrumentKind, maturity float64, e eval) float64 {
	switch kind {
	case curve.KindFRA, curve.KindFuture:
		// Futures are treated as FRAs; convexity adjustment is the quote
		// supplier's concern.
		start := maturity - fraAccrualYears
		if start < 0 {
			start = 0
		}
		alpha := maturity - start
		if alpha == 0 {
			return 0
		}
		return (e.df(start)/e.df(maturity) - 1.0) / alpha
	case curve.KindSwap:
		return parSwapRate(maturity, e)
	default: // deposit
		return (1.0/e.df(maturity) - 1.0) / maturity
	}
}

// parSwapRate prices a par swap with annual fixed coupons and final coupon
// at maturity: par = (1 - DF(T)) / sum(alpha_i * DF(t_i)).
func parSwapRate(maturity float64, e eval) float64 {
	annuity := 0.0
	prev := 0.0
	for t := 1.0; t < maturity; t++ {
		annuity += (t - prev) * e.df(t)
		prev = t
	}
	annuity += (maturity - prev) * e.df(maturity)
	if annuity == 0 {
		return 0
	}
	return (1.0 - e.df(maturity)) / annuity
}

// measureQuality re-prices every calibration instrument, weight-0 ones
// included, against the fitted nodes.
func measureQuality(pts []point, nodes []curve.Node, s Settings) curve.QualityMetrics {
	years := make([]float64, len(nodes))
	rates := make([]float64, len(nodes))
	for i, n := range nodes {
		years[i] = n.Years
		rates[i] = n.Rate
	}
	e, err := newEval(years, rates, s.Interpolation)
	if err != nil {
		// Nodes came from a successful solve over the same grid.
		panic(err)
	}

	var q curve.QualityMetrics
	sum := 0.0
	for _, p := range pts {
		diff := math.Abs(impliedRate(p.inst.Kind, p.years, e) - p.inst.Rate)
		sum += diff
		if diff > q.MaxError {
			q.MaxError = diff
		}
	}
	q.AvgError = sum / float64(len(pts))

	if len(rates) > 2 {
		ss := 0.0
		for j := 1; j < len(rates)-1; j++ {
			d2 := rates[j-1] - 2*rates[j] + rates[j+1]
			ss += d2 * d2
		}
		q.Smoothness = math.Sqrt(ss / float64(len(rates)-2))
	}
	return q
}
