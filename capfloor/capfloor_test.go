package capfloor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/capfloor"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/daycount"
	"github.com/meenmo/curvelib/schedule"
)

var asOf = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func flatCurve(t *testing.T, name string, typ curve.Type, rate float64, cfg curve.Config) *curve.RateCurve {
	t.Helper()
	if cfg.DayCount == "" {
		cfg.DayCount = daycount.Act365F
	}
	if cfg.Extrapolation == "" {
		cfg.Extrapolation = curve.ExtrapFlat
	}
	nodes := []curve.Node{
		{Tenor: "3M", Years: 0.25, Rate: rate},
		{Tenor: "10Y", Years: 10.0, Rate: rate},
	}
	c, err := curve.New(name, typ, asOf, "EUR", nodes, cfg)
	require.NoError(t, err)
	return c
}

func flatSet(t *testing.T, discRate, fwdRate float64) *curve.Set {
	t.Helper()
	disc := flatCurve(t, "EUR-OIS", curve.TypeDiscount, discRate, curve.Config{})
	fwd := flatCurve(t, "EURIBOR3M", curve.TypeForward, fwdRate, curve.Config{IndexTenor: "3M"})
	set, err := curve.NewSet(disc, map[string]*curve.RateCurve{"EURIBOR3M": fwd}, nil)
	require.NoError(t, err)
	return set
}

func flatSurface(t *testing.T, vol float64) *capfloor.Surface {
	t.Helper()
	expiries := []float64{0.25, 5.0}
	tenors := []float64{0.25, 1.0}
	strikes := []float64{0.01, 0.10}
	vols := make([][][]float64, len(expiries))
	for i := range vols {
		vols[i] = make([][]float64, len(tenors))
		for j := range vols[i] {
			vols[i][j] = []float64{vol, vol}
		}
	}
	s, err := capfloor.NewSurface(expiries, tenors, strikes, vols)
	require.NoError(t, err)
	return s
}

func TestSurfaceLookup(t *testing.T) {
	t.Parallel()

	expiries := []float64{1.0, 2.0}
	tenors := []float64{0.25, 0.5}
	strikes := []float64{0.02, 0.04}
	vols := [][][]float64{
		{{0.20, 0.24}, {0.22, 0.26}},
		{{0.30, 0.34}, {0.32, 0.36}},
	}
	s, err := capfloor.NewSurface(expiries, tenors, strikes, vols)
	require.NoError(t, err)

	// Exact at grid points.
	require.InDelta(t, 0.20, s.Vol(1.0, 0.25, 0.02), 1e-15)
	require.InDelta(t, 0.36, s.Vol(2.0, 0.5, 0.04), 1e-15)

	// Midpoint on the strike axis.
	require.InDelta(t, 0.22, s.Vol(1.0, 0.25, 0.03), 1e-15)
	// Midpoint on the expiry axis.
	require.InDelta(t, 0.25, s.Vol(1.5, 0.25, 0.02), 1e-15)

	// Flat beyond the grid edges.
	require.InDelta(t, 0.20, s.Vol(0.5, 0.1, 0.001), 1e-15)
	require.InDelta(t, 0.36, s.Vol(9.0, 2.0, 0.50), 1e-15)
}

func TestSurfaceValidation(t *testing.T) {
	t.Parallel()

	_, err := capfloor.NewSurface([]float64{2, 1}, []float64{0.25}, []float64{0.02},
		[][][]float64{{{0.2}}, {{0.3}}})
	require.Error(t, err)

	// Shape mismatch.
	_, err = capfloor.NewSurface([]float64{1, 2}, []float64{0.25}, []float64{0.02},
		[][][]float64{{{0.2}}})
	require.Error(t, err)
}

func TestCapletPutCallParity(t *testing.T) {
	t.Parallel()

	base := capfloor.Caplet{
		Forward:  0.035,
		Strike:   0.03,
		Expiry:   1.0,
		Accrual:  0.25,
		Discount: 0.96,
		Notional: 1_000_000,
	}
	for _, model := range []capfloor.Model{capfloor.ModelBlack76, capfloor.ModelNormal} {
		cap := base
		cap.Kind = capfloor.KindCap
		floor := base
		floor.Kind = capfloor.KindFloor

		// cap - floor = discounted forward minus strike.
		want := base.Notional * base.Accrual * base.Discount * (base.Forward - base.Strike)
		got := cap.Price(model, 0.2) - floor.Price(model, 0.2)
		require.InDelta(t, want, got, 1e-6, string(model))

		require.Greater(t, cap.Price(model, 0.2), 0.0)
		require.Greater(t, floor.Price(model, 0.2), 0.0)
		// More volatility, more option value.
		require.Greater(t, cap.Price(model, 0.4), cap.Price(model, 0.2))
	}
}

func TestCapletExpiredIsIntrinsic(t *testing.T) {
	t.Parallel()

	c := capfloor.Caplet{
		Kind:     capfloor.KindCap,
		Forward:  0.05,
		Strike:   0.03,
		Expiry:   0,
		Accrual:  0.25,
		Discount: 1.0,
		Notional: 100,
	}
	require.InDelta(t, 100*0.25*(0.05-0.03), c.Price(capfloor.ModelBlack76, 0.2), 1e-12)

	c.Strike = 0.06
	require.Equal(t, 0.0, c.Price(capfloor.ModelBlack76, 0.2))
}

func TestImpliedVolRoundTrip(t *testing.T) {
	t.Parallel()

	c := capfloor.Caplet{
		Kind:     capfloor.KindCap,
		Forward:  0.035,
		Strike:   0.035,
		Expiry:   2.0,
		Accrual:  0.25,
		Discount: 0.93,
		Notional: 1_000_000,
	}
	for _, model := range []capfloor.Model{capfloor.ModelBlack76, capfloor.ModelNormal} {
		vol := 0.25
		if model == capfloor.ModelNormal {
			vol = 0.008 // normal vols live on an absolute-rate scale
		}
		price := c.Price(model, vol)
		got, err := capfloor.ImpliedVol(c, model, price)
		require.NoError(t, err, string(model))
		require.InDelta(t, vol, got, 1e-6, string(model))
	}

	_, err := capfloor.ImpliedVol(c, capfloor.ModelBlack76, -1.0)
	require.Error(t, err)
}

func TestPriceCapIsCapletSum(t *testing.T) {
	t.Parallel()

	set := flatSet(t, 0.03, 0.035)
	periods, err := schedule.Generate(asOf, asOf.AddDate(2, 0, 0), schedule.Quarterly)
	require.NoError(t, err)

	cf := capfloor.CapFloor{
		Kind:     capfloor.KindCap,
		Notional: 1_000_000,
		Strike:   0.03,
		Index:    "EURIBOR3M",
		DayCount: daycount.Act365F,
		Periods:  periods,
	}
	res, err := capfloor.Price(cf, set, flatSurface(t, 0.2), capfloor.Settings{Model: capfloor.ModelBlack76}, asOf)
	require.NoError(t, err)

	require.Len(t, res.Caplets, 8)
	sum := 0.0
	for _, cl := range res.Caplets {
		sum += cl.Price
		require.InDelta(t, 0.035, cl.Forward, 1e-10)
		require.InDelta(t, 0.2, cl.Vol, 1e-12)
	}
	require.InDelta(t, res.Price, sum, 1e-9)
	require.Greater(t, res.Price, 0.0)
	require.Greater(t, res.Delta, 0.0)
	require.Greater(t, res.Vega, 0.0)

	// A floor on the same terms prices positive too, and has negative delta.
	cf.Kind = capfloor.KindFloor
	fres, err := capfloor.Price(cf, set, flatSurface(t, 0.2), capfloor.Settings{Model: capfloor.ModelBlack76}, asOf)
	require.NoError(t, err)
	require.Greater(t, fres.Price, 0.0)
	require.Less(t, fres.Delta, 0.0)
}

func TestPriceNegativeRatePolicies(t *testing.T) {
	t.Parallel()

	set := flatSet(t, 0.01, -0.005)
	periods, err := schedule.Generate(asOf, asOf.AddDate(1, 0, 0), schedule.Quarterly)
	require.NoError(t, err)
	cf := capfloor.CapFloor{
		Kind:     capfloor.KindCap,
		Notional: 1_000_000,
		Strike:   0.01,
		Index:    "EURIBOR3M",
		DayCount: daycount.Act365F,
		Periods:  periods,
	}
	surface := flatSurface(t, 0.2)

	// Black-76 on a negative forward: rejected by default.
	_, err = capfloor.Price(cf, set, surface, capfloor.Settings{Model: capfloor.ModelBlack76}, asOf)
	var nre *capfloor.NegativeRateError
	require.ErrorAs(t, err, &nre)
	require.Less(t, nre.Forward, 0.0)

	// Flooring prices the out-of-the-money cap at zero.
	res, err := capfloor.Price(cf, set, surface, capfloor.Settings{
		Model:         capfloor.ModelBlack76,
		NegativeRates: capfloor.NegativeRateFloor,
	}, asOf)
	require.NoError(t, err)
	require.InDelta(t, 0.0, res.Price, 1e-9)

	// A shifted lognormal prices through the negative forward.
	res, err = capfloor.Price(cf, set, surface, capfloor.Settings{
		Model:         capfloor.ModelBlack76,
		NegativeRates: capfloor.NegativeRateShift,
		Shift:         0.03,
	}, asOf)
	require.NoError(t, err)
	require.Greater(t, res.Price, 0.0)

	// The normal model needs no special handling at all.
	res, err = capfloor.Price(cf, set, surface, capfloor.Settings{Model: capfloor.ModelNormal}, asOf)
	require.NoError(t, err)
	require.Greater(t, res.Price, 0.0)

	// Shift handling without a positive shift is a settings error.
	_, err = capfloor.Price(cf, set, surface, capfloor.Settings{
		Model:         capfloor.ModelBlack76,
		NegativeRates: capfloor.NegativeRateShift,
	}, asOf)
	require.Error(t, err)
}

func TestPriceAllHistorical(t *testing.T) {
	t.Parallel()

	set := flatSet(t, 0.03, 0.035)
	periods, err := schedule.Generate(asOf.AddDate(-2, 0, 0), asOf.AddDate(-1, 0, 0), schedule.Quarterly)
	require.NoError(t, err)
	cf := capfloor.CapFloor{
		Kind:     capfloor.KindCap,
		Notional: 1_000_000,
		Strike:   0.03,
		Index:    "EURIBOR3M",
		DayCount: daycount.Act365F,
		Periods:  periods,
	}
	_, err = capfloor.Price(cf, set, flatSurface(t, 0.2), capfloor.Settings{Model: capfloor.ModelBlack76}, asOf)
	require.Error(t, err)
}

func TestPriceValidation(t *testing.T) {
	t.Parallel()

	set := flatSet(t, 0.03, 0.035)
	periods, err := schedule.Generate(asOf, asOf.AddDate(1, 0, 0), schedule.Quarterly)
	require.NoError(t, err)
	cf := capfloor.CapFloor{
		Kind:     capfloor.KindCap,
		Notional: 1_000_000,
		Strike:   0.03,
		Index:    "EURIBOR3M",
		DayCount: daycount.Act365F,
		Periods:  periods,
	}

	// The model is never inferred.
	_, err = capfloor.Price(cf, set, flatSurface(t, 0.2), capfloor.Settings{}, asOf)
	require.Error(t, err)

	_, err = capfloor.Price(cf, set, nil, capfloor.Settings{Model: capfloor.ModelNormal}, asOf)
	require.Error(t, err)

	cf.Index = "SOFR"
	_, err = capfloor.Price(cf, set, flatSurface(t, 0.2), capfloor.Settings{Model: capfloor.ModelNormal}, asOf)
	var uie *curve.UnresolvedIndexError
	require.ErrorAs(t, err, &uie)

	cf.Index = "EURIBOR3M"
	cf.Periods = nil
	_, err = capfloor.Price(cf, set, flatSurface(t, 0.2), capfloor.Settings{Model: capfloor.ModelNormal}, asOf)
	require.Error(t, err)
}
