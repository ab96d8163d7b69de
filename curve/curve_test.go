package curve_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/daycount"
)

var asOf = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testNodes() []curve.Node {
	return []curve.Node{
		{Tenor: "3M", Years: 0.25, Rate: 0.030},
		{Tenor: "1Y", Years: 1.0, Rate: 0.035},
		{Tenor: "2Y", Years: 2.0, Rate: 0.040},
		{Tenor: "5Y", Years: 5.0, Rate: 0.045},
	}
}

func mustCurve(t *testing.T, cfg curve.Config) *curve.RateCurve {
	t.Helper()
	c, err := curve.New("EUR-OIS", curve.TypeDiscount, asOf, "EUR", testNodes(), cfg)
	require.NoError(t, err)
	return c
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	// Tenors must be strictly increasing.
	_, err := curve.New("bad", curve.TypeDiscount, asOf, "EUR", []curve.Node{
		{Tenor: "1Y", Years: 1.0, Rate: 0.03},
		{Tenor: "1Y", Years: 1.0, Rate: 0.04},
	}, curve.Config{})
	require.Error(t, err)

	// First tenor must be positive.
	_, err = curve.New("bad", curve.TypeDiscount, asOf, "EUR", []curve.Node{
		{Tenor: "0D", Years: 0.0, Rate: 0.03},
		{Tenor: "1Y", Years: 1.0, Rate: 0.04},
	}, curve.Config{})
	require.Error(t, err)

	_, err = curve.New("empty", curve.TypeDiscount, asOf, "EUR", nil, curve.Config{})
	require.Error(t, err)
}

func TestDiscountMonotonicityRejected(t *testing.T) {
	t.Parallel()

	// DF(1) = exp(-0.05) = 0.951, DF(2) = exp(0.20) = 1.221: increasing.
	nodes := []curve.Node{
		{Tenor: "1Y", Years: 1.0, Rate: 0.05},
		{Tenor: "2Y", Years: 2.0, Rate: -0.10},
	}
	_, err := curve.New("arb", curve.TypeDiscount, asOf, "EUR", nodes, curve.Config{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "discount factors increasing")

	// The same nodes are fine on a forward curve; the no-arbitrage check is
	// a discount-curve invariant only.
	_, err = curve.New("fwd", curve.TypeForward, asOf, "EUR", nodes, curve.Config{})
	require.NoError(t, err)
}

func TestDiscountMonotonicityInteriorRejected(t *testing.T) {
	t.Parallel()

	// Every node discount factor decreases, exp(-0.100) then exp(-0.102),
	// yet linear-zero interpolation makes r(t)*t peak inside the inverted
	// segment: DF(1.52) = 0.8929 < DF(2.00) = 0.9030. Construction must
	// refuse the curve, not clamp it.
	nodes := []curve.Node{
		{Tenor: "1Y", Years: 1.0, Rate: 0.100},
		{Tenor: "2Y", Years: 2.0, Rate: 0.051},
	}
	_, err := curve.New("arb", curve.TypeDiscount, asOf, "EUR", nodes, curve.Config{
		Interpolation: curve.InterpLinearZero,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "discount factors increasing between tenors 1Y and 2Y")

	// Log-discount interpolation keeps r(t)*t linear between the same
	// nodes, so there the curve really is arbitrage free.
	_, err = curve.New("ok", curve.TypeDiscount, asOf, "EUR", nodes, curve.Config{
		Interpolation: curve.InterpLogDiscount,
	})
	require.NoError(t, err)

	// Forward curves carry no discount invariant.
	_, err = curve.New("fwd", curve.TypeForward, asOf, "EUR", nodes, curve.Config{
		Interpolation: curve.InterpLinearZero,
	})
	require.NoError(t, err)
}

func TestDiscountMonotonicityInteriorRejectedMonotoneCubic(t *testing.T) {
	t.Parallel()

	// Node discount factors decrease strictly, but the severe inversion
	// between 1Y and 2Y drives r(t)*t down inside that segment under the
	// cubic as well.
	nodes := []curve.Node{
		{Tenor: "6M", Years: 0.5, Rate: 0.250},
		{Tenor: "1Y", Years: 1.0, Rate: 0.300},
		{Tenor: "2Y", Years: 2.0, Rate: 0.151},
		{Tenor: "4Y", Years: 4.0, Rate: 0.150},
	}
	_, err := curve.New("arb", curve.TypeDiscount, asOf, "EUR", nodes, curve.Config{
		Interpolation: curve.InterpMonotoneCubic,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "discount factors increasing")
}

func TestInterpolateLinearZero(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, curve.Config{Interpolation: curve.InterpLinearZero})

	// Exact at nodes.
	for _, n := range testNodes() {
		r, err := c.InterpolateRate(n.Years)
		require.NoError(t, err)
		require.InDelta(t, n.Rate, r, 1e-15)
	}

	// Midpoint of (1Y, 2Y) is the rate average.
	r, err := c.InterpolateRate(1.5)
	require.NoError(t, err)
	require.InDelta(t, 0.0375, r, 1e-15)
}

func TestInterpolateLogDiscount(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, curve.Config{Interpolation: curve.InterpLogDiscount})

	// Linear in r*t: at t=1.5 between (1, 0.035) and (2, 0.040),
	// l = 0.035 + (0.080-0.035)*0.5 = 0.0575, so r = l/t.
	r, err := c.InterpolateRate(1.5)
	require.NoError(t, err)
	require.InDelta(t, 0.0575/1.5, r, 1e-15)

	// Still exact at the nodes.
	r, err = c.InterpolateRate(2.0)
	require.NoError(t, err)
	require.InDelta(t, 0.040, r, 1e-15)
}

func TestInterpolateMonotoneCubic(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, curve.Config{Interpolation: curve.InterpMonotoneCubic})

	for _, n := range testNodes() {
		r, err := c.InterpolateRate(n.Years)
		require.NoError(t, err)
		require.InDelta(t, n.Rate, r, 1e-12)
	}

	// Monotone data stays monotone between nodes.
	prev := -math.MaxFloat64
	for x := 0.25; x <= 5.0; x += 0.05 {
		r, err := c.InterpolateRate(x)
		require.NoError(t, err)
		require.GreaterOrEqual(t, r+1e-12, prev)
		prev = r
	}
}

func TestExtrapolation(t *testing.T) {
	t.Parallel()

	// No extrapolation configured: out of range is a domain error.
	c := mustCurve(t, curve.Config{})
	_, err := c.InterpolateRate(10.0)
	var de *curve.DomainError
	require.ErrorAs(t, err, &de)
	require.InDelta(t, 10.0, de.T, 1e-15)
	require.InDelta(t, 0.25, de.Min, 1e-15)
	require.InDelta(t, 5.0, de.Max, 1e-15)

	_, err = c.InterpolateRate(0.1)
	require.ErrorAs(t, err, &de)

	// Flat holds the boundary rate.
	c = mustCurve(t, curve.Config{Extrapolation: curve.ExtrapFlat})
	r, err := c.InterpolateRate(10.0)
	require.NoError(t, err)
	require.InDelta(t, 0.045, r, 1e-15)
	r, err = c.InterpolateRate(0.1)
	require.NoError(t, err)
	require.InDelta(t, 0.030, r, 1e-15)

	// Linear continues the boundary slope: slope past 5Y is
	// (0.045-0.040)/3 per year.
	c = mustCurve(t, curve.Config{Extrapolation: curve.ExtrapLinear})
	r, err = c.InterpolateRate(8.0)
	require.NoError(t, err)
	require.InDelta(t, 0.045+3.0*(0.045-0.040)/3.0, r, 1e-15)
}

func TestDiscountFactor(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, curve.Config{DayCount: daycount.Act365F})

	df, err := c.DiscountFactorAt(2.0)
	require.NoError(t, err)
	require.InDelta(t, math.Exp(-0.040*2.0), df, 1e-15)

	// At or before the base date the discount factor is one.
	df, err = c.DiscountFactorAt(0)
	require.NoError(t, err)
	require.Equal(t, 1.0, df)
	df, err = c.DiscountFactorAt(-0.5)
	require.NoError(t, err)
	require.Equal(t, 1.0, df)

	// Date-based lookup runs through the curve's own day count.
	target := asOf.AddDate(0, 0, 365)
	byDate, err := c.DiscountFactor(target)
	require.NoError(t, err)
	byYears, err := c.DiscountFactorAt(c.YearsTo(target))
	require.NoError(t, err)
	require.InDelta(t, byYears, byDate, 1e-15)

	zr, err := c.ZeroRate(target)
	require.NoError(t, err)
	require.InDelta(t, 0.035, zr, 1e-12)
}

func TestBumpsDoNotMutate(t *testing.T) {
	t.Parallel()

	base := mustCurve(t, curve.Config{})
	bumped := base.ParallelBump(0.0001)

	for i, n := range base.Nodes() {
		require.InDelta(t, testNodes()[i].Rate, n.Rate, 1e-15)
		require.InDelta(t, testNodes()[i].Rate+0.0001, bumped.Nodes()[i].Rate, 1e-15)
	}

	single := base.BumpNode(2, -0.0005)
	require.InDelta(t, 0.040-0.0005, single.Nodes()[2].Rate, 1e-15)
	require.InDelta(t, 0.040, base.Nodes()[2].Rate, 1e-15)
	// Other nodes untouched.
	require.InDelta(t, 0.035, single.Nodes()[1].Rate, 1e-15)

	require.Panics(t, func() { base.BumpNode(99, 0.0001) })
}

func TestNodesReturnsCopy(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, curve.Config{})
	nodes := c.Nodes()
	nodes[0].Rate = 99.0
	r, err := c.InterpolateRate(0.25)
	require.NoError(t, err)
	require.InDelta(t, 0.030, r, 1e-15)
}

func TestUnresolvedIndexErrorMessage(t *testing.T) {
	t.Parallel()

	err := error(&curve.UnresolvedIndexError{Index: "SOFR", Available: []string{"EURIBOR3M"}})
	require.Contains(t, err.Error(), `"SOFR"`)
	require.Contains(t, err.Error(), "EURIBOR3M")
	var uie *curve.UnresolvedIndexError
	require.True(t, errors.As(err, &uie))
}
