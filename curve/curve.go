// Package curve holds the immutable point-in-time curve data model: a single
// named rate curve, the interpolation machinery behind it, and the set
// grouping a discount curve with per-index forward and credit spread curves.
//
// Curves are never mutated after construction. Bumps and updates return new
// curves, so concurrent valuation requests can read a shared set without
// locking.
package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvelib/daycount"
)

// Type tags what a curve represents.
type Type string

const (
	TypeDiscount Type = "discount"
	TypeForward  Type = "forward"
	TypeSpread   Type = "spread"
)

// Node is one calibrated curve point. Years is the tenor converted to a year
// fraction on the curve's day count basis; Rate is the zero rate in decimal.
//
// The rate carries two compounding readings depending on the consumer.
// Discounting and the bootstrap par conditions treat it as continuously
// compounded, DF(t) = exp(-r*t). Forward projection treats the same rate as
// annually compounded, growing money as (1+r)^t, because only that reading
// lets a flat curve reproduce its own rate exactly over any accrual period.
// Both consumers interpolate through the single shared rate grid.
type Node struct {
	Tenor string
	Years float64
	Rate  float64
}

// Config carries the optional attributes of a curve.
type Config struct {
	DayCount      daycount.Convention
	Interpolation Interpolation
	Extrapolation Extrapolation

	// Index and IndexTenor identify the reference rate for forward curves;
	// both are empty for discount curves.
	Index      string
	IndexTenor string

	// Instruments and Quality are the calibration inputs and fit diagnostics
	// attached by the bootstrapper.
	Instruments []Instrument
	Quality     *QualityMetrics
}

// RateCurve is a named, dated, currency-scoped zero curve.
type RateCurve struct {
	name     string
	typ      Type
	asOf     time.Time
	currency string
	cfg      Config
	nodes    []Node
	ip       *Interpolator
}

// New constructs a curve and validates its invariants: tenors strictly
// increasing, and for discount curves, discount factors strictly positive and
// non-increasing in time. An arbitrageable discount curve is a calibration
// failure, never silently clamped.
func New(name string, typ Type, asOf time.Time, currency string, nodes []Node, cfg Config) (*RateCurve, error) {
	if cfg.DayCount == "" {
		cfg.DayCount = daycount.Act365F
	}
	if cfg.Interpolation == "" {
		cfg.Interpolation = InterpLinearZero
	}

	years := make([]float64, len(nodes))
	rates := make([]float64, len(nodes))
	for i, n := range nodes {
		years[i] = n.Years
		rates[i] = n.Rate
	}
	ip, err := NewInterpolator(name, cfg.Interpolation, cfg.Extrapolation, years, rates)
	if err != nil {
		return nil, err
	}

	c := &RateCurve{
		name:     name,
		typ:      typ,
		asOf:     asOf,
		currency: currency,
		cfg:      cfg,
		nodes:    append([]Node(nil), nodes...),
		ip:       ip,
	}

	if typ == TypeDiscount {
		if err := c.checkDiscountMonotonic(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *RateCurve) checkDiscountMonotonic() error {
	prev := 1.0
	for _, n := range c.nodes {
		df := math.Exp(-n.Rate * n.Years)
		if !(df > 0) || math.IsNaN(df) {
			return fmt.Errorf("curve %s: non-positive discount factor %.6g at tenor %s", c.name, df, n.Tenor)
		}
		if df > prev+1e-12 {
			return fmt.Errorf("curve %s: discount factors increasing at tenor %s (%.12f > %.12f)",
				c.name, n.Tenor, df, prev)
		}
		prev = df
	}

	// The node check alone misses interior violations: between nodes the
	// log discount r(t)*t follows the interpolation, not a straight line,
	// and a steeply inverted curve can dip even when every node is fine.
	switch c.cfg.Interpolation {
	case InterpLogDiscount:
		// r(t)*t is linear between nodes; the node check covers interiors.
		return nil
	case InterpLinearZero:
		// r(t) is linear per segment, so d/dt[r(t)*t] = r(t) + slope*t is
		// linear too and attains its segment minimum at an endpoint.
		for i := 0; i+1 < len(c.nodes); i++ {
			a, b := c.nodes[i], c.nodes[i+1]
			slope := (b.Rate - a.Rate) / (b.Years - a.Years)
			if a.Rate+slope*a.Years < -1e-12 || b.Rate+slope*b.Years < -1e-12 {
				return fmt.Errorf("curve %s: discount factors increasing between tenors %s and %s",
					c.name, a.Tenor, b.Tenor)
			}
		}
		return nil
	default:
		// Monotone cubic has no closed-form extremum worth maintaining;
		// sample each segment on a fine grid instead.
		const samples = 16
		for i := 0; i+1 < len(c.nodes); i++ {
			a, b := c.nodes[i], c.nodes[i+1]
			prevLog := a.Rate * a.Years
			for k := 1; k <= samples; k++ {
				t := a.Years + (b.Years-a.Years)*float64(k)/samples
				r, err := c.ip.Rate(t)
				if err != nil {
					return err
				}
				if r*t < prevLog-1e-12 {
					return fmt.Errorf("curve %s: discount factors increasing between tenors %s and %s",
						c.name, a.Tenor, b.Tenor)
				}
				prevLog = r * t
			}
		}
		return nil
	}
}

func (c *RateCurve) Name() string                     { return c.name }
func (c *RateCurve) Type() Type                       { return c.typ }
func (c *RateCurve) AsOf() time.Time                  { return c.asOf }
func (c *RateCurve) Currency() string                 { return c.currency }
func (c *RateCurve) DayCount() daycount.Convention    { return c.cfg.DayCount }
func (c *RateCurve) Interpolation() Interpolation     { return c.cfg.Interpolation }
func (c *RateCurve) Extrapolation() Extrapolation     { return c.cfg.Extrapolation }
func (c *RateCurve) Index() string                    { return c.cfg.Index }
func (c *RateCurve) IndexTenor() string               { return c.cfg.IndexTenor }
func (c *RateCurve) Quality() *QualityMetrics         { return c.cfg.Quality }

// Nodes returns a copy of the calibrated nodes.
func (c *RateCurve) Nodes() []Node {
	return append([]Node(nil), c.nodes...)
}

// Instruments returns a copy of the calibration instruments, including any
// zero-weight diagnostics-only entries.
func (c *RateCurve) Instruments() []Instrument {
	return append([]Instrument(nil), c.cfg.Instruments...)
}

// MaxYears is the last calibrated tenor in year fractions.
func (c *RateCurve) MaxYears() float64 {
	return c.nodes[len(c.nodes)-1].Years
}

// InterpolateRate returns the zero rate at year fraction t. It is the shared
// primitive used both for discounting and forward-rate computation.
func (c *RateCurve) InterpolateRate(t float64) (float64, error) {
	return c.ip.Rate(t)
}

// DiscountFactorAt returns exp(-r*t) at year fraction t.
func (c *RateCurve) DiscountFactorAt(t float64) (float64, error) {
	if t <= 0 {
		return 1.0, nil
	}
	r, err := c.InterpolateRate(t)
	if err != nil {
		return 0, err
	}
	return math.Exp(-r * t), nil
}

// DiscountFactor converts target to a year fraction from the curve's as-of
// date on the curve's own day count and returns the discount factor there.
func (c *RateCurve) DiscountFactor(target time.Time) (float64, error) {
	return c.DiscountFactorAt(c.YearsTo(target))
}

// ZeroRate returns the interpolated zero rate at a target date.
func (c *RateCurve) ZeroRate(target time.Time) (float64, error) {
	return c.InterpolateRate(c.YearsTo(target))
}

// YearsTo converts a date to a year fraction from the curve's as-of date on
// the curve's own day count.
func (c *RateCurve) YearsTo(target time.Time) float64 {
	return c.cfg.DayCount.YearFraction(c.asOf, target)
}

// ParallelBump returns a new curve with every node rate shifted by delta.
// Bumped curves skip the discount monotonicity check: a small bump applied
// for finite differencing must not fail a valuation.
func (c *RateCurve) ParallelBump(delta float64) *RateCurve {
	nodes := c.Nodes()
	for i := range nodes {
		nodes[i].Rate += delta
	}
	return c.rebuild(nodes)
}

// BumpNode returns a new curve with the rate at node index i shifted by
// delta.
func (c *RateCurve) BumpNode(i int, delta float64) *RateCurve {
	nodes := c.Nodes()
	if i < 0 || i >= len(nodes) {
		panic(fmt.Sprintf("curve %s: bump index %d out of range", c.name, i))
	}
	nodes[i].Rate += delta
	return c.rebuild(nodes)
}

func (c *RateCurve) rebuild(nodes []Node) *RateCurve {
	years := make([]float64, len(nodes))
	rates := make([]float64, len(nodes))
	for i, n := range nodes {
		years[i] = n.Years
		rates[i] = n.Rate
	}
	// Node geometry is unchanged, so the interpolator rebuild cannot fail.
	ip, err := NewInterpolator(c.name, c.cfg.Interpolation, c.cfg.Extrapolation, years, rates)
	if err != nil {
		panic(err)
	}
	out := *c
	out.nodes = nodes
	out.ip = ip
	return &out
}
