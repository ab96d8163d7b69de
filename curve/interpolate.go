package curve

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Interpolation selects how zero rates are interpolated between nodes.
type Interpolation string

const (
	// InterpLinearZero interpolates linearly on zero rates.
	InterpLinearZero Interpolation = "linear-zero"
	// InterpLogDiscount interpolates linearly on r*t, i.e. log discount
	// factors, which keeps forwards flat between nodes.
	InterpLogDiscount Interpolation = "log-discount"
	// InterpMonotoneCubic uses a Fritsch-Butland monotone cubic spline on
	// zero rates.
	InterpMonotoneCubic Interpolation = "monotone-cubic"
)

// Extrapolation selects behavior outside the calibrated tenor range.
type Extrapolation string

const (
	// ExtrapNone fails with DomainError outside the node range.
	ExtrapNone Extrapolation = ""
	// ExtrapFlat holds the boundary rate constant.
	ExtrapFlat Extrapolation = "flat"
	// ExtrapLinear continues the slope of the two boundary nodes.
	ExtrapLinear Extrapolation = "linear"
)

// Interpolator evaluates zero rates over a fixed (years, rate) grid. It is
// the shared primitive behind discounting and forward-rate computation, and
// is exported so calibration loops can evaluate candidate curves without
// paying full curve construction per solver iteration.
type Interpolator struct {
	name   string
	method Interpolation
	extrap Extrapolation
	xs     []float64
	ys     []float64
	cubic  *interp.FritschButland
}

// NewInterpolator builds an interpolator over strictly increasing years.
// The slices are copied.
func NewInterpolator(name string, method Interpolation, extrap Extrapolation, years, rates []float64) (*Interpolator, error) {
	if len(years) == 0 || len(years) != len(rates) {
		return nil, fmt.Errorf("curve %s: need equal, non-empty years and rates (got %d, %d)", name, len(years), len(rates))
	}
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			return nil, fmt.Errorf("curve %s: tenors not strictly increasing at index %d (%.6f <= %.6f)",
				name, i, years[i], years[i-1])
		}
	}
	if years[0] <= 0 {
		return nil, fmt.Errorf("curve %s: first tenor must be positive, got %.6f", name, years[0])
	}

	ip := &Interpolator{
		name:   name,
		method: method,
		extrap: extrap,
		xs:     append([]float64(nil), years...),
		ys:     append([]float64(nil), rates...),
	}

	if method == InterpMonotoneCubic && len(years) >= 2 {
		ip.cubic = &interp.FritschButland{}
		if err := ip.cubic.Fit(ip.xs, ip.ys); err != nil {
			return nil, fmt.Errorf("curve %s: monotone cubic fit: %w", name, err)
		}
	}
	return ip, nil
}

// Rate evaluates the zero rate at year fraction t, applying the configured
// extrapolation rule outside the node range.
func (ip *Interpolator) Rate(t float64) (float64, error) {
	first, last := ip.xs[0], ip.xs[len(ip.xs)-1]

	if t < first || t > last {
		switch ip.extrap {
		case ExtrapFlat:
			if t < first {
				return ip.ys[0], nil
			}
			return ip.ys[len(ip.ys)-1], nil
		case ExtrapLinear:
			return ip.linearBoundary(t), nil
		default:
			return 0, &DomainError{Curve: ip.name, T: t, Min: first, Max: last}
		}
	}

	if len(ip.xs) == 1 {
		return ip.ys[0], nil
	}

	switch ip.method {
	case InterpMonotoneCubic:
		return ip.cubic.Predict(t), nil
	case InterpLogDiscount:
		i, j := ip.bracket(t)
		l1 := ip.ys[i] * ip.xs[i]
		l2 := ip.ys[j] * ip.xs[j]
		l := l1 + (l2-l1)*(t-ip.xs[i])/(ip.xs[j]-ip.xs[i])
		return l / t, nil
	default: // InterpLinearZero
		i, j := ip.bracket(t)
		return ip.ys[i] + (ip.ys[j]-ip.ys[i])*(t-ip.xs[i])/(ip.xs[j]-ip.xs[i]), nil
	}
}

// bracket returns indices (i, i+1) with xs[i] <= t <= xs[i+1]. Callers
// guarantee t is inside the node range and len(xs) >= 2.
func (ip *Interpolator) bracket(t float64) (int, int) {
	j := sort.SearchFloat64s(ip.xs, t)
	if j <= 0 {
		return 0, 1
	}
	if j >= len(ip.xs) {
		return len(ip.xs) - 2, len(ip.xs) - 1
	}
	return j - 1, j
}

func (ip *Interpolator) linearBoundary(t float64) float64 {
	n := len(ip.xs)
	if n == 1 {
		return ip.ys[0]
	}
	if t < ip.xs[0] {
		slope := (ip.ys[1] - ip.ys[0]) / (ip.xs[1] - ip.xs[0])
		return ip.ys[0] + slope*(t-ip.xs[0])
	}
	slope := (ip.ys[n-1] - ip.ys[n-2]) / (ip.xs[n-1] - ip.xs[n-2])
	return ip.ys[n-1] + slope*(t-ip.xs[n-1])
}
