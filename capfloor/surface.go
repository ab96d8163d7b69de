// Package capfloor decomposes interest-rate caps and floors into caplets
// and floorlets and prices each against a volatility surface.
package capfloor

import (
	"fmt"
	"sort"
)

// Surface is a volatility cube keyed by (expiry, tenor, strike), all in
// year-fraction / decimal terms. Lookups interpolate trilinearly and hold
// the edge value flat beyond the grid.
type Surface struct {
	expiries []float64
	tenors   []float64
	strikes  []float64
	// vols[i][j][k] is the vol at expiries[i], tenors[j], strikes[k].
	vols [][][]float64
}

// NewSurface validates grid shape and ordering and copies the inputs.
func NewSurface(expiries, tenors, strikes []float64, vols [][][]float64) (*Surface, error) {
	if len(expiries) == 0 || len(tenors) == 0 || len(strikes) == 0 {
		return nil, fmt.Errorf("capfloor: empty surface axis")
	}
	for name, axis := range map[string][]float64{"expiry": expiries, "tenor": tenors, "strike": strikes} {
		if !sort.Float64sAreSorted(axis) {
			return nil, fmt.Errorf("capfloor: %s axis not sorted", name)
		}
	}
	if len(vols) != len(expiries) {
		return nil, fmt.Errorf("capfloor: vols has %d expiry slices, want %d", len(vols), len(expiries))
	}
	out := make([][][]float64, len(expiries))
	for i := range vols {
		if len(vols[i]) != len(tenors) {
			return nil, fmt.Errorf("capfloor: expiry slice %d has %d tenor rows, want %d", i, len(vols[i]), len(tenors))
		}
		out[i] = make([][]float64, len(tenors))
		for j := range vols[i] {
			if len(vols[i][j]) != len(strikes) {
				return nil, fmt.Errorf("capfloor: vol row (%d,%d) has %d strikes, want %d", i, j, len(vols[i][j]), len(strikes))
			}
			out[i][j] = append([]float64(nil), vols[i][j]...)
		}
	}
	return &Surface{
		expiries: append([]float64(nil), expiries...),
		tenors:   append([]float64(nil), tenors...),
		strikes:  append([]float64(nil), strikes...),
		vols:     out,
	}, nil
}

// Vol interpolates the volatility at (expiry, tenor, strike).
func (s *Surface) Vol(expiry, tenorYears, strike float64) float64 {
	i0, i1, we := axisWeights(s.expiries, expiry)
	j0, j1, wt := axisWeights(s.tenors, tenorYears)
	k0, k1, wk := axisWeights(s.strikes, strike)

	lerp := func(a, b, w float64) float64 { return a + (b-a)*w }

	v00 := lerp(s.vols[i0][j0][k0], s.vols[i0][j0][k1], wk)
	v01 := lerp(s.vols[i0][j1][k0], s.vols[i0][j1][k1], wk)
	v10 := lerp(s.vols[i1][j0][k0], s.vols[i1][j0][k1], wk)
	v11 := lerp(s.vols[i1][j1][k0], s.vols[i1][j1][k1], wk)

	return lerp(lerp(v00, v01, wt), lerp(v10, v11, wt), we)
}

// axisWeights locates x on a sorted axis, returning bracketing indices and
// the interpolation weight. Outside the axis the nearest edge wins.
func axisWeights(axis []float64, x float64) (lo, hi int, w float64) {
	n := len(axis)
	if n == 1 || x <= axis[0] {
		return 0, 0, 0
	}
	if x >= axis[n-1] {
		return n - 1, n - 1, 0
	}
	hi = sort.SearchFloat64s(axis, x)
	lo = hi - 1
	return lo, hi, (x - axis[lo]) / (axis[hi] - axis[lo])
}
