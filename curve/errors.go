package curve

import (
	"fmt"
	"strings"
)

// DomainError is returned when a rate is requested outside a curve's tenor
// range and no extrapolation rule is configured.
type DomainError struct {
	Curve    string
	T        float64
	Min, Max float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("curve %s: t=%.6f outside domain [%.6f, %.6f] and no extrapolation configured",
		e.Curve, e.T, e.Min, e.Max)
}

// UnresolvedIndexError is returned when a cashflow references a reference
// rate that is absent from the curve set. Resolution failures are always
// explicit; there is no default-curve substitution.
type UnresolvedIndexError struct {
	Index     string
	Available []string
}

func (e *UnresolvedIndexError) Error() string {
	return fmt.Sprintf("curve set: no forward curve for index %q (available: %s)",
		e.Index, strings.Join(e.Available, ", "))
}
