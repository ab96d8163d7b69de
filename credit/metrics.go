package credit

import (
	"fmt"
	"math"
)

// Tables are the externally supplied rating-level inputs: one-year default
// rates, recovery rates, and rating transition probabilities. The engine
// consumes them as-is; estimating them is the data layer's job.
type Tables struct {
	DefaultRates  map[string]float64
	RecoveryRates map[string]float64
	Transitions   map[string]map[string]float64
}

// Metrics are the rating-based credit risk numbers fed back to the
// aggregation layer.
type Metrics struct {
	ProbabilityOfDefault float64
	LossGivenDefault     float64
	ExposureAtDefault    float64
	ExpectedLoss         float64
	UnexpectedLoss       float64
	Migration            map[string]float64
}

// Metrics computes expected and unexpected loss for an exposure of size ead
// at the given rating. Unexpected loss uses the one-factor binomial
// approximation sqrt(pd*(1-pd)) * lgd * ead.
func (t Tables) Metrics(rating string, ead float64) (Metrics, error) {
	pd, ok := t.DefaultRates[rating]
	if !ok {
		return Metrics{}, fmt.Errorf("credit: no default rate for rating %q", rating)
	}
	recovery, ok := t.RecoveryRates[rating]
	if !ok {
		return Metrics{}, fmt.Errorf("credit: no recovery rate for rating %q", rating)
	}
	lgd := 1.0 - recovery

	m := Metrics{
		ProbabilityOfDefault: pd,
		LossGivenDefault:     lgd,
		ExposureAtDefault:    ead,
		ExpectedLoss:         pd * lgd * ead,
		UnexpectedLoss:       math.Sqrt(pd*(1.0-pd)) * lgd * ead,
	}
	if row, ok := t.Transitions[rating]; ok {
		m.Migration = make(map[string]float64, len(row))
		for k, v := range row {
			m.Migration[k] = v
		}
	}
	return m, nil
}
