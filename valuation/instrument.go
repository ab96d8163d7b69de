// Package valuation projects cashflows for rate-linked instruments and
// aggregates present value and yield measures against a curve set.
package valuation

import (
	"time"

	"github.com/meenmo/curvelib/daycount"
	"github.com/meenmo/curvelib/schedule"
)

// Instrument is the capability any deposit- or loan-like product must expose
// to be eligible for cashflow projection. Anything with an accrual schedule,
// an optional reference rate, a spread and a day count projects the same
// way; there is no per-product branch.
type Instrument interface {
	Notional() float64
	Schedule() []schedule.AccrualPeriod
	// ReferenceRate names the floating index, or is empty for a fixed-rate
	// instrument.
	ReferenceRate() string
	// FixedRate is the coupon for fixed-rate instruments; ignored when a
	// reference rate is set.
	FixedRate() float64
	Spread() float64
	Convention() daycount.Convention
}

// RateBounded is an optional capability: instruments carrying embedded rate
// caps or floors clamp each period's all-in rate.
type RateBounded interface {
	Bounds() *RateBounds
}

// RateBounds clamps a period's all-in rate. A bound applies only when its
// date window (when set) covers the whole accrual period.
type RateBounds struct {
	Cap        *float64
	CapStart   time.Time
	CapEnd     time.Time
	Floor      *float64
	FloorStart time.Time
	FloorEnd   time.Time
}

// Apply clamps rate for the accrual period [start, end].
func (b *RateBounds) Apply(rate float64, start, end time.Time) float64 {
	if b == nil {
		return rate
	}
	if b.Cap != nil && windowCovers(b.CapStart, b.CapEnd, start, end) && rate > *b.Cap {
		rate = *b.Cap
	}
	if b.Floor != nil && windowCovers(b.FloorStart, b.FloorEnd, start, end) && rate < *b.Floor {
		rate = *b.Floor
	}
	return rate
}

func windowCovers(wStart, wEnd, start, end time.Time) bool {
	if !wStart.IsZero() && start.Before(wStart) {
		return false
	}
	if !wEnd.IsZero() && end.After(wEnd) {
		return false
	}
	return true
}

// Terms is a ready-made Instrument implementation covering both time
// deposits and term loans; the two differ in lifecycle, not in projection.
type Terms struct {
	Principal  float64
	Rate       float64 // fixed coupon, used when Index is empty
	Index      string  // reference-rate name, e.g. "EURIBOR3M"
	RateSpread float64
	DayCount   daycount.Convention
	Periods    []schedule.AccrualPeriod
	RateBounds *RateBounds
}

func (t Terms) Notional() float64                { return t.Principal }
func (t Terms) Schedule() []schedule.AccrualPeriod { return t.Periods }
func (t Terms) ReferenceRate() string            { return t.Index }
func (t Terms) FixedRate() float64               { return t.Rate }
func (t Terms) Spread() float64                  { return t.RateSpread }
func (t Terms) Convention() daycount.Convention  { return t.DayCount }
func (t Terms) Bounds() *RateBounds              { return t.RateBounds }

// Deposit is a time deposit: principal returned at maturity, interest per
// the accrual schedule.
type Deposit struct{ Terms }

// Loan is a term loan with a bullet principal repayment. Amortizing
// schedules arrive as pre-resolved accrual periods from the instrument
// layer.
type Loan struct{ Terms }
