// Package schedule generates regular accrual-period grids for instruments
// quoted by payment frequency. Business-day adjustment is the data layer's
// concern; periods produced here roll on unadjusted calendar dates.
package schedule

import (
	"fmt"
	"time"
)

// Frequency is the payment frequency of a leg.
type Frequency int

const (
	Monthly    Frequency = 1
	Quarterly  Frequency = 3
	SemiAnnual Frequency = 6
	Annual     Frequency = 12
)

// AccrualPeriod is one coupon accrual interval. PayDate defaults to the
// accrual end when the caller applies no payment lag.
type AccrualPeriod struct {
	Start   time.Time
	End     time.Time
	PayDate time.Time
}

// Generate rolls periods forward from start to end at the given frequency.
// Rolling always steps from the unadjusted anchor date to avoid month-end
// drift; a final short stub covers any remainder before end.
func Generate(start, end time.Time, freq Frequency) ([]AccrualPeriod, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("schedule: end %s not after start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	switch freq {
	case Monthly, Quarterly, SemiAnnual, Annual:
	default:
		return nil, fmt.Errorf("schedule: unsupported frequency %d", int(freq))
	}

	periods := make([]AccrualPeriod, 0, 16)
	anchor := start
	cur := start
	for i := 1; ; i++ {
		next := anchor.AddDate(0, int(freq)*i, 0)
		if next.After(end) {
			next = end
		}
		periods = append(periods, AccrualPeriod{Start: cur, End: next, PayDate: next})
		if !next.Before(end) {
			break
		}
		cur = next
	}
	return periods, nil
}
