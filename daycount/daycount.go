// Package daycount converts date intervals into year fractions under
// standard market conventions.
package daycount

import (
	"fmt"
	"strings"
	"time"
)

// Convention identifies a day count convention.
type Convention string

const (
	Act360     Convention = "ACT/360"
	Act365F    Convention = "ACT/365F"
	Thirty360  Convention = "30/360"
	ThirtyE360 Convention = "30E/360"
	ActAct     Convention = "ACT/ACT"
)

// Parse normalizes a convention string. Unknown conventions are an error
// rather than a silent fallback; a wrong basis corrupts every accrual
// downstream.
func Parse(s string) (Convention, error) {
	switch Convention(strings.ToUpper(strings.TrimSpace(s))) {
	case Act360:
		return Act360, nil
	case Act365F, "ACT/365":
		return Act365F, nil
	case Thirty360:
		return Thirty360, nil
	case ThirtyE360:
		return ThirtyE360, nil
	case ActAct:
		return ActAct, nil
	}
	return "", fmt.Errorf("daycount: unsupported convention %q", s)
}

// Days returns the actual number of days from start to end.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// YearFraction computes the year fraction between two dates.
//
// 30/360 follows the US (bond basis) day adjustments; 30E/360 is the
// Eurobond basis. ACT/ACT splits the interval per calendar year, using the
// actual year length of each.
func (c Convention) YearFraction(start, end time.Time) float64 {
	switch c {
	case Act360:
		return Days(start, end) / 360.0
	case Act365F:
		return Days(start, end) / 365.0
	case Thirty360:
		d1 := start.Day()
		d2 := end.Day()
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 >= 30 {
			d2 = 30
		}
		return thirtyBasis(start, end, d1, d2)
	case ThirtyE360:
		d1 := start.Day()
		d2 := end.Day()
		if d1 > 30 {
			d1 = 30
		}
		if d2 > 30 {
			d2 = 30
		}
		return thirtyBasis(start, end, d1, d2)
	case ActAct:
		return actAct(start, end)
	default:
		// Callers construct conventions via Parse or the exported constants,
		// so this is a programmer error.
		panic(fmt.Sprintf("daycount: unsupported convention %q", string(c)))
	}
}

func thirtyBasis(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}

func actAct(start, end time.Time) float64 {
	if !start.Before(end) {
		return -actAct(end, start)
	}
	frac := 0.0
	cur := start
	for cur.Year() < end.Year() {
		yearEnd := time.Date(cur.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
		frac += Days(cur, yearEnd) / yearLength(cur.Year())
		cur = yearEnd
	}
	frac += Days(cur, end) / yearLength(end.Year())
	return frac
}

func yearLength(year int) float64 {
	if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
		return 366.0
	}
	return 365.0
}
