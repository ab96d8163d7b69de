package daycount_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/daycount"
)

func d(y, m, day int) time.Time {
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want daycount.Convention
	}{
		{"ACT/360", daycount.Act360},
		{"act/360", daycount.Act360},
		{" ACT/365F ", daycount.Act365F},
		{"ACT/365", daycount.Act365F},
		{"30/360", daycount.Thirty360},
		{"30E/360", daycount.ThirtyE360},
		{"ACT/ACT", daycount.ActAct},
	}
	for _, tc := range cases {
		got, err := daycount.Parse(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	_, err := daycount.Parse("ACT/252")
	require.Error(t, err)
	_, err = daycount.Parse("")
	require.Error(t, err)
}

func TestYearFractionActual(t *testing.T) {
	t.Parallel()

	start := d(2026, 1, 15)
	end := d(2026, 2, 14) // 30 actual days

	require.InDelta(t, 30.0/360.0, daycount.Act360.YearFraction(start, end), 1e-15)
	require.InDelta(t, 30.0/365.0, daycount.Act365F.YearFraction(start, end), 1e-15)
}

func TestYearFractionThirty360(t *testing.T) {
	t.Parallel()

	// A regular month is exactly 30/360 regardless of its actual length.
	require.InDelta(t, 30.0/360.0, daycount.Thirty360.YearFraction(d(2026, 2, 10), d(2026, 3, 10)), 1e-15)

	// US basis: end-of-month 31st rolls to 30 only when the start is >= 30.
	us := daycount.Thirty360.YearFraction(d(2026, 1, 30), d(2026, 3, 31))
	require.InDelta(t, 60.0/360.0, us, 1e-15)

	// Eurobond basis caps both ends at 30 unconditionally.
	eu := daycount.ThirtyE360.YearFraction(d(2026, 1, 15), d(2026, 1, 31))
	require.InDelta(t, 15.0/360.0, eu, 1e-15)
}

func TestYearFractionActAct(t *testing.T) {
	t.Parallel()

	// One full non-leap year.
	require.InDelta(t, 1.0, daycount.ActAct.YearFraction(d(2026, 3, 1), d(2027, 3, 1)), 1e-12)

	// Spanning a leap year boundary: each slice uses its own year length.
	got := daycount.ActAct.YearFraction(d(2027, 12, 31), d(2028, 1, 2))
	want := 1.0/365.0 + 1.0/366.0
	require.InDelta(t, want, got, 1e-12)

	// Reversed interval is the negation.
	fwd := daycount.ActAct.YearFraction(d(2026, 1, 1), d(2026, 7, 1))
	rev := daycount.ActAct.YearFraction(d(2026, 7, 1), d(2026, 1, 1))
	require.InDelta(t, -fwd, rev, 1e-15)
}

func TestYearFractionUnknownPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		daycount.Convention("BUS/252").YearFraction(d(2026, 1, 1), d(2026, 2, 1))
	})
}
