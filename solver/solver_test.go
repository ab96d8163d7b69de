package solver_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/solver"
)

// quadratic has roots at +2 and -2.
func quadratic(x float64) (float64, float64) {
	return x*x - 4, 2 * x
}

func TestNewton(t *testing.T) {
	t.Parallel()

	x, err := solver.Newton("quadratic", quadratic, 3, solver.DefaultSettings)
	require.NoError(t, err)
	require.InDelta(t, 2.0, x, 1e-9)

	x, err = solver.Newton("quadratic", quadratic, -5, solver.DefaultSettings)
	require.NoError(t, err)
	require.InDelta(t, -2.0, x, 1e-9)
}

func TestNewtonFlatDerivative(t *testing.T) {
	t.Parallel()

	flat := func(x float64) (float64, float64) { return 1.0, 0.0 }
	_, err := solver.Newton("flat", flat, 0, solver.DefaultSettings)
	require.Error(t, err)
	require.ErrorIs(t, err, solver.ErrNoConvergence)

	var nc *solver.NoConvergenceError
	require.ErrorAs(t, err, &nc)
	require.Equal(t, "flat", nc.Op)
}

func TestNewtonDeadline(t *testing.T) {
	t.Parallel()

	s := solver.DefaultSettings
	s.Deadline = time.Now().Add(-time.Second)
	_, err := solver.Newton("expired", quadratic, 100, s)
	require.ErrorIs(t, err, solver.ErrNoConvergence)
}

func TestBisect(t *testing.T) {
	t.Parallel()

	f := func(x float64) float64 { return math.Cos(x) }
	x, err := solver.Bisect("cosine", f, 1, 2, solver.DefaultSettings)
	require.NoError(t, err)
	require.InDelta(t, math.Pi/2, x, 1e-9)
}

func TestBisectNoSignChange(t *testing.T) {
	t.Parallel()

	f := func(x float64) float64 { return x*x + 1 }
	_, err := solver.Bisect("positive", f, -1, 1, solver.DefaultSettings)
	require.ErrorIs(t, err, solver.ErrNoConvergence)
}

func TestSolveFallsBackToBisection(t *testing.T) {
	t.Parallel()

	// cbrt has an unbounded derivative ratio near its root; undamped Newton
	// oscillates and diverges from a far guess, so the bracket must rescue
	// the search.
	cbrt := func(x float64) (float64, float64) {
		return math.Cbrt(x), 1.0 / (3.0 * math.Pow(math.Abs(x), 2.0/3.0))
	}
	s := solver.Settings{Tolerance: 1e-9, MaxIterations: 200}
	x, err := solver.Solve("cbrt", cbrt, 1.0, -2, 3, s)
	require.NoError(t, err)
	require.InDelta(t, 0.0, x, 1e-9)
}

func TestSolveNoBracketSurfacesNewtonError(t *testing.T) {
	t.Parallel()

	flat := func(x float64) (float64, float64) { return 1.0, 0.0 }
	_, err := solver.Solve("flat", flat, 0, 1, 1, solver.DefaultSettings)
	require.Error(t, err)

	var nc *solver.NoConvergenceError
	require.ErrorAs(t, err, &nc)
	require.ErrorIs(t, err, solver.ErrNoConvergence)
}
