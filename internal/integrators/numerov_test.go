package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/eigensim/internal/quantum"
)

var unitParams = quantum.Params{Hbar: 1, Mass: 1, Alpha: 1, Lambda: 2}

type harmonicWell struct{}

func (h harmonicWell) Value(x float64) float64 { return 0.5 * x * x }

func mustGrid(t testing.TB, min, max, step float64) quantum.Grid {
	t.Helper()
	g, err := quantum.NewGrid(min, max, step)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	return g
}

func TestNumerov_ZeroSeeds(t *testing.T) {
	integ := NewNumerov(unitParams, harmonicWell{})
	grid := mustGrid(t, -5, 5, 0.05)

	for _, e := range []float64{-10, -1, 0, 0.5, 3.7, 10} {
		psi, err := integ.Integrate(0, 0, e, grid.Points, grid.Step)
		if err != nil {
			t.Fatalf("E=%v: %v", e, err)
		}
		if len(psi) != grid.Len() {
			t.Fatalf("E=%v: length %d, want %d", e, len(psi), grid.Len())
		}
		for i, v := range psi {
			if v != 0 {
				t.Fatalf("E=%v: psi[%d]=%v, want 0", e, i, v)
			}
		}
	}
}

func TestNumerov_SeedsPreserved(t *testing.T) {
	integ := NewNumerov(unitParams, harmonicWell{})
	grid := mustGrid(t, -5, 5, 0.1)

	psi, err := integ.Integrate(0.25, -0.5, 1.0, grid.Points, grid.Step)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	if psi[0] != 0.25 || psi[1] != -0.5 {
		t.Errorf("seeds not preserved: got %v, %v", psi[0], psi[1])
	}

	right, err := integ.IntegrateFromRight(0.25, -0.5, 1.0, grid)
	if err != nil {
		t.Fatalf("integrate from right failed: %v", err)
	}
	n := len(right)
	if right[n-1] != 0.25 || right[n-2] != -0.5 {
		t.Errorf("right seeds not at the grid end: got %v, %v", right[n-1], right[n-2])
	}
}

func TestNumerov_FreeParticleAccuracy(t *testing.T) {
	free := quantum.PotentialFunc(func(float64) float64 { return 0 })
	integ := NewNumerov(unitParams, free)
	grid := mustGrid(t, 0, 10, 0.01)

	energy := 2.0
	k := math.Sqrt(2 * energy)
	x := grid.Points

	psi, err := integ.Integrate(math.Sin(k*x[0]), math.Sin(k*x[1]), energy, x, grid.Step)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	for i := range x {
		if math.Abs(psi[i]-math.Sin(k*x[i])) > 1e-6 {
			t.Fatalf("x=%.2f: got %.8f, expected %.8f", x[i], psi[i], math.Sin(k*x[i]))
		}
	}
}

func TestNumerov_HarmonicGroundState(t *testing.T) {
	integ := NewNumerov(unitParams, harmonicWell{})
	grid := mustGrid(t, -6, 0, 0.01)
	x := grid.Points

	gauss := func(x float64) float64 { return math.Exp(-x * x / 2) }
	psi, err := integ.Integrate(gauss(x[0]), gauss(x[1]), 0.5, x, grid.Step)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	for i := range x {
		if math.Abs(psi[i]-gauss(x[i])) > 1e-5 {
			t.Fatalf("x=%.2f: got %.8f, expected %.8f", x[i], psi[i], gauss(x[i]))
		}
	}
}

func TestNumerov_DirectionAgnostic(t *testing.T) {
	integ := NewNumerov(unitParams, harmonicWell{})
	grid := mustGrid(t, -4, 4, 0.05)
	rev := grid.Reversed()

	direct, err := integ.Integrate(0, 1e-5, 1.3, rev.Points, rev.Step)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	helper, err := integ.IntegrateFromRight(0, 1e-5, 1.3, grid)
	if err != nil {
		t.Fatalf("integrate from right failed: %v", err)
	}

	n := len(direct)
	for i := range helper {
		if helper[i] != direct[n-1-i] {
			t.Fatalf("index %d: helper %v != reversed direct %v", i, helper[i], direct[n-1-i])
		}
	}
}

func TestNumerov_Symmetric(t *testing.T) {
	integ := NewNumerov(unitParams, harmonicWell{})
	grid := mustGrid(t, -4, 4, 0.05)

	left, err := integ.Integrate(0, 1e-5, 0.9, grid.Points, grid.Step)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	right, err := integ.IntegrateFromRight(0, 1e-5, 0.9, grid)
	if err != nil {
		t.Fatalf("integrate from right failed: %v", err)
	}

	n := len(left)
	for i := range left {
		scale := math.Max(1, math.Abs(left[i]))
		if math.Abs(left[i]-right[n-1-i]) > 1e-9*scale {
			t.Fatalf("index %d: left %v, mirrored right %v", i, left[i], right[n-1-i])
		}
	}
}

func TestNumerov_DegenerateDenominator(t *testing.T) {
	flat := quantum.PotentialFunc(func(float64) float64 { return 6 })
	integ := NewNumerov(unitParams, flat)
	points := []float64{0, 1, 2, 3, 4}

	_, err := integ.Integrate(0, 1, 0, points, 1)
	if !errors.Is(err, quantum.ErrDegenerateDenominator) {
		t.Fatalf("expected ErrDegenerateDenominator, got %v", err)
	}

	var nerr *quantum.NumericalError
	if !errors.As(err, &nerr) || nerr.Index != 2 {
		t.Errorf("expected NumericalError at index 2, got %v", err)
	}
}

func TestNumerov_InvalidInput(t *testing.T) {
	integ := NewNumerov(unitParams, harmonicWell{})

	if _, err := integ.Integrate(0, 1, 0, []float64{0}, 0.1); !errors.Is(err, quantum.ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid for short grid, got %v", err)
	}
	if _, err := integ.Integrate(0, 1, 0, []float64{0, 1, 2}, 0); !errors.Is(err, quantum.ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid for zero step, got %v", err)
	}
}
