package quantum

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Params holds the physical constants shared by every stage of the solver.
type Params struct {
	Hbar   float64 `json:"hbar" yaml:"hbar" toml:"hbar"`
	Mass   float64 `json:"mass" yaml:"mass" toml:"mass"`
	Alpha  float64 `json:"alpha" yaml:"alpha" toml:"alpha"`
	Lambda float64 `json:"lambda" yaml:"lambda" toml:"lambda"`
}

func DefaultParams() Params {
	return Params{Hbar: 1, Mass: 1, Alpha: 1, Lambda: 4}
}

// Validate requires positive constants and lambda > 1.
func (p Params) Validate() error {
	switch {
	case !(p.Hbar > 0) || math.IsInf(p.Hbar, 0):
		return fmt.Errorf("%w: hbar must be positive, got %g", ErrInvalidParams, p.Hbar)
	case !(p.Mass > 0) || math.IsInf(p.Mass, 0):
		return fmt.Errorf("%w: mass must be positive, got %g", ErrInvalidParams, p.Mass)
	case !(p.Alpha > 0) || math.IsInf(p.Alpha, 0):
		return fmt.Errorf("%w: alpha must be positive, got %g", ErrInvalidParams, p.Alpha)
	case !(p.Lambda > 1) || math.IsInf(p.Lambda, 0):
		return fmt.Errorf("%w: lambda must exceed 1, got %g", ErrInvalidParams, p.Lambda)
	}
	return nil
}

// Kinetic returns hbar^2/(2m).
func (p Params) Kinetic() float64 {
	return p.Hbar * p.Hbar / (2 * p.Mass)
}

// Potential is a scalar potential energy V(x).
type Potential interface {
	Value(x float64) float64
}

// PotentialFunc adapts a plain function to Potential.
type PotentialFunc func(x float64) float64

func (f PotentialFunc) Value(x float64) float64 { return f(x) }

const (
	// MinGridPoints is the shortest grid the three-term recurrence and a
	// centered matching point can work with.
	MinGridPoints = 4

	spacingTolerance = 1e-9
)

// Grid is an ordered, uniformly spaced set of positions. Step is the
// magnitude of the spacing; Points may be ascending or descending.
type Grid struct {
	Points []float64
	Step   float64
}

// NewGrid builds an ascending grid from min to max (inclusive, rounded to
// the nearest whole number of steps).
func NewGrid(min, max, step float64) (Grid, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return Grid{}, fmt.Errorf("%w: step must be positive, got %g", ErrInvalidGrid, step)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return Grid{}, fmt.Errorf("%w: bounds must be finite", ErrInvalidGrid)
	}
	if max <= min {
		return Grid{}, fmt.Errorf("%w: max %g must exceed min %g", ErrInvalidGrid, max, min)
	}

	n := int(math.Round((max-min)/step)) + 1
	if n < MinGridPoints {
		return Grid{}, fmt.Errorf("%w: %d points, need at least %d", ErrInvalidGrid, n, MinGridPoints)
	}

	upper := min + float64(n-1)*step
	points := floats.Span(make([]float64, n), min, upper)
	return Grid{Points: points, Step: (upper - min) / float64(n-1)}, nil
}

// GridFromPoints validates an existing ordered point set.
func GridFromPoints(points []float64) (Grid, error) {
	if len(points) < MinGridPoints {
		return Grid{}, fmt.Errorf("%w: %d points, need at least %d", ErrInvalidGrid, len(points), MinGridPoints)
	}

	d := points[1] - points[0]
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return Grid{}, fmt.Errorf("%w: non-positive spacing at index 0", ErrInvalidGrid)
	}
	for i := 1; i < len(points); i++ {
		di := points[i] - points[i-1]
		if (di > 0) != (d > 0) || di == 0 {
			return Grid{}, fmt.Errorf("%w: not strictly monotonic at index %d", ErrInvalidGrid, i)
		}
		if math.Abs(di-d) > spacingTolerance*math.Abs(d)+1e-12 {
			return Grid{}, fmt.Errorf("%w: non-uniform spacing at index %d", ErrInvalidGrid, i)
		}
	}

	pts := slices.Clone(points)
	h := math.Abs(pts[len(pts)-1]-pts[0]) / float64(len(pts)-1)
	return Grid{Points: pts, Step: h}, nil
}

func (g Grid) Len() int { return len(g.Points) }

func (g Grid) Min() float64 { return math.Min(g.Points[0], g.Points[len(g.Points)-1]) }

func (g Grid) Max() float64 { return math.Max(g.Points[0], g.Points[len(g.Points)-1]) }

func (g Grid) Ascending() bool { return len(g.Points) > 1 && g.Points[1] > g.Points[0] }

// Reversed returns a new grid traversing the same points in the opposite order.
func (g Grid) Reversed() Grid {
	return Grid{Points: Reverse(g.Points), Step: g.Step}
}

// Sample evaluates pot at every grid point.
func (g Grid) Sample(pot Potential) []float64 {
	out := make([]float64, len(g.Points))
	for i, x := range g.Points {
		out[i] = pot.Value(x)
	}
	return out
}

// Reverse returns a reversed copy of s.
func Reverse(s []float64) []float64 {
	out := slices.Clone(s)
	slices.Reverse(out)
	return out
}

// Wavefunction holds amplitudes aligned with the grid they were produced on.
type Wavefunction []float64

func (w Wavefunction) Clone() Wavefunction {
	c := make(Wavefunction, len(w))
	copy(c, w)
	return c
}

func (w Wavefunction) IsValid() bool {
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsZero reports whether every amplitude is within eps of zero.
func (w Wavefunction) IsZero(eps float64) bool {
	for _, v := range w {
		if math.Abs(v) > eps {
			return false
		}
	}
	return true
}

func (w Wavefunction) Reversed() Wavefunction {
	return Wavefunction(Reverse(w))
}

// MaxAbs returns the largest amplitude magnitude.
func (w Wavefunction) MaxAbs() float64 {
	m := 0.0
	for _, v := range w {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
