package shooting

import (
	"fmt"
	"math"

	"github.com/san-kum/eigensim/internal/quantum"
)

const (
	// DefaultSeed is the amplitude placed one step inside each boundary.
	DefaultSeed = 1e-5

	// MidpointEpsilon bounds |psi[mid]| relative to its neighbours before
	// the log-derivative ratio is formed.
	MidpointEpsilon = 1e-15
)

// Integrator propagates a trial wavefunction across a grid.
type Integrator interface {
	Integrate(psi0, psi1, energy float64, points []float64, h float64) (quantum.Wavefunction, error)
	IntegrateFromRight(psi0, psi1, energy float64, grid quantum.Grid) (quantum.Wavefunction, error)
	Potential() quantum.Potential
}

// Functional is a scalar function of trial energy whose sign changes mark
// eigenvalues. Implementations must be safe for concurrent use.
type Functional interface {
	Matching(energy float64) (float64, error)
}

// Matcher evaluates the two-sided log-derivative mismatch.
type Matcher struct {
	integ Integrator
	grid  quantum.Grid
	seed  float64
	mid   int
}

type Option func(*Matcher)

// WithSeed sets the boundary seed amplitude.
func WithSeed(seed float64) Option {
	return func(m *Matcher) { m.seed = seed }
}

// WithMidIndex overrides the matching index (default N/2).
func WithMidIndex(mid int) Option {
	return func(m *Matcher) { m.mid = mid }
}

func NewMatcher(integ Integrator, grid quantum.Grid, opts ...Option) (*Matcher, error) {
	if grid.Len() < quantum.MinGridPoints {
		return nil, fmt.Errorf("%w: %d points, need at least %d", quantum.ErrInvalidGrid, grid.Len(), quantum.MinGridPoints)
	}
	if !(grid.Step > 0) {
		return nil, fmt.Errorf("%w: step must be positive, got %g", quantum.ErrInvalidGrid, grid.Step)
	}

	m := &Matcher{
		integ: integ,
		grid:  grid,
		seed:  DefaultSeed,
		mid:   grid.Len() / 2,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.mid < 1 || m.mid > grid.Len()-2 {
		return nil, fmt.Errorf("%w: matching index %d outside 1..%d", quantum.ErrInvalidGrid, m.mid, grid.Len()-2)
	}
	return m, nil
}

func (m *Matcher) Grid() quantum.Grid { return m.grid }

func (m *Matcher) MidIndex() int { return m.mid }

func (m *Matcher) Seed() float64 { return m.seed }

// Left integrates from the first grid point with seeds (0, seed).
func (m *Matcher) Left(energy float64) (quantum.Wavefunction, error) {
	return m.integ.Integrate(0, m.seed, energy, m.grid.Points, m.grid.Step)
}

// Right integrates from the last grid point with seeds (0, seed) and
// returns the result aligned with the grid.
func (m *Matcher) Right(energy float64) (quantum.Wavefunction, error) {
	return m.integ.IntegrateFromRight(0, m.seed, energy, m.grid)
}

// Matching returns left_ratio - right_ratio at the matching index, where
// ratio = (psi[mid+1] - psi[mid-1]) / (2 h psi[mid]).
func (m *Matcher) Matching(energy float64) (float64, error) {
	left, err := m.Left(energy)
	if err != nil {
		return 0, err
	}
	right, err := m.Right(energy)
	if err != nil {
		return 0, err
	}

	lr, err := m.ratio(left, energy)
	if err != nil {
		return 0, err
	}
	rr, err := m.ratio(right, energy)
	if err != nil {
		return 0, err
	}

	d := lr - rr
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, &quantum.NumericalError{Op: "matching", Index: m.mid, Energy: energy, Wrapped: quantum.ErrDegenerateDenominator}
	}
	return d, nil
}

func (m *Matcher) ratio(psi quantum.Wavefunction, energy float64) (float64, error) {
	i := m.mid
	scale := math.Max(math.Abs(psi[i-1]), math.Abs(psi[i+1]))
	if math.Abs(psi[i]) <= MidpointEpsilon*scale {
		return 0, &quantum.NumericalError{Op: "matching", Index: i, Energy: energy, Wrapped: quantum.ErrDegenerateDenominator}
	}
	r := (psi[i+1] - psi[i-1]) / (2 * m.grid.Step * psi[i])
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, &quantum.NumericalError{Op: "matching", Index: i, Energy: energy, Wrapped: quantum.ErrDegenerateDenominator}
	}
	return r, nil
}

// Eigenfunction joins the left and right solutions at energy into one
// wavefunction. Each side is only trusted up to the far turning point, so
// the splice index is taken inside the classically allowed region where
// both sides carry weight. The result is not normalized.
func (m *Matcher) Eigenfunction(energy float64) (quantum.Wavefunction, error) {
	left, err := m.Left(energy)
	if err != nil {
		return nil, err
	}
	right, err := m.Right(energy)
	if err != nil {
		return nil, err
	}

	j := m.spliceIndex(left, right, energy)
	if right[j] == 0 {
		return nil, &quantum.NumericalError{Op: "splice", Index: j, Energy: energy, Wrapped: quantum.ErrDegenerateWavefunction}
	}

	scale := left[j] / right[j]
	psi := make(quantum.Wavefunction, len(left))
	copy(psi[:j+1], left[:j+1])
	for i := j + 1; i < len(psi); i++ {
		psi[i] = scale * right[i]
	}
	return psi, nil
}

func (m *Matcher) spliceIndex(left, right quantum.Wavefunction, energy float64) int {
	pot := m.integ.Potential()

	var allowed []int
	maxL, maxR := 0.0, 0.0
	for i, x := range m.grid.Points {
		if pot.Value(x) < energy {
			allowed = append(allowed, i)
			maxL = math.Max(maxL, math.Abs(left[i]))
			maxR = math.Max(maxR, math.Abs(right[i]))
		}
	}
	if len(allowed) == 0 || maxL == 0 || maxR == 0 {
		return m.mid
	}

	best, bestScore := m.mid, -1.0
	for _, i := range allowed {
		score := math.Abs(left[i]) / maxL * math.Abs(right[i]) / maxR
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
