package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/eigensim/internal/quantum"
)

// DenominatorEpsilon bounds |1 + h^2 k/12| from below before the recurrence
// divides by it.
const DenominatorEpsilon = 1e-12

// Numerov propagates psi'' = -k(x) psi with k(x) = 2m/hbar^2 (E - V(x)).
type Numerov struct {
	pot   quantum.Potential
	scale float64
}

func NewNumerov(p quantum.Params, pot quantum.Potential) *Numerov {
	return &Numerov{pot: pot, scale: 1 / p.Kinetic()}
}

func (n *Numerov) Potential() quantum.Potential { return n.pot }

func (n *Numerov) k(x, energy float64) float64 {
	return n.scale * (energy - n.pot.Value(x))
}

// Integrate runs the three-term recurrence over points in the order given.
// The result is aligned index-for-index with points; psi[0] and psi[1] are
// the seeds. h is the spacing magnitude.
func (n *Numerov) Integrate(psi0, psi1, energy float64, points []float64, h float64) (quantum.Wavefunction, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: numerov needs at least 2 points, got %d", quantum.ErrInvalidGrid, len(points))
	}
	if !(h > 0) {
		return nil, fmt.Errorf("%w: step must be positive, got %g", quantum.ErrInvalidGrid, h)
	}

	psi := make(quantum.Wavefunction, len(points))
	psi[0] = psi0
	psi[1] = psi1

	c := h * h / 12
	k0 := n.k(points[0], energy)
	k1 := n.k(points[1], energy)

	for i := 1; i < len(points)-1; i++ {
		k2 := n.k(points[i+1], energy)

		den := 1 + c*k2
		if math.Abs(den) < DenominatorEpsilon {
			return nil, &quantum.NumericalError{Op: "numerov", Index: i + 1, Energy: energy, Wrapped: quantum.ErrDegenerateDenominator}
		}

		next := (2*(1-5*c*k1)*psi[i] - (1+c*k0)*psi[i-1]) / den
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return nil, &quantum.NumericalError{Op: "numerov", Index: i + 1, Energy: energy, Wrapped: quantum.ErrDegenerateDenominator}
		}
		psi[i+1] = next

		k0, k1 = k1, k2
	}

	return psi, nil
}

// IntegrateFromRight integrates from the last grid point towards the first
// and returns the result re-aligned with grid.Points. psi0 and psi1 seed the
// two outermost points on the right.
func (n *Numerov) IntegrateFromRight(psi0, psi1, energy float64, grid quantum.Grid) (quantum.Wavefunction, error) {
	rev := grid.Reversed()
	psi, err := n.Integrate(psi0, psi1, energy, rev.Points, rev.Step)
	if err != nil {
		return nil, err
	}
	return psi.Reversed(), nil
}
