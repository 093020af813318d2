package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/eigensim/internal/quantum"
)

// PoschlTeller is the shifted hyperbolic well
//
//	V(x) = C * (0.5 - sech^2(alpha*x)),  C = hbar^2/(2m) * alpha^2 * lambda*(lambda-1)
//
// It is even in x, bounded above by C/2 and bottoms out at -C/2.
type PoschlTeller struct {
	params   quantum.Params
	strength float64
}

func NewPoschlTeller(p quantum.Params) (*PoschlTeller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &PoschlTeller{
		params:   p,
		strength: p.Kinetic() * p.Alpha * p.Alpha * p.Lambda * (p.Lambda - 1),
	}, nil
}

func (w *PoschlTeller) Value(x float64) float64 {
	c := math.Cosh(w.params.Alpha * x)
	return w.strength * (0.5 - 1/(c*c))
}

func (w *PoschlTeller) Params() quantum.Params { return w.params }

// Strength returns the prefactor C.
func (w *PoschlTeller) Strength() float64 { return w.strength }

// Ceiling is the asymptotic value V(±inf) = C/2.
func (w *PoschlTeller) Ceiling() float64 { return 0.5 * w.strength }

// Floor is the well bottom V(0) = -C/2.
func (w *PoschlTeller) Floor() float64 { return -0.5 * w.strength }

// BoundStates returns how many levels lie below the ceiling.
func (w *PoschlTeller) BoundStates() int {
	n := int(math.Ceil(w.params.Lambda-1)) - 1
	if n < 0 {
		return 0
	}
	return n + 1
}

// ReferenceLevel returns the closed-form energy of level n,
// C/2 - hbar^2 alpha^2/(2m) * (lambda-1-n)^2. It is only used for comparison.
func (w *PoschlTeller) ReferenceLevel(n int) (float64, error) {
	if n < 0 || n >= w.BoundStates() {
		return 0, fmt.Errorf("%w: level %d outside 0..%d", quantum.ErrInvalidParams, n, w.BoundStates()-1)
	}
	k := w.params.Lambda - 1 - float64(n)
	return w.Ceiling() - w.params.Kinetic()*w.params.Alpha*w.params.Alpha*k*k, nil
}

func (w *PoschlTeller) GetParams() map[string]float64 {
	return map[string]float64{
		"hbar":   w.params.Hbar,
		"mass":   w.params.Mass,
		"alpha":  w.params.Alpha,
		"lambda": w.params.Lambda,
	}
}

// WithParam returns a copy of the model with one parameter replaced.
func (w *PoschlTeller) WithParam(name string, value float64) (*PoschlTeller, error) {
	p := w.params
	switch name {
	case "hbar":
		p.Hbar = value
	case "mass":
		p.Mass = value
	case "alpha":
		p.Alpha = value
	case "lambda":
		p.Lambda = value
	default:
		return nil, fmt.Errorf("%w: unknown parameter %q", quantum.ErrInvalidParams, name)
	}
	return NewPoschlTeller(p)
}
