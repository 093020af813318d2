package optim

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotBracketed indicates f(a) and f(b) share a sign.
	ErrNotBracketed = errors.New("optim: root not bracketed")

	// ErrNoConvergence indicates the iteration budget ran out.
	ErrNoConvergence = errors.New("optim: no convergence within iteration budget")
)

// Func is a scalar function that may fail at some arguments.
type Func func(x float64) (float64, error)

// Root is the result of a bracketing solve.
type Root struct {
	X          float64
	F          float64
	Iterations int
}

const machEps = 2.220446049250313e-16

// Brent finds a root of f in [a, b] with Brent's method: inverse quadratic
// interpolation or secant steps, falling back to bisection whenever the
// interpolated step would leave the bracket or converge too slowly.
// The returned X is within tol of a sign change of f.
func Brent(f Func, a, b, tol float64, maxIter int) (Root, error) {
	fa, err := f(a)
	if err != nil {
		return Root{}, fmt.Errorf("evaluating f(%g): %w", a, err)
	}
	fb, err := f(b)
	if err != nil {
		return Root{}, fmt.Errorf("evaluating f(%g): %w", b, err)
	}

	if fa == 0 {
		return Root{X: a, F: fa}, nil
	}
	if fb == 0 {
		return Root{X: b, F: fb}, nil
	}
	if (fa > 0) == (fb > 0) {
		return Root{}, fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", ErrNotBracketed, a, fa, b, fb)
	}

	c, fc := b, fb
	var d, e float64

	for iter := 1; iter <= maxIter; iter++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machEps*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return Root{X: b, F: fb, Iterations: iter}, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			var p, q float64
			s := fb / fa
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				qa := fa / fc
				r := fb / fc
				p = s * (2*xm*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)

			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}

		fb, err = f(b)
		if err != nil {
			return Root{X: b, Iterations: iter}, fmt.Errorf("evaluating f(%g): %w", b, err)
		}
	}

	return Root{X: b, F: fb, Iterations: maxIter}, fmt.Errorf("%w: %d iterations", ErrNoConvergence, maxIter)
}
