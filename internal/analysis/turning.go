package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/eigensim/internal/quantum"
)

// ErrInvalidRange indicates an unusable sampling range, count or tolerance.
var ErrInvalidRange = errors.New("analysis: invalid sampling range")

// Range is a closed position interval.
type Range struct {
	Min float64 `json:"min" yaml:"min" toml:"min"`
	Max float64 `json:"max" yaml:"max" toml:"max"`
}

// TurningPoints samples r uniformly and returns every sample x with
// |V(x) - energy| <= tol, in sampling order.
func TurningPoints(pot quantum.Potential, energy float64, r Range, samples int, tol float64) ([]float64, error) {
	if samples < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidRange, samples)
	}
	if !(r.Max > r.Min) {
		return nil, fmt.Errorf("%w: max %g must exceed min %g", ErrInvalidRange, r.Max, r.Min)
	}
	if tol < 0 || math.IsNaN(tol) {
		return nil, fmt.Errorf("%w: tolerance must be non-negative, got %g", ErrInvalidRange, tol)
	}

	xs := floats.Span(make([]float64, samples), r.Min, r.Max)
	var out []float64
	for _, x := range xs {
		if math.Abs(pot.Value(x)-energy) <= tol {
			out = append(out, x)
		}
	}
	return out, nil
}
