package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/eigensim/internal/quantum"
)

// Normalize returns a copy of psi scaled so that sum(psi^2)*h == 1.
func Normalize(psi quantum.Wavefunction, h float64) (quantum.Wavefunction, error) {
	if !(h > 0) {
		return nil, fmt.Errorf("%w: step must be positive, got %g", quantum.ErrInvalidGrid, h)
	}
	if !psi.IsValid() {
		return nil, fmt.Errorf("%w: non-finite amplitudes", quantum.ErrDegenerateWavefunction)
	}

	peak := psi.MaxAbs()
	if peak == 0 {
		return nil, fmt.Errorf("%w: all %d amplitudes are zero", quantum.ErrDegenerateWavefunction, len(psi))
	}

	// Divide by the peak first so the sum of squares cannot overflow.
	out := make(quantum.Wavefunction, len(psi))
	floats.ScaleTo(out, 1/peak, psi)

	norm := math.Sqrt(floats.Dot(out, out) * h)
	if !(norm > 0) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: norm %g", quantum.ErrDegenerateWavefunction, norm)
	}
	floats.Scale(1/norm, out)
	return out, nil
}

// Probability returns sum(psi^2)*h.
func Probability(psi quantum.Wavefunction, h float64) float64 {
	return floats.Dot(psi, psi) * h
}

// CountNodes counts sign changes of psi, ignoring samples whose magnitude
// is at most eps times the peak amplitude.
func CountNodes(psi quantum.Wavefunction, eps float64) int {
	threshold := eps * psi.MaxAbs()
	nodes := 0
	last := 0.0
	for _, v := range psi {
		if math.Abs(v) <= threshold {
			continue
		}
		if last != 0 && (v > 0) != (last > 0) {
			nodes++
		}
		last = v
	}
	return nodes
}
