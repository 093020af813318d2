package quantum

import (
	"errors"
	"fmt"
)

// Domain errors for the eigensolver.
var (
	// ErrDegenerateDenominator indicates a Numerov or matching-ratio denominator near zero.
	ErrDegenerateDenominator = errors.New("quantum: degenerate denominator (near-zero division)")

	// ErrIncompleteScan indicates the scan range held fewer eigenvalues than requested.
	ErrIncompleteScan = errors.New("quantum: scan exhausted before collecting requested levels")

	// ErrRootRefinement indicates a bracketed root could not be refined.
	ErrRootRefinement = errors.New("quantum: root refinement failed")

	// ErrInvalidGrid indicates a non-monotonic, too short or non-uniform grid.
	ErrInvalidGrid = errors.New("quantum: invalid grid")

	// ErrDegenerateWavefunction indicates an all-zero or non-finite wavefunction.
	ErrDegenerateWavefunction = errors.New("quantum: degenerate wavefunction (zero norm)")

	// ErrInvalidParams indicates physical parameters outside the bound-state regime.
	ErrInvalidParams = errors.New("quantum: invalid physical parameters")
)

// NumericalError wraps a numerical failure with the trial energy and grid index.
type NumericalError struct {
	Op      string
	Index   int
	Energy  float64
	Wrapped error
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("%s: E=%.6g index %d: %v", e.Op, e.Energy, e.Index, e.Wrapped)
}

func (e *NumericalError) Unwrap() error {
	return e.Wrapped
}

// BracketError reports a failure local to one energy bracket [Lo, Hi].
type BracketError struct {
	Lo, Hi  float64
	Wrapped error
}

func (e *BracketError) Error() string {
	return fmt.Sprintf("bracket [%.6g, %.6g]: %v", e.Lo, e.Hi, e.Wrapped)
}

func (e *BracketError) Unwrap() error {
	return e.Wrapped
}
