// Package shooting implements the shooting-method eigenvalue search.
//
// A [Matcher] integrates a trial wavefunction from both ends of the grid and
// compares the two log-derivatives at an interior matching point. The
// difference is a scalar functional of the trial energy whose sign changes
// mark eigenvalues. A [Scanner] samples that functional over a coarse energy
// grid, brackets every sign change and refines it with Brent's method.
//
//	integ := integrators.NewNumerov(params, pot)
//	m, _ := shooting.NewMatcher(integ, grid)
//	s, _ := shooting.NewScanner(m, shooting.DefaultScanPolicy())
//	res, _ := s.FindEigenvalues(ctx, 3)
//
// # Limitations
//
// The functional has poles wherever one of the one-sided solutions vanishes
// at the matching point. For an even potential matched at the grid center
// these poles sit on the odd-parity levels, so both zeros and poles are
// reported as eigenvalues. Two crossings inside one coarse interval cancel
// out and are not detected; the sample count bounds completeness.
package shooting
