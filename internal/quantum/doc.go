// Package quantum provides the core primitives for the one-dimensional
// bound-state problem.
//
// The package defines the shared, read-only inputs of the shooting solver
// and the error kinds every stage reports:
//
//   - [Params]: reduced Planck constant, mass and potential shape
//   - [Grid]: uniform, strictly monotonic discretization domain
//   - [Wavefunction]: amplitudes aligned index-for-index with a grid
//   - [Potential]: scalar potential energy V(x)
//
// # Example
//
//	p := quantum.Params{Hbar: 1, Mass: 1, Alpha: 1, Lambda: 4}
//	grid, _ := quantum.NewGrid(-10, 10, 0.05)
//	pot, _ := physics.NewPoschlTeller(p)
//	num := integrators.NewNumerov(p, pot)
//	psi, _ := num.Integrate(0, 1e-5, -1.5, grid.Points, grid.Step)
//
// # Thread Safety
//
// Params and Grid are immutable after construction and may be shared
// between goroutines. Wavefunctions are owned by the call that produced them.
package quantum
