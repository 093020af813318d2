// Package physics provides the potential energy model the solver is wired to.
//
// [PoschlTeller] implements [quantum.Potential] for the shifted hyperbolic
// well and carries its closed-form level formula, which is used only as a
// reference when reporting relative errors:
//
//	pot, _ := physics.NewPoschlTeller(quantum.DefaultParams())
//	v := pot.Value(0.3)
//	e0, _ := pot.ReferenceLevel(0)
//
// Models are immutable; [PoschlTeller.WithParam] returns a new instance.
package physics
