// Package analysis post-processes solved levels.
//
//   - [TurningPoints]: sampled positions where V(x) is within a band of E
//   - [Normalize]: rescales a wavefunction to unit probability on its grid
//   - [CountNodes]: sign changes of a wavefunction, which label the level
//
// # Turning Points
//
// [TurningPoints] is an approximate sampling search, not a root solve.
// Adjacent samples inside the tolerance band are all reported, so a single
// crossing may appear as a small cluster; a band narrower than the sample
// spacing can miss a crossing entirely:
//
//	pts, _ := analysis.TurningPoints(pot, e, analysis.Range{Min: -5, Max: 5}, 2000, 0.02)
package analysis
