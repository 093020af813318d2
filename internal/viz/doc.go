// Package viz renders solver output for the terminal.
//
//   - [PlotPotential] and [PlotLevel]: asciigraph line plots
//   - [RenderReport]: the level table shown after a solve
//   - [Browser]: a Bubble Tea model for paging through saved levels
//
// # Key Bindings
//
//	←/→, h/l  - Previous/next level
//	p         - Toggle the potential overlay
//	q, Esc    - Quit
package viz
