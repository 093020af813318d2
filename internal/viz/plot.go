package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultWidth  = 80
	DefaultHeight = 15

	// levelScale is the fraction of the potential's span a wavefunction
	// is stretched to when drawn on top of it.
	levelScale = 0.25
)

func plotSize(width, height int) (int, int) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

// PlotPotential draws V(x) sampled on xs.
func PlotPotential(xs, vs []float64, width, height int) (string, error) {
	if len(xs) != len(vs) || len(vs) < 2 {
		return "", fmt.Errorf("potential plot needs matching x and V samples, got %d and %d", len(xs), len(vs))
	}
	width, height = plotSize(width, height)
	return asciigraph.Plot(vs,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("V(x), x in [%g, %g]", xs[0], xs[len(xs)-1])),
	), nil
}

// PlotLevel draws psi shifted to its energy on top of the potential, the
// usual textbook picture. A nil vs draws psi on its own.
func PlotLevel(xs, vs, psi []float64, energy float64, index, width, height int) (string, error) {
	if len(xs) != len(psi) || len(psi) < 2 {
		return "", fmt.Errorf("level plot needs matching x and psi samples, got %d and %d", len(xs), len(psi))
	}
	width, height = plotSize(width, height)
	caption := fmt.Sprintf("psi_%d, E=%.6f, x in [%g, %g]", index, energy, xs[0], xs[len(xs)-1])

	if vs == nil {
		return asciigraph.Plot(psi,
			asciigraph.Width(width),
			asciigraph.Height(height),
			asciigraph.Precision(3),
			asciigraph.Caption(caption),
		), nil
	}
	if len(vs) != len(psi) {
		return "", fmt.Errorf("level plot needs %d potential samples, got %d", len(psi), len(vs))
	}

	span := floats.Max(vs) - floats.Min(vs)
	peak := max(floats.Max(psi), -floats.Min(psi))
	scale := 0.0
	if peak > 0 && span > 0 {
		scale = levelScale * span / peak
	}

	shifted := make([]float64, len(psi))
	for i, p := range psi {
		shifted[i] = energy + scale*p
	}
	line := make([]float64, len(psi))
	for i := range line {
		line[i] = energy
	}

	return asciigraph.PlotMany([][]float64{vs, line, shifted},
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.DarkGray, asciigraph.Cyan),
		asciigraph.Caption(caption),
	), nil
}

// PlotSweep draws each level's energy against the swept parameter. Levels
// missing at some parameter values are left as gaps.
func PlotSweep(params []float64, spectra [][]float64, name string, width, height int) (string, error) {
	if len(params) < 2 || len(spectra) != len(params) {
		return "", fmt.Errorf("sweep plot needs one spectrum per parameter value, got %d and %d", len(params), len(spectra))
	}
	width, height = plotSize(width, height)

	levels := 0
	for _, s := range spectra {
		levels = max(levels, len(s))
	}
	if levels == 0 {
		return "", fmt.Errorf("sweep plot: no levels found")
	}

	series := make([][]float64, levels)
	for n := range series {
		series[n] = make([]float64, len(params))
		for i, s := range spectra {
			if n < len(s) {
				series[n][i] = s[n]
			} else {
				series[n][i] = math.NaN()
			}
		}
	}

	return asciigraph.PlotMany(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("E_n vs %s in [%g, %g]", name, params[0], params[len(params)-1])),
	), nil
}
