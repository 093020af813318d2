package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var levelColors = []string{"#00ccff", "#ff00ff", "#00ff88", "#ffcc00", "#ff4444"}

// Figure is the data drawn by LevelsSVG: the potential and one
// wavefunction per energy, all sampled on X.
type Figure struct {
	X             []float64
	Potential     []float64
	Wavefunctions [][]float64
	Energies      []float64
}

func (f Figure) validate() error {
	if len(f.X) < 2 || len(f.Potential) != len(f.X) {
		return fmt.Errorf("svg: need matching x and potential samples, got %d and %d", len(f.X), len(f.Potential))
	}
	if len(f.Wavefunctions) != len(f.Energies) {
		return fmt.Errorf("svg: %d wavefunctions for %d energies", len(f.Wavefunctions), len(f.Energies))
	}
	for i, psi := range f.Wavefunctions {
		if len(psi) != len(f.X) {
			return fmt.Errorf("svg: wavefunction %d has %d samples, want %d", i, len(psi), len(f.X))
		}
	}
	return nil
}

// LevelsSVG writes the potential with each wavefunction drawn at its
// energy, scaled to a quarter of the potential's span.
func LevelsSVG(w io.Writer, f Figure, width, height float64) error {
	if err := f.validate(); err != nil {
		return err
	}

	xMin, xMax := f.X[0], f.X[len(f.X)-1]
	yMin, yMax := floats.Min(f.Potential), floats.Max(f.Potential)
	if span := yMax - yMin; span == 0 {
		yMin, yMax = yMin-1, yMax+1
	}
	const pad = 0.1
	yLo, yHi := yMin-pad*(yMax-yMin), yMax+pad*(yMax-yMin)

	px := func(x float64) float64 { return (x - xMin) / (xMax - xMin) * width }
	py := func(y float64) float64 { return height - (y-yLo)/(yHi-yLo)*height }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	sb.WriteString(polyline(f.X, f.Potential, px, py, "#ffffff", 2))

	scale := 0.25 * (yMax - yMin)
	for i, psi := range f.Wavefunctions {
		e := f.Energies[i]
		color := levelColors[i%len(levelColors)]
		fmt.Fprintf(&sb, `<line x1="0" y1="%.2f" x2="%.0f" y2="%.2f" stroke="#444466" stroke-dasharray="4 4"/>
`, py(e), width, py(e))

		peak := math.Max(floats.Max(psi), -floats.Min(psi))
		shifted := make([]float64, len(psi))
		for j, p := range psi {
			shifted[j] = e
			if peak > 0 {
				shifted[j] += scale * p / peak
			}
		}
		sb.WriteString(polyline(f.X, shifted, px, py, color, 1.5))
		fmt.Fprintf(&sb, `<text x="4" y="%.2f" fill="%s" font-family="monospace" font-size="12">E%d=%.6f</text>
`, py(e)-4, color, i, e)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func polyline(xs, ys []float64, px, py func(float64) float64, color string, stroke float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<polyline fill="none" stroke="%s" stroke-width="%.1f" points="`, color, stroke)
	for i := range xs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.2f,%.2f", px(xs[i]), py(ys[i]))
	}
	sb.WriteString("\"/>\n")
	return sb.String()
}
