package viz

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/eigensim/internal/storage"
)

func formatTurning(tps []float64) string {
	switch len(tps) {
	case 0:
		return "-"
	case 1:
		return fmt.Sprintf("%.3f", tps[0])
	}
	return fmt.Sprintf("%.3f .. %.3f (%d)", tps[0], tps[len(tps)-1], len(tps))
}

// RenderReport formats a run summary with its level table.
func RenderReport(meta *storage.RunMetadata) string {
	var b strings.Builder

	title := meta.Model
	if meta.ID != "" {
		title = meta.ID
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	p := meta.Params
	fmt.Fprintf(&b, "%s hbar=%g mass=%g alpha=%g lambda=%g\n",
		MetricLabel.Render("params"), p.Hbar, p.Mass, p.Alpha, p.Lambda)
	fmt.Fprintf(&b, "%s [%g, %g] step %g (%d points)\n",
		MetricLabel.Render("grid  "), meta.Grid.Min, meta.Grid.Max, meta.Grid.Step, meta.Grid.Points)
	fmt.Fprintf(&b, "%s [%g, %g] x %d, tol %g\n",
		MetricLabel.Render("scan  "), meta.Scan.EMin, meta.Scan.EMax, meta.Scan.Samples, meta.Scan.Tolerance)

	status := StatusOK.Render(fmt.Sprintf("%d/%d levels", len(meta.Levels), meta.Requested))
	if !meta.Complete || len(meta.Warnings) > 0 {
		status = StatusWarn.Render(fmt.Sprintf("%d/%d levels", len(meta.Levels), meta.Requested))
	}
	fmt.Fprintf(&b, "%s %s in %.1fms\n\n", MetricLabel.Render("found "), status, meta.ElapsedMS)

	if len(meta.Levels) > 0 {
		w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "N\tENERGY\tREFERENCE\tREL ERR\tNODES\tTURNING POINTS")
		for _, l := range meta.Levels {
			ref, rel := "-", "-"
			if l.Reference != nil {
				ref = fmt.Sprintf("%.6f", *l.Reference)
				rel = fmt.Sprintf("%.2e", *l.RelError)
			}
			fmt.Fprintf(w, "%d\t%.10f\t%s\t%s\t%d\t%s\n",
				l.Index, l.Energy, ref, rel, l.Nodes, formatTurning(l.TurningPoints))
		}
		w.Flush()
	}

	for _, warn := range meta.Warnings {
		fmt.Fprintf(&b, "%s %s\n", StatusWarn.Render("warning:"), warn)
	}
	return b.String()
}
