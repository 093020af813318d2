package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/eigensim/internal/storage"
)

// Browser pages through the levels of a saved run.
type Browser struct {
	meta          *storage.RunMetadata
	xs, vs        []float64
	psis          [][]float64
	cursor        int
	showPotential bool
	width, height int
}

func NewBrowser(meta *storage.RunMetadata, xs, vs []float64, psis [][]float64) *Browser {
	return &Browser{
		meta:          meta,
		xs:            xs,
		vs:            vs,
		psis:          psis,
		showPotential: true,
		width:         DefaultWidth,
		height:        24,
	}
}

func (b *Browser) Cursor() int { return b.cursor }

func (b *Browser) Init() tea.Cmd { return nil }

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return b, tea.Quit
		case "right", "l", "n":
			if b.cursor < len(b.psis)-1 {
				b.cursor++
			}
		case "left", "h", "b":
			if b.cursor > 0 {
				b.cursor--
			}
		case "home", "g":
			b.cursor = 0
		case "end", "G":
			b.cursor = max(len(b.psis)-1, 0)
		case "p":
			b.showPotential = !b.showPotential
		}
	}
	return b, nil
}

func (b *Browser) View() string {
	var s strings.Builder
	s.WriteString(TitleStyle.Render(b.meta.ID))
	s.WriteString("\n")

	if len(b.psis) == 0 || len(b.meta.Levels) == 0 {
		s.WriteString(Subtle.Render("no levels saved"))
		s.WriteString("\n")
		s.WriteString(KeyHint.Render("q quit"))
		return s.String()
	}

	lvl := b.meta.Levels[min(b.cursor, len(b.meta.Levels)-1)]
	fmt.Fprintf(&s, "%s %d/%d  %s %s  %s %d  %s %s\n",
		MetricLabel.Render("level"), b.cursor+1, len(b.psis),
		MetricLabel.Render("E"), MetricValue.Render(fmt.Sprintf("%.10f", lvl.Energy)),
		MetricLabel.Render("nodes"), lvl.Nodes,
		MetricLabel.Render("turning"), formatTurning(lvl.TurningPoints))
	if lvl.Reference != nil {
		fmt.Fprintf(&s, "%s %.6f  %s %.2e\n",
			MetricLabel.Render("reference"), *lvl.Reference,
			MetricLabel.Render("rel err"), *lvl.RelError)
	}

	var vs []float64
	if b.showPotential {
		vs = b.vs
	}
	plotW := max(b.width-12, 20)
	plotH := max(b.height-10, 5)
	graph, err := PlotLevel(b.xs, vs, b.psis[b.cursor], lvl.Energy, lvl.Index, plotW, plotH)
	if err != nil {
		graph = StatusWarn.Render(err.Error())
	}
	s.WriteString(Panel.Render(graph))
	s.WriteString("\n")
	s.WriteString(Sparkline(b.psis[b.cursor], plotW))
	s.WriteString("\n")
	s.WriteString(KeyHint.Render("←/→ level  p potential  q quit"))
	return s.String()
}
