package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/task"
)

// PlotControllability renders the controllability metrics of a network as
// an SVG bar chart in the figure root.
type PlotControllability struct {
	roots artifact.Roots
}

func (t *PlotControllability) Kind() string { return KindPlot }

func (t *PlotControllability) Requires(p task.Params) ([]task.Spec, error) {
	return []task.Spec{task.NewSpec(KindControllability, graphScope(p))}, nil
}

func (t *PlotControllability) Outputs(p task.Params) ([]artifact.Ref, error) {
	cfg, err := graphConfig(p)
	if err != nil {
		return nil, err
	}
	return []artifact.Ref{t.roots.FigureRef("controllability-" + cfg.fileStem() + ".svg")}, nil
}

func (t *PlotControllability) Run(ctx context.Context, p task.Params, inputs task.Inputs) error {
	metricRefs := inputs.ForKind(KindControllability)
	if len(metricRefs) == 0 {
		return fmt.Errorf("missing controllability input")
	}
	metrics, err := loadMetricsDoc(metricRefs[0])
	if err != nil {
		return err
	}

	refs, _ := t.Outputs(p)
	return artifact.CreateAtomic(refs[0], func(w io.Writer) error {
		return renderSVG(w, metrics)
	})
}

// renderSVG draws a two-bar chart: the fraction of matched nodes and the
// fraction of driver nodes.
func renderSVG(w io.Writer, m *MetricsDoc) error {
	const (
		width    = 420
		height   = 300
		plotBase = 250
		plotSpan = 200
		barWidth = 110
		barGap   = 60
		leftEdge = 80
	)

	matchedFrac := float64(m.MatchingSize) / float64(m.Nodes)
	bars := []struct {
		label string
		frac  float64
		fill  string
	}{
		{"matched", matchedFrac, "#4878cf"},
		{"drivers", m.DriverFraction, "#d65f5f"},
	}

	if _, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		width, height, width, height); err != nil {
		return err
	}
	fmt.Fprintf(w, `<text x="%d" y="30" font-size="16" font-family="sans-serif">Controllability: %s graph, N=%d</text>`+"\n",
		leftEdge/2, m.Graph, m.Nodes)
	fmt.Fprintf(w, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#333"/>`+"\n",
		leftEdge-10, plotBase, width-20, plotBase)

	for i, bar := range bars {
		h := int(bar.frac * plotSpan)
		x := leftEdge + i*(barWidth+barGap)
		y := plotBase - h
		fmt.Fprintf(w, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
			x, y, barWidth, h, bar.fill)
		fmt.Fprintf(w, `<text x="%d" y="%d" font-size="13" font-family="sans-serif">%s (%.2f)</text>`+"\n",
			x, plotBase+20, bar.label, bar.frac)
	}

	_, err := fmt.Fprintln(w, `</svg>`)
	return err
}
