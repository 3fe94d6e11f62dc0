package cell_views

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ResidualSeries is a named sequence of per-sweep residuals.
type ResidualSeries struct {
	Name      string
	Residuals []float64
}

// WriteConvergenceChart renders residual-per-sweep lines as a standalone html page.
// The x axis spans the longest series.
func WriteConvergenceChart(w io.Writer, title string, series ...ResidualSeries) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "max |V_k - V_k-1| per sweep",
		}),
	)

	numSweeps := 0
	for _, s := range series {
		if len(s.Residuals) > numSweeps {
			numSweeps = len(s.Residuals)
		}
	}

	var sweeps []string
	for k := 0; k < numSweeps; k++ {
		sweeps = append(sweeps, fmt.Sprintf("%d", k))
	}

	line = line.SetXAxis(sweeps)
	for _, s := range series {
		items := make([]opts.LineData, 0, len(s.Residuals))
		for _, r := range s.Residuals {
			items = append(items, opts.LineData{Value: r})
		}
		line.AddSeries(s.Name, items)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("convergence chart: %w", err)
	}
	return nil
}
