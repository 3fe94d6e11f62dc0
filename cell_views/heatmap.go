package cell_views

import (
	"fmt"
	"io"
	"math"

	"gridmdp/grid_world"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ValuesDataSet adapts a value snapshot to plotter.GridXYZ. Plot y grows upward, so grid
// rows are flipped; walls are NaN and excluded from the color range.
type ValuesDataSet struct {
	Grid   *grid_world.Grid
	Values grid_world.ValueFunction
}

var _ plotter.GridXYZ = &ValuesDataSet{}

func (d *ValuesDataSet) Dims() (c, r int) {
	return d.Grid.Cols(), d.Grid.Rows()
}

func (d *ValuesDataSet) coord(c, r int) grid_world.Coord {
	return grid_world.Coord{Row: d.Grid.Rows() - r - 1, Col: c}
}

func (d *ValuesDataSet) Z(c, r int) float64 {
	coord := d.coord(c, r)
	if d.Grid.IsWall(coord) {
		return math.NaN()
	}
	return d.Values.At(coord)
}

func (d *ValuesDataSet) X(c int) float64 {
	return float64(c)
}

func (d *ValuesDataSet) Y(r int) float64 {
	return float64(r)
}

// Min and Max span the non-wall values. A flat value function is widened by one so the
// palette scale stays finite.
func (d *ValuesDataSet) Min() float64 {
	min, _ := d.bounds()
	return min
}

func (d *ValuesDataSet) Max() float64 {
	_, max := d.bounds()
	return max
}

func (d *ValuesDataSet) bounds() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	d.Grid.Visit(func(c grid_world.Coord, cell grid_world.Cell) {
		if cell.Kind == grid_world.WALL {
			return
		}
		v := d.Values.At(c)
		min = math.Min(min, v)
		max = math.Max(max, v)
	})
	if math.IsInf(min, 1) {
		return 0, 1
	}
	if max == min {
		max = min + 1
	}
	return
}

// WriteHeatmap renders the value function as a PNG heatmap.
func WriteHeatmap(w io.Writer, title string, grid *grid_world.Grid, values grid_world.ValueFunction) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "col"
	p.Y.Label.Text = "row (bottom up)"

	heatmap := plotter.NewHeatMap(&ValuesDataSet{Grid: grid, Values: values}, palette.Heat(32, 1))
	p.Add(heatmap)

	writer, err := p.WriterTo(4*vg.Inch, 3*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("heatmap: %w", err)
	}
	if _, err = writer.WriteTo(w); err != nil {
		return fmt.Errorf("heatmap: %w", err)
	}
	return nil
}
