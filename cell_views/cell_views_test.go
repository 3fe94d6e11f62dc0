package cell_views

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"gridmdp/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

var classic = grid_world.MustGrid([][]string{
	{"_", "_", "_", "1"},
	{"_", "#", "_", "-1"},
	{"S", "_", "_", "_"},
})

func TestFormatValue(t *testing.T) {
	Convey("When values are formatted", t, func() {
		So(FormatValue(-0.01), ShouldEqual, "  -0.01")
		So(FormatValue(10), ShouldEqual, "  10.00")
		So(FormatValue(0.125), ShouldEqual, "   0.13")
		So(FormatValue(-0.125), ShouldEqual, "  -0.13")

		Convey("When a tiny negative value rounds to zero, no negative zero is rendered", func() {
			So(FormatValue(-0.001), ShouldEqual, "   0.00")
			So(FormatValue(math.Copysign(0, -1)), ShouldEqual, "   0.00")
		})
	})
}

func TestRender(t *testing.T) {
	Convey("When the initial values of the classic grid are rendered", t, func() {
		text := RenderValues(grid_world.NewValueFunction(classic), classic)
		So(text, ShouldEqual, strings.Join([]string{
			"|   0.00||   0.00||   0.00||   1.00|",
			"|   0.00|| ##### ||   0.00||  -1.00|",
			"|   0.00||   0.00||   0.00||   0.00|",
		}, "\n"))
	})

	Convey("When a policy is rendered", t, func() {
		policy := grid_world.NewPolicy(classic)
		policy.Set(grid_world.Coord{Row: 0, Col: 0}, grid_world.EAST)
		policy.Set(grid_world.Coord{Row: 0, Col: 3}, grid_world.EXIT)
		policy.Set(grid_world.Coord{Row: 2, Col: 1}, grid_world.WEST)

		So(RenderPolicy(policy, classic), ShouldEqual, strings.Join([]string{
			"| E ||   ||   || x |",
			"|   || # ||   ||   |",
			"|   || W ||   ||   |",
		}, "\n"))
	})

	Convey("When an episode grid is rendered", t, func() {
		grid := grid_world.MustGrid([][]string{{"S", "_", "_", "1"}, {"_", "#", "_", "-1"}})
		agent := grid_world.Coord{Row: 0, Col: 1}
		So(RenderEpisodeGrid(grid, &agent), ShouldEqual, "    S    P    _    1\n    _    #    _   -1")
		So(RenderEpisodeGrid(grid, nil), ShouldEqual, "    S    _    _    1\n    _    #    _   -1")
	})

	Convey("When rendered values are parsed back, they match to two decimals", t, func() {
		data := []float64{
			0.4567, -0.0049, 0.005, 1,
			-3.14159, 0, 12.3456, -1,
			0.999, -0.555, 2.675, 0.1,
		}
		values := grid_world.ValueFunctionFrom(3, 4, data)
		text := RenderValues(values, classic)

		for row, line := range strings.Split(text, "\n") {
			fields := strings.Split(strings.Trim(line, "|"), "||")
			So(fields, ShouldHaveLength, 4)
			for col, field := range fields {
				c := grid_world.Coord{Row: row, Col: col}
				if classic.IsWall(c) {
					So(field, ShouldEqual, " ##### ")
					continue
				}
				So(len(field), ShouldEqual, 7)
				parsed, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
				So(err, ShouldBeNil)
				So(parsed, ShouldAlmostEqual, values.At(c), 0.005+1e-9)
			}
		}
	})
}

func TestConvert(t *testing.T) {
	Convey("When cells are converted for the html view", t, func() {
		policy := grid_world.NewPolicy(classic)
		policy.Set(grid_world.Coord{Row: 2, Col: 0}, grid_world.NORTH)
		policy.Set(grid_world.Coord{Row: 0, Col: 0}, grid_world.WEST)
		cells := Convert(classic, grid_world.NewValueFunction(classic), policy)

		So(cells, ShouldHaveLength, 3)
		So(cells[0][3].Value, ShouldEqual, "1.00")
		So(cells[1][1].Value, ShouldEqual, "#####")
		So(cells[1][1].Fill, ShouldEqual, "lightgreen")
		So(cells[2][0].Policy, ShouldEqual, "N")
		So(cells[2][0].X, ShouldEqual, 0)
		So(cells[2][0].Y, ShouldEqual, 2)
		So(cells[2][0].PolicyArrowRotation, ShouldEqual, 0)
		So(cells[0][0].PolicyArrowRotation, ShouldEqual, 270)
		So(cells[0][1].Policy, ShouldEqual, "")
	})
}

func TestHeatmap(t *testing.T) {
	Convey("When a value function is adapted for a heatmap", t, func() {
		data := &ValuesDataSet{Grid: classic, Values: grid_world.NewValueFunction(classic)}
		c, r := data.Dims()
		So(c, ShouldEqual, 4)
		So(r, ShouldEqual, 3)

		// plot row 2 is grid row 0
		So(data.Z(3, 2), ShouldEqual, 1.0)
		So(data.Z(3, 1), ShouldEqual, -1.0)
		So(math.IsNaN(data.Z(1, 1)), ShouldBeTrue)
		So(data.Min(), ShouldEqual, -1.0)
		So(data.Max(), ShouldEqual, 1.0)

		Convey("When the values are flat, the range is widened", func() {
			flat := &ValuesDataSet{
				Grid:   grid_world.MustGrid([][]string{{"_", "_"}}),
				Values: grid_world.ValueFunctionFrom(1, 2, []float64{0, 0}),
			}
			So(flat.Min(), ShouldEqual, 0.0)
			So(flat.Max(), ShouldEqual, 1.0)
		})

		Convey("When the heatmap is written", func() {
			var buf bytes.Buffer
			err := WriteHeatmap(&buf, "values", classic, data.Values)
			So(err, ShouldBeNil)
			So(buf.Len(), ShouldBeGreaterThan, 8)
			So(buf.String()[:4], ShouldEqual, "\x89PNG")
		})
	})
}

func TestConvergenceChart(t *testing.T) {
	Convey("When a convergence chart is written", t, func() {
		var buf bytes.Buffer
		err := WriteConvergenceChart(&buf, "Residuals",
			ResidualSeries{Name: "NESW", Residuals: []float64{0, 0.9, 0.3, 0.1}},
			ResidualSeries{Name: "NSWE", Residuals: []float64{0, 0.9, 0.3}},
		)
		So(err, ShouldBeNil)
		So(buf.String(), ShouldContainSubstring, "Residuals")
		So(buf.String(), ShouldContainSubstring, "NSWE")
	})
}
