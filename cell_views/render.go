// cell_views renders value functions and policies as the fixed-width, bar-delimited
// grids of the solver documents, plus the views derived from them for the web page and plots.
package cell_views

import (
	"fmt"
	"math"
	"strings"

	"gridmdp/grid_world"
)

const (
	wallValueCell  = " ##### "
	wallPolicyCell = " # "
	emptyPolicy    = "   "
	episodeWidth   = 5
	agentToken     = "P"
)

// RoundHalfAway rounds to two decimals, halves away from zero, and never returns -0.
func RoundHalfAway(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// drop negative zero
		r = 0
	}
	return r
}

// FormatValue renders a value right-aligned in a 7 character field with two decimals.
func FormatValue(v float64) string {
	return fmt.Sprintf("%7.2f", RoundHalfAway(v))
}

// RenderValues renders one row per grid row, top to bottom: |v||v||...|.
func RenderValues(values grid_world.ValueFunction, grid *grid_world.Grid) string {
	return renderRows(grid, func(c grid_world.Coord, cell grid_world.Cell) string {
		if cell.Kind == grid_world.WALL {
			return wallValueCell
		}
		return FormatValue(values.At(c))
	})
}

// RenderPolicy renders the action letters centered in 3 character fields.
func RenderPolicy(policy *grid_world.Policy, grid *grid_world.Grid) string {
	return renderRows(grid, func(c grid_world.Coord, cell grid_world.Cell) string {
		if cell.Kind == grid_world.WALL {
			return wallPolicyCell
		}
		action := policy.At(c)
		if action == grid_world.NO_ACTION {
			return emptyPolicy
		}
		return " " + action.Letter() + " "
	})
}

// RenderEpisodeGrid renders the grid tokens right-aligned in 5 character fields, with the
// agent shown as P. A nil agent renders the bare grid, e.g. after the agent has exited.
func RenderEpisodeGrid(grid *grid_world.Grid, agent *grid_world.Coord) string {
	lines := make([]string, 0, grid.Rows())
	var sb strings.Builder
	for row := 0; row < grid.Rows(); row++ {
		sb.Reset()
		for col := 0; col < grid.Cols(); col++ {
			c := grid_world.Coord{Row: row, Col: col}
			token := grid.Token(c)
			if agent != nil && *agent == c {
				token = agentToken
			}
			fmt.Fprintf(&sb, "%*s", episodeWidth, token)
		}
		lines = append(lines, sb.String())
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \n")
}

func renderRows(grid *grid_world.Grid, cellFn func(grid_world.Coord, grid_world.Cell) string) string {
	lines := make([]string, 0, grid.Rows())
	fields := make([]string, grid.Cols())
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; col < grid.Cols(); col++ {
			c := grid_world.Coord{Row: row, Col: col}
			fields[col] = cellFn(c, grid.CellAt(c))
		}
		lines = append(lines, "|"+strings.Join(fields, "||")+"|")
	}
	return strings.Join(lines, "\n")
}
