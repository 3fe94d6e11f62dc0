package cell_views

import (
	"strings"

	"gridmdp/grid_world"
)

// Cell is a view-model of one grid position, with fields immediately usable as template
// parameters. X is the column and Y the row, both in svg orientation (0,0 at top left),
// which coincides with the grid's own orientation.
type Cell struct {
	X, Y   int
	Value  string
	Policy string
	// PolicyArrowRotation is the svg rotate() angle of an upward arrow for compass policies.
	PolicyArrowRotation int
	Fill                string
}

// Convert transforms a value snapshot, and optionally a policy, into cells indexed [row][col].
func Convert(grid *grid_world.Grid, values grid_world.ValueFunction, policy *grid_world.Policy) (cells [][]Cell) {
	cells = make([][]Cell, grid.Rows())
	for row := range cells {
		cells[row] = make([]Cell, grid.Cols())
	}

	grid.Visit(func(c grid_world.Coord, cell grid_world.Cell) {
		view := Cell{
			X:    c.Col,
			Y:    c.Row,
			Fill: getFill(cell.Kind),
		}
		if cell.Kind == grid_world.WALL {
			view.Value = strings.TrimSpace(wallValueCell)
		} else {
			view.Value = strings.TrimSpace(FormatValue(values.At(c)))
		}
		if policy != nil && cell.Kind != grid_world.WALL {
			if action := policy.At(c); action != grid_world.NO_ACTION {
				view.Policy = action.Letter()
				view.PolicyArrowRotation = getDegrees(action)
			}
		}
		cells[c.Row][c.Col] = view
	})
	return
}

// getDegrees is the clockwise rotation from north, in svg's rotate() convention.
func getDegrees(action grid_world.Action) int {
	if !action.IsMove() {
		return 0
	}
	return 90 * int(action)
}

func getFill(kind grid_world.CellKind) (fill string) {
	switch kind {
	case grid_world.WALL:
		fill = "lightgreen"
	case grid_world.FREE:
		fill = "lightgray"
	case grid_world.START:
		fill = "lightblue"
	case grid_world.TERMINAL:
		fill = "lightyellow"
	}
	return
}
