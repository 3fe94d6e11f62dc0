package grid_world

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord is a grid position. Rows grow downward from the top of the grid, as printed.
// Coord is the only state representation; there is no velocity or other substate.
type Coord struct {
	Row, Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Add returns the coordinate displaced by the passed offset.
func (c Coord) Add(offset Coord) Coord {
	return Coord{Row: c.Row + offset.Row, Col: c.Col + offset.Col}
}

// CellKind is the type of a grid cell.
type CellKind int

const (
	FREE CellKind = iota
	START
	WALL
	TERMINAL
)

// Grid cell tokens.
const (
	FreeToken     = "_"
	StartToken    = "S"
	WallToken     = "#"
	WideWallToken = "#####"
)

// Cell is a single typed grid position. Reward is only meaningful for TERMINAL cells.
type Cell struct {
	Kind   CellKind
	Reward float64
	// Token is the input token the cell was parsed from, kept for episode display.
	Token string
}

// Grid is an immutable rectangular grid of cells, shared read-only by the transition
// model, the solvers, and the views.
type Grid struct {
	cells [][]Cell
	rows  int
	cols  int
	start *Coord
}

// ParseCell converts a single grid token into a cell.
// A token is terminal iff it parses as a finite decimal float, e.g. "1", "-1", "10", "0.5".
func ParseCell(token string) (Cell, error) {
	switch token {
	case FreeToken:
		return Cell{Kind: FREE, Token: token}, nil
	case StartToken:
		return Cell{Kind: START, Token: token}, nil
	case WallToken, WideWallToken:
		return Cell{Kind: WALL, Token: token}, nil
	}

	reward, err := strconv.ParseFloat(token, 64)
	if err != nil || strings.ContainsAny(token, "xX") {
		return Cell{}, fmt.Errorf("unknown grid token %q", token)
	}
	if math.IsNaN(reward) || math.IsInf(reward, 0) {
		return Cell{}, fmt.Errorf("terminal reward %q must be finite", token)
	}
	return Cell{Kind: TERMINAL, Reward: reward, Token: token}, nil
}

// NewGrid converts rows of input tokens into a grid. The grid must be non-empty and
// rectangular with only known tokens. If requireStart is set there must be exactly one
// start cell.
func NewGrid(tokens [][]string, requireStart bool) (*Grid, error) {
	if len(tokens) == 0 || len(tokens[0]) == 0 {
		return nil, &ParseError{Msg: "grid is empty"}
	}

	cols := len(tokens[0])
	grid := &Grid{
		cells: make([][]Cell, 0, len(tokens)),
		rows:  len(tokens),
		cols:  cols,
	}

	starts := 0
	for row, line := range tokens {
		if len(line) != cols {
			return nil, &ParseError{
				Msg: fmt.Sprintf("grid row %d has %d cells, expected %d", row, len(line), cols),
			}
		}

		cells := make([]Cell, 0, cols)
		for col, token := range line {
			cell, err := ParseCell(token)
			if err != nil {
				return nil, &ParseError{Msg: fmt.Sprintf("cell %v: %v", Coord{row, col}, err)}
			}
			if cell.Kind == START {
				starts++
				grid.start = &Coord{Row: row, Col: col}
			}
			cells = append(cells, cell)
		}
		grid.cells = append(grid.cells, cells)
	}

	if requireStart && starts != 1 {
		return nil, &ParseError{Msg: fmt.Sprintf("grid must have exactly one start cell, found %d", starts)}
	}

	return grid, nil
}

// MustGrid is NewGrid for literal grids in tests and examples; it panics on error.
func MustGrid(tokens [][]string) *Grid {
	grid, err := NewGrid(tokens, false)
	if err != nil {
		panic(err)
	}
	return grid
}

func (grid *Grid) Rows() int { return grid.rows }
func (grid *Grid) Cols() int { return grid.cols }

// InBounds reports whether the coordinate lies on the grid.
func (grid *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < grid.rows && c.Col >= 0 && c.Col < grid.cols
}

// CellAt returns the cell at c, which must be in bounds.
func (grid *Grid) CellAt(c Coord) Cell {
	return grid.cells[c.Row][c.Col]
}

func (grid *Grid) IsWall(c Coord) bool {
	return grid.CellAt(c).Kind == WALL
}

func (grid *Grid) IsTerminal(c Coord) bool {
	return grid.CellAt(c).Kind == TERMINAL
}

// RewardOf returns the exit reward of a terminal cell; ok is false for any other cell.
func (grid *Grid) RewardOf(c Coord) (reward float64, ok bool) {
	cell := grid.CellAt(c)
	if cell.Kind != TERMINAL {
		return 0, false
	}
	return cell.Reward, true
}

// Token returns the input token of the cell at c.
func (grid *Grid) Token(c Coord) string {
	return grid.CellAt(c).Token
}

// Start returns the start coordinate, if the grid has one.
func (grid *Grid) Start() (Coord, bool) {
	if grid.start == nil {
		return Coord{}, false
	}
	return *grid.start, true
}

// Visit calls fn for every cell in row-major order, top row first.
func (grid *Grid) Visit(fn func(c Coord, cell Cell)) {
	for row := range grid.cells {
		for col := range grid.cells[row] {
			fn(Coord{Row: row, Col: col}, grid.cells[row][col])
		}
	}
}
