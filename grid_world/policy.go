package grid_world

import "fmt"

// Policy maps every grid cell to an action. Walls carry NO_ACTION.
type Policy struct {
	actions [][]Action
}

// NewPolicy returns a policy over the grid with every cell set to NO_ACTION, for
// solvers that derive policies.
func NewPolicy(grid *Grid) *Policy {
	actions := make([][]Action, grid.Rows())
	for row := range actions {
		actions[row] = make([]Action, grid.Cols())
		for col := range actions[row] {
			actions[row][col] = NO_ACTION
		}
	}
	return &Policy{actions: actions}
}

// ParsePolicy converts rows of policy tokens for the given grid. The token grid must have
// the grid's shape. Wall cells may carry any token and are forced to NO_ACTION; every other
// cell must carry one of N, E, S, W, exit.
func ParsePolicy(grid *Grid, tokens [][]string) (*Policy, error) {
	if len(tokens) != grid.Rows() {
		return nil, &ParseError{
			Msg: fmt.Sprintf("policy has %d rows, grid has %d", len(tokens), grid.Rows()),
		}
	}

	policy := NewPolicy(grid)
	for row, line := range tokens {
		if len(line) != grid.Cols() {
			return nil, &ParseError{
				Msg: fmt.Sprintf("policy row %d has %d cells, grid has %d", row, len(line), grid.Cols()),
			}
		}
		for col, token := range line {
			c := Coord{Row: row, Col: col}
			if grid.IsWall(c) {
				continue
			}
			action, ok := ParseAction(token)
			if !ok || action == NO_ACTION {
				return nil, &InvalidActionError{At: c, Token: token}
			}
			policy.actions[row][col] = action
		}
	}
	return policy, nil
}

// At returns the action for c.
func (p *Policy) At(c Coord) Action {
	return p.actions[c.Row][c.Col]
}

// Set assigns the action for c. Solvers only call this while building a policy.
func (p *Policy) Set(c Coord, a Action) {
	p.actions[c.Row][c.Col] = a
}
