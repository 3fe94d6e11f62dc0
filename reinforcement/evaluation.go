package reinforcement

import (
	"fmt"
	"strings"

	"gridmdp/grid_world"
)

// EvaluationResult holds the rendered snapshots V_0..V_{n-1} of a policy evaluation, and
// the final V_n, which is computed but never rendered.
type EvaluationResult struct {
	Sweeps []Sweep
	Final  grid_world.ValueFunction
}

// Document renders every snapshot under a V^pi_k=<k> header.
func (res *EvaluationResult) Document() string {
	blocks := make([]string, 0, 2*len(res.Sweeps))
	for _, sweep := range res.Sweeps {
		blocks = append(blocks, fmt.Sprintf("V^pi_k=%d", sweep.K), sweep.ValuesText)
	}
	return strings.Join(blocks, "\n")
}

// Evaluate iterates the Bellman expectation operator of a fixed policy for the given number
// of sweeps. Each snapshot is emitted before the next is computed, so the result holds
// V_0..V_{sweeps-1}. V_sweeps is computed but never rendered.
//
// Terminals hold their reward in every snapshot, V_0 included. Walls are never updated,
// nor are non-terminal cells whose policy says exit.
func Evaluate(
	grid *grid_world.Grid,
	policy *grid_world.Policy,
	params Params,
	sweeps int,
	observer Observer,
) (*EvaluationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSweeps(sweeps); err != nil {
		return nil, err
	}

	model := params.model(grid)
	values := grid_world.NewValueFunction(grid)
	residual := 0.0
	res := &EvaluationResult{Sweeps: make([]Sweep, 0, sweeps)}

	for k := 0; k < sweeps; k++ {
		sweep := newSweep(grid, k, values, nil, residual)
		res.Sweeps = append(res.Sweeps, sweep)
		if observer != nil {
			observer(sweep)
		}

		next, err := evaluationBackup(model, policy, params.Discount, values)
		if err != nil {
			return nil, err
		}
		residual = next.Residual(values)
		values = next
	}

	res.Final = values
	return res, nil
}

// evaluationBackup computes V_{k+1} from V_k, reading only from prev.
func evaluationBackup(
	model *grid_world.TransitionModel,
	policy *grid_world.Policy,
	discount float64,
	prev grid_world.ValueFunction,
) (next grid_world.ValueFunction, err error) {
	builder := prev.Next()
	model.Grid.Visit(func(c grid_world.Coord, cell grid_world.Cell) {
		if err != nil {
			return
		}
		switch cell.Kind {
		case grid_world.WALL:
			return
		case grid_world.TERMINAL:
			builder.Set(c, cell.Reward)
			return
		}

		action := policy.At(c)
		if !action.IsMove() {
			return
		}
		var outcomes []grid_world.Outcome
		if outcomes, err = model.Transitions(c, action); err != nil {
			return
		}
		builder.Set(c, grid_world.ExpectedValue(outcomes, discount, prev))
	})
	if err != nil {
		return
	}
	next = builder.Build()
	return
}
