package reinforcement

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gridmdp/grid_world"
)

// ErrEmptyActionOrder is returned when value iteration is given no actions to try.
var ErrEmptyActionOrder = errors.New("action order must contain at least one compass action")

// IterationResult holds V_0 (without a policy) followed by one (V_k, pi_k) pair per sweep.
type IterationResult struct {
	Sweeps []Sweep
}

// Document renders V_k=<k> blocks and, from k=1 on, pi_k=<k> blocks.
func (res *IterationResult) Document() string {
	blocks := make([]string, 0, 4*len(res.Sweeps))
	for _, sweep := range res.Sweeps {
		blocks = append(blocks, fmt.Sprintf("V_k=%d", sweep.K), sweep.ValuesText)
		if sweep.Policy != nil {
			blocks = append(blocks, fmt.Sprintf("pi_k=%d", sweep.K), sweep.PolicyText)
		}
	}
	return strings.Join(blocks, "\n")
}

// Final returns the last snapshot.
func (res *IterationResult) Final() Sweep {
	return res.Sweeps[len(res.Sweeps)-1]
}

// ConvergedAt returns the first sweep k >= 1 whose residual is below tolerance.
func (res *IterationResult) ConvergedAt(tolerance float64) (k int, ok bool) {
	for _, sweep := range res.Sweeps[1:] {
		if sweep.Residual < tolerance {
			return sweep.K, true
		}
	}
	return 0, false
}

// Iterate runs value iteration for the given number of sweeps. V_0 is zero on free cells
// and the reward on terminals. Sweep k maximizes the one-step backup against V_{k-1} over
// the actions in order; the first action reaching the max wins ties, and it is recorded as
// the greedy policy of sweep k. Terminals keep their reward and are marked exit.
func Iterate(
	grid *grid_world.Grid,
	params Params,
	sweeps int,
	order grid_world.ActionOrder,
	observer Observer,
) (*IterationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSweeps(sweeps); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, ErrEmptyActionOrder
	}
	for _, a := range order {
		if !a.IsMove() {
			return nil, &grid_world.InvalidActionError{Token: a.String()}
		}
	}

	model := params.model(grid)
	values := grid_world.NewValueFunction(grid)
	res := &IterationResult{Sweeps: make([]Sweep, 0, sweeps+1)}

	emit := func(sweep Sweep) {
		res.Sweeps = append(res.Sweeps, sweep)
		if observer != nil {
			observer(sweep)
		}
	}

	emit(newSweep(grid, 0, values, nil, 0))
	for k := 1; k <= sweeps; k++ {
		next, policy, err := optimalityBackup(model, order, params.Discount, values)
		if err != nil {
			return nil, err
		}
		residual := next.Residual(values)
		values = next
		emit(newSweep(grid, k, values, policy, residual))
	}
	return res, nil
}

// optimalityBackup computes V_k and the greedy policy from V_{k-1}, reading only from prev.
func optimalityBackup(
	model *grid_world.TransitionModel,
	order grid_world.ActionOrder,
	discount float64,
	prev grid_world.ValueFunction,
) (next grid_world.ValueFunction, policy *grid_world.Policy, err error) {
	builder := prev.Next()
	policy = grid_world.NewPolicy(model.Grid)

	model.Grid.Visit(func(c grid_world.Coord, cell grid_world.Cell) {
		if err != nil {
			return
		}
		switch cell.Kind {
		case grid_world.WALL:
			return
		case grid_world.TERMINAL:
			builder.Set(c, cell.Reward)
			policy.Set(c, grid_world.EXIT)
			return
		}

		best, bestAction := math.Inf(-1), grid_world.NO_ACTION
		for _, a := range order {
			var outcomes []grid_world.Outcome
			if outcomes, err = model.Transitions(c, a); err != nil {
				return
			}
			// strict comparison: the earliest action in order keeps ties
			if v := grid_world.ExpectedValue(outcomes, discount, prev); v > best {
				best, bestAction = v, a
			}
		}
		builder.Set(c, best)
		policy.Set(c, bestAction)
	})
	if err != nil {
		return
	}
	next = builder.Build()
	return
}
