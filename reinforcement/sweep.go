package reinforcement

import (
	"gridmdp/cell_views"
	"gridmdp/grid_world"
)

// Sweep is one completed snapshot of a dynamic-programming run. Policy is nil for policy
// evaluation and for the initial snapshot of value iteration. Residual is the max absolute
// change from the previous snapshot, zero for the first.
type Sweep struct {
	K          int
	Values     grid_world.ValueFunction
	Policy     *grid_world.Policy
	Residual   float64
	ValuesText string
	PolicyText string
}

// Observer is called synchronously with each completed sweep, in order. Snapshots are
// immutable and safe to keep.
type Observer func(Sweep)

func newSweep(
	grid *grid_world.Grid,
	k int,
	values grid_world.ValueFunction,
	policy *grid_world.Policy,
	residual float64,
) Sweep {
	sweep := Sweep{
		K:          k,
		Values:     values,
		Policy:     policy,
		Residual:   residual,
		ValuesText: cell_views.RenderValues(values, grid),
	}
	if policy != nil {
		sweep.PolicyText = cell_views.RenderPolicy(policy, grid)
	}
	return sweep
}

// Residuals returns the residual of every sweep, in order.
func Residuals(sweeps []Sweep) []float64 {
	residuals := make([]float64, len(sweeps))
	for i, sweep := range sweeps {
		residuals[i] = sweep.Residual
	}
	return residuals
}
