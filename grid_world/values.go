package grid_world

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ValueFunction is a snapshot of state values, one entry per grid cell. Wall entries are
// never read. A snapshot is never mutated once a sweep has produced it: each sweep writes
// into a fresh copy, so every update reads exclusively from the prior snapshot.
type ValueFunction struct {
	values *mat.Dense
}

// NewValueFunction returns the initial snapshot: zero everywhere except terminals, which
// hold their reward.
func NewValueFunction(grid *Grid) ValueFunction {
	values := mat.NewDense(grid.Rows(), grid.Cols(), nil)
	grid.Visit(func(c Coord, cell Cell) {
		if cell.Kind == TERMINAL {
			values.Set(c.Row, c.Col, cell.Reward)
		}
	})
	return ValueFunction{values: values}
}

// ValueFunctionFrom builds a snapshot from a dense row-major slice, mostly for tests.
func ValueFunctionFrom(rows, cols int, data []float64) ValueFunction {
	return ValueFunction{values: mat.NewDense(rows, cols, data)}
}

// At returns the value of the state at c.
func (v ValueFunction) At(c Coord) float64 {
	return v.values.At(c.Row, c.Col)
}

// Dims returns the rows and columns of the snapshot.
func (v ValueFunction) Dims() (rows, cols int) {
	return v.values.Dims()
}

// Next returns a writable copy of the snapshot for the following sweep.
func (v ValueFunction) Next() *ValueBuilder {
	return &ValueBuilder{values: mat.DenseCopyOf(v.values)}
}

// Residual is the max absolute difference between two snapshots of the same grid.
func (v ValueFunction) Residual(prev ValueFunction) float64 {
	var diff mat.Dense
	diff.Sub(v.values, prev.values)
	// diff is freshly allocated, so its backing data is contiguous.
	return floats.Norm(diff.RawMatrix().Data, math.Inf(1))
}

// ValueBuilder is the write side of a sweep. Build seals it into a snapshot.
type ValueBuilder struct {
	values *mat.Dense
}

func (b *ValueBuilder) Set(c Coord, value float64) {
	b.values.Set(c.Row, c.Col, value)
}

// Build seals the builder; the builder must not be used afterward.
func (b *ValueBuilder) Build() ValueFunction {
	v := ValueFunction{values: b.values}
	b.values = nil
	return v
}
