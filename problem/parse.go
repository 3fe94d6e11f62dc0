// Package problem reads the three grid-world problem file formats and dispatches them to
// their solvers.
package problem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
)

// Problem file keys.
const (
	seedKey         = "seed"
	discountKey     = "discount"
	noiseKey        = "noise"
	livingRewardKey = "livingReward"
	iterationsKey   = "iterations"
	gridKey         = "grid"
	policyKey       = "policy"
)

// Unseeded is the seed value requesting a non-reproducible episode.
const Unseeded = -1

// EpisodeProblem is a seeded rollout of a fixed policy.
type EpisodeProblem struct {
	Seed   int64
	Params reinforcement.Params
	Grid   *grid_world.Grid
	Policy *grid_world.Policy
}

// EvaluationProblem is a fixed-policy evaluation.
type EvaluationProblem struct {
	Params     reinforcement.Params
	Iterations int
	Grid       *grid_world.Grid
	Policy     *grid_world.Policy
}

// IterationProblem is a value iteration. Iterations counts rendered value snapshots, V_0
// included.
type IterationProblem struct {
	Params     reinforcement.Params
	Iterations int
	Grid       *grid_world.Grid
}

type line struct {
	num  int
	text string
}

// block is a run of whitespace-separated token rows under a header such as "grid:".
type block struct {
	header int
	rows   [][]string
}

func readLines(r io.Reader) ([]line, error) {
	var lines []line
	scanner := bufio.NewScanner(r)
	for num := 1; scanner.Scan(); num++ {
		lines = append(lines, line{num: num, text: strings.TrimSpace(scanner.Text())})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read problem: %w", err)
	}
	return lines, nil
}

// keyValue splits "key: value". ok is false for lines that are not for key.
func keyValue(l line, key string) (value string, ok bool) {
	prefix := key + ":"
	if !strings.HasPrefix(l.text, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(l.text, prefix)), true
}

// fields collects scalar key values and token blocks, remembering where each was defined.
type fields struct {
	scalars map[string]line
	blocks  map[string]*block
}

func newFields() *fields {
	return &fields{
		scalars: map[string]line{},
		blocks:  map[string]*block{},
	}
}

func (f *fields) setScalar(l line, key, value string) {
	f.scalars[key] = line{num: l.num, text: value}
}

func (f *fields) float(key string) (float64, error) {
	l, ok := f.scalars[key]
	if !ok {
		return 0, &grid_world.ParseError{Msg: fmt.Sprintf("missing %q", key)}
	}
	v, err := strconv.ParseFloat(l.text, 64)
	if err != nil {
		return 0, &grid_world.ParseError{Line: l.num, Msg: fmt.Sprintf("%s: %q is not a number", key, l.text)}
	}
	return v, nil
}

func (f *fields) int(key string) (int, error) {
	l, ok := f.scalars[key]
	if !ok {
		return 0, &grid_world.ParseError{Msg: fmt.Sprintf("missing %q", key)}
	}
	v, err := strconv.Atoi(l.text)
	if err != nil {
		return 0, &grid_world.ParseError{Line: l.num, Msg: fmt.Sprintf("%s: %q is not an integer", key, l.text)}
	}
	return v, nil
}

func (f *fields) params(withDiscount bool) (params reinforcement.Params, err error) {
	if withDiscount {
		if params.Discount, err = f.float(discountKey); err != nil {
			return
		}
	}
	if params.Noise, err = f.float(noiseKey); err != nil {
		return
	}
	if params.LivingReward, err = f.float(livingRewardKey); err != nil {
		return
	}
	err = params.Validate()
	return
}

func (f *fields) grid(requireStart bool) (*grid_world.Grid, error) {
	b, ok := f.blocks[gridKey]
	if !ok {
		return nil, &grid_world.ParseError{Msg: `missing "grid:" block`}
	}
	grid, err := grid_world.NewGrid(b.rows, requireStart)
	var parseErr *grid_world.ParseError
	if errors.As(err, &parseErr) && parseErr.Line == 0 {
		parseErr.Line = b.header
	}
	return grid, err
}

func (f *fields) policy(grid *grid_world.Grid) (*grid_world.Policy, error) {
	b, ok := f.blocks[policyKey]
	if !ok {
		return nil, &grid_world.ParseError{Msg: `missing "policy:" block`}
	}
	policy, err := grid_world.ParsePolicy(grid, b.rows)
	var parseErr *grid_world.ParseError
	if errors.As(err, &parseErr) && parseErr.Line == 0 {
		parseErr.Line = b.header
	}
	return policy, err
}

// scalarKey reports which of keys the line defines, if any.
func scalarKey(l line, keys ...string) (key, value string, ok bool) {
	for _, key = range keys {
		if value, ok = keyValue(l, key); ok {
			return
		}
	}
	return "", "", false
}

// ParseEpisodeProblem reads seed, noise, livingReward, a grid block ended by a blank line
// or "policy:", and a policy block ended by a blank line. Unknown lines are skipped.
func ParseEpisodeProblem(r io.Reader) (*EpisodeProblem, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	f := newFields()
	for i := 0; i < len(lines); {
		l := lines[i]
		if key, value, ok := scalarKey(l, seedKey, noiseKey, livingRewardKey); ok {
			f.setScalar(l, key, value)
			i++
			continue
		}

		header := ""
		if _, ok := keyValue(l, gridKey); ok {
			header = gridKey
		} else if _, ok := keyValue(l, policyKey); ok {
			header = policyKey
		}
		if header == "" {
			i++
			continue
		}

		b := &block{header: l.num}
		for i++; i < len(lines); i++ {
			text := lines[i].text
			if text == "" {
				break
			}
			if _, isPolicy := keyValue(lines[i], policyKey); isPolicy && header == gridKey {
				break
			}
			b.rows = append(b.rows, strings.Fields(text))
		}
		f.blocks[header] = b
	}

	prob := &EpisodeProblem{}
	var seed int
	if seed, err = f.int(seedKey); err != nil {
		return nil, err
	}
	prob.Seed = int64(seed)
	if prob.Params, err = f.params(false); err != nil {
		return nil, err
	}
	if prob.Grid, err = f.grid(true); err != nil {
		return nil, err
	}
	if prob.Policy, err = f.policy(prob.Grid); err != nil {
		return nil, err
	}
	return prob, nil
}

// ParseEvaluationProblem reads discount, noise, livingReward, iterations, and the grid and
// policy blocks. Blank lines are skipped anywhere; a block runs until the next header.
func ParseEvaluationProblem(r io.Reader) (*EvaluationProblem, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	f := newFields()
	var current *block
	for _, l := range lines {
		if key, value, ok := scalarKey(l, discountKey, noiseKey, livingRewardKey, iterationsKey); ok {
			f.setScalar(l, key, value)
			continue
		}
		if _, ok := keyValue(l, gridKey); ok {
			current = &block{header: l.num}
			f.blocks[gridKey] = current
			continue
		}
		if _, ok := keyValue(l, policyKey); ok {
			current = &block{header: l.num}
			f.blocks[policyKey] = current
			continue
		}
		if l.text == "" || current == nil {
			continue
		}
		current.rows = append(current.rows, strings.Fields(l.text))
	}

	prob := &EvaluationProblem{}
	if prob.Params, err = f.params(true); err != nil {
		return nil, err
	}
	if prob.Iterations, err = f.int(iterationsKey); err != nil {
		return nil, err
	}
	if err = reinforcement.ValidateSweeps(prob.Iterations); err != nil {
		return nil, err
	}
	if prob.Grid, err = f.grid(false); err != nil {
		return nil, err
	}
	if prob.Policy, err = f.policy(prob.Grid); err != nil {
		return nil, err
	}
	return prob, nil
}

// ParseIterationProblem drops blank and '#' comment lines, then reads discount, noise,
// livingReward, iterations and a grid block that runs to the end of the file. A grid row
// that starts with a wall is therefore read as a comment.
func ParseIterationProblem(r io.Reader) (*IterationProblem, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	f := newFields()
	kept := lines[:0]
	for _, l := range lines {
		if l.text != "" && !strings.HasPrefix(l.text, "#") {
			kept = append(kept, l)
		}
	}
	for i, l := range kept {
		if key, value, ok := scalarKey(l, discountKey, noiseKey, livingRewardKey, iterationsKey); ok {
			f.setScalar(l, key, value)
			continue
		}
		if _, ok := keyValue(l, gridKey); ok {
			b := &block{header: l.num}
			for _, row := range kept[i+1:] {
				b.rows = append(b.rows, strings.Fields(row.text))
			}
			f.blocks[gridKey] = b
			break
		}
	}

	prob := &IterationProblem{}
	if prob.Params, err = f.params(true); err != nil {
		return nil, err
	}
	if prob.Iterations, err = f.int(iterationsKey); err != nil {
		return nil, err
	}
	if err = reinforcement.ValidateSweeps(prob.Iterations); err != nil {
		return nil, err
	}
	if prob.Grid, err = f.grid(false); err != nil {
		return nil, err
	}
	return prob, nil
}
