package problem

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"

	"golang.org/x/exp/rand"
)

// Kind selects a problem format and its solver.
type Kind string

const (
	Episode    Kind = "episode"
	Evaluation Kind = "evaluation"
	Iteration  Kind = "iteration"
)

// ErrUnknownKind is returned for a kind other than episode, evaluation or iteration.
var ErrUnknownKind = errors.New("unknown problem kind")

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch kind := Kind(s); kind {
	case Episode, Evaluation, Iteration:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Options tune a solve beyond what the problem file says.
type Options struct {
	// Config supplies the tie-break order and episode horizon; nil means the defaults.
	Config *reinforcement.SolverConfig
	// Observer receives every sweep of an evaluation or iteration as it completes.
	Observer reinforcement.Observer
	// Seed overrides the episode file's seed when set.
	Seed *int64
}

// Solution is a solved problem. Sweeps and Values are empty for episodes.
type Solution struct {
	Kind     Kind
	Grid     *grid_world.Grid
	Document string
	Sweeps   []reinforcement.Sweep
	Values   grid_world.ValueFunction
	Episode  *reinforcement.Episode

	// ConvergedAt is the first value iteration sweep whose residual fell below the
	// configured tolerance, or 0 if none did.
	ConvergedAt int
}

// Residuals returns the per-sweep residuals of the solution.
func (sol *Solution) Residuals() []float64 {
	return reinforcement.Residuals(sol.Sweeps)
}

// Problem is a parsed problem file, ready to solve.
type Problem interface {
	Kind() Kind
	World() *grid_world.Grid
	Solve(opts Options) (*Solution, error)
}

// Parse reads problem text of the given kind.
func Parse(kind Kind, r io.Reader) (prob Problem, err error) {
	switch kind {
	case Episode:
		var ep *EpisodeProblem
		if ep, err = ParseEpisodeProblem(r); err == nil {
			prob = ep
		}
	case Evaluation:
		var ev *EvaluationProblem
		if ev, err = ParseEvaluationProblem(r); err == nil {
			prob = ev
		}
	case Iteration:
		var it *IterationProblem
		if it, err = ParseIterationProblem(r); err == nil {
			prob = it
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return
}

// Solve parses the problem text of the given kind and runs its solver.
func Solve(kind Kind, r io.Reader, opts Options) (*Solution, error) {
	prob, err := Parse(kind, r)
	if err != nil {
		return nil, err
	}
	return prob.Solve(opts)
}

func (opts Options) config() *reinforcement.SolverConfig {
	if opts.Config == nil {
		return reinforcement.DefaultConfig()
	}
	return opts.Config
}

func (prob *EpisodeProblem) Kind() Kind              { return Episode }
func (prob *EpisodeProblem) World() *grid_world.Grid { return prob.Grid }

// Solve plays the episode, with opts.Seed taking precedence over the file's seed.
func (prob *EpisodeProblem) Solve(opts Options) (*Solution, error) {
	seed := prob.Seed
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	return solveEpisode(prob, seed, opts.config())
}

func (prob *EvaluationProblem) Kind() Kind              { return Evaluation }
func (prob *EvaluationProblem) World() *grid_world.Grid { return prob.Grid }

func (prob *EvaluationProblem) Solve(opts Options) (*Solution, error) {
	return solveEvaluation(prob, opts.Observer)
}

func (prob *IterationProblem) Kind() Kind              { return Iteration }
func (prob *IterationProblem) World() *grid_world.Grid { return prob.Grid }

func (prob *IterationProblem) Solve(opts Options) (*Solution, error) {
	return solveIteration(prob, opts.config(), opts.Observer)
}

func solveEpisode(prob *EpisodeProblem, seed int64, cfg *reinforcement.SolverConfig) (*Solution, error) {
	src := uint64(seed)
	if seed == Unseeded {
		src = uint64(time.Now().UnixNano())
	}

	ep, err := reinforcement.PlayEpisode(
		prob.Grid,
		prob.Policy,
		prob.Params,
		rand.NewSource(src),
		cfg.EpisodeHorizon)
	if err != nil {
		return nil, err
	}
	return &Solution{
		Kind:     Episode,
		Grid:     prob.Grid,
		Document: ep.String(),
		Episode:  ep,
	}, nil
}

func solveEvaluation(prob *EvaluationProblem, observer reinforcement.Observer) (*Solution, error) {
	res, err := reinforcement.Evaluate(prob.Grid, prob.Policy, prob.Params, prob.Iterations, observer)
	if err != nil {
		return nil, err
	}
	return &Solution{
		Kind:     Evaluation,
		Grid:     prob.Grid,
		Document: res.Document(),
		Sweeps:   res.Sweeps,
		Values:   res.Final,
	}, nil
}

func solveIteration(
	prob *IterationProblem,
	cfg *reinforcement.SolverConfig,
	observer reinforcement.Observer,
) (*Solution, error) {
	order, err := cfg.Order()
	if err != nil {
		return nil, err
	}

	// The file counts V_0 among its iterations.
	sweeps := prob.Iterations - 1
	if sweeps < 0 {
		sweeps = 0
	}
	res, err := reinforcement.Iterate(prob.Grid, prob.Params, sweeps, order, observer)
	if err != nil {
		return nil, err
	}
	sol := &Solution{
		Kind:     Iteration,
		Grid:     prob.Grid,
		Document: res.Document(),
		Sweeps:   res.Sweeps,
		Values:   res.Final().Values,
	}
	if k, ok := res.ConvergedAt(cfg.Tolerance); ok {
		sol.ConvergedAt = k
	}
	return sol, nil
}
