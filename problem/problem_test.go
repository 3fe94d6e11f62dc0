package problem

import (
	"errors"
	"strings"
	"testing"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"

	. "github.com/smartystreets/goconvey/convey"
)

const episodeFile = `seed: 2
noise: 0.1
livingReward: -0.05
grid:
    _    _    _    1
    _    #    _   -1
    S    _    _    _
policy:
    E    E    E    exit
    N    #    N    exit
    N    E    N    W
`

const evaluationFile = `discount: 0.9
noise: 0.1
livingReward: 0

iterations: 10
grid:
    _    _    _    1

    _    #    _   -1
    S    _    _    _
policy:
    E    E    E    exit
    N    #    N    exit
    N    E    N    W
`

const iterationFile = `# classic world
discount: 0.9
noise: 0.2
livingReward: -0.01
iterations: 5
grid:
    _    _    _    1
    _    #    _   -1

    S    _    _    _
`

func TestParseEpisodeProblem(t *testing.T) {
	Convey("When parsing an episode problem", t, func() {
		Convey("When the file is well formed", func() {
			prob, err := ParseEpisodeProblem(strings.NewReader(episodeFile))
			So(err, ShouldBeNil)
			So(prob.Seed, ShouldEqual, 2)
			So(prob.Params.Noise, ShouldEqual, 0.1)
			So(prob.Params.LivingReward, ShouldEqual, -0.05)
			So(prob.Grid.Rows(), ShouldEqual, 3)
			So(prob.Grid.Cols(), ShouldEqual, 4)
			So(prob.Policy.At(grid_world.Coord{Row: 0, Col: 3}), ShouldEqual, grid_world.EXIT)
			So(prob.Policy.At(grid_world.Coord{Row: 2, Col: 3}), ShouldEqual, grid_world.WEST)
		})

		Convey("When the grid has no start", func() {
			noStart := strings.Replace(episodeFile, "S    _    _    _", "_    _    _    _", 1)
			_, err := ParseEpisodeProblem(strings.NewReader(noStart))
			var parseErr *grid_world.ParseError
			So(errors.As(err, &parseErr), ShouldBeTrue)
			So(parseErr.Line, ShouldEqual, 4)
		})

		Convey("When the seed is missing", func() {
			_, err := ParseEpisodeProblem(strings.NewReader(strings.Replace(episodeFile, "seed: 2\n", "", 1)))
			var parseErr *grid_world.ParseError
			So(errors.As(err, &parseErr), ShouldBeTrue)
			So(parseErr.Msg, ShouldContainSubstring, "seed")
		})

		Convey("When a policy token is illegal", func() {
			bad := strings.Replace(episodeFile, "N    E    N    W", "N    E    N    Q", 1)
			_, err := ParseEpisodeProblem(strings.NewReader(bad))
			var actionErr *grid_world.InvalidActionError
			So(errors.As(err, &actionErr), ShouldBeTrue)
			So(actionErr.Token, ShouldEqual, "Q")
			So(actionErr.At, ShouldResemble, grid_world.Coord{Row: 2, Col: 3})
		})
	})
}

func TestParseEvaluationProblem(t *testing.T) {
	Convey("When parsing an evaluation problem", t, func() {
		Convey("When blank lines are scattered through the file", func() {
			prob, err := ParseEvaluationProblem(strings.NewReader(evaluationFile))
			So(err, ShouldBeNil)
			So(prob.Iterations, ShouldEqual, 10)
			So(prob.Params, ShouldResemble, reinforcement.Params{Discount: 0.9, Noise: 0.1})
			So(prob.Grid.Rows(), ShouldEqual, 3)
			So(prob.Grid.IsWall(grid_world.Coord{Row: 1, Col: 1}), ShouldBeTrue)
		})

		Convey("When a number is malformed", func() {
			bad := strings.Replace(evaluationFile, "discount: 0.9", "discount: zero", 1)
			_, err := ParseEvaluationProblem(strings.NewReader(bad))
			var parseErr *grid_world.ParseError
			So(errors.As(err, &parseErr), ShouldBeTrue)
			So(parseErr.Line, ShouldEqual, 1)
		})

		Convey("When the grid is not rectangular", func() {
			bad := strings.Replace(evaluationFile, "S    _    _    _", "S    _    _", 1)
			_, err := ParseEvaluationProblem(strings.NewReader(bad))
			var parseErr *grid_world.ParseError
			So(errors.As(err, &parseErr), ShouldBeTrue)
		})

		Convey("When the noise is out of range", func() {
			bad := strings.Replace(evaluationFile, "noise: 0.1", "noise: 0.7", 1)
			_, err := ParseEvaluationProblem(strings.NewReader(bad))
			var domainErr *grid_world.DomainError
			So(errors.As(err, &domainErr), ShouldBeTrue)
			So(domainErr.Field, ShouldEqual, "noise")
		})

		Convey("When the iterations are negative", func() {
			bad := strings.Replace(evaluationFile, "iterations: 10", "iterations: -2", 1)
			_, err := ParseEvaluationProblem(strings.NewReader(bad))
			var domainErr *grid_world.DomainError
			So(errors.As(err, &domainErr), ShouldBeTrue)
			So(domainErr.Field, ShouldEqual, "iterations")
		})
	})
}

func TestParseIterationProblem(t *testing.T) {
	Convey("When parsing an iteration problem", t, func() {
		Convey("When comments and blank lines are present", func() {
			prob, err := ParseIterationProblem(strings.NewReader(iterationFile))
			So(err, ShouldBeNil)
			So(prob.Iterations, ShouldEqual, 5)
			So(prob.Grid.Rows(), ShouldEqual, 3)
			So(prob.Grid.IsTerminal(grid_world.Coord{Row: 1, Col: 3}), ShouldBeTrue)
		})

		Convey("When the grid block is missing", func() {
			bad := iterationFile[:strings.Index(iterationFile, "grid:")]
			_, err := ParseIterationProblem(strings.NewReader(bad))
			var parseErr *grid_world.ParseError
			So(errors.As(err, &parseErr), ShouldBeTrue)
		})
	})
}

func TestSolve(t *testing.T) {
	Convey("When solving a problem", t, func() {
		Convey("When the kind is iteration", func() {
			observed := 0
			sol, err := Solve(Iteration, strings.NewReader(iterationFile), Options{
				Observer: func(reinforcement.Sweep) { observed++ },
			})
			So(err, ShouldBeNil)
			So(observed, ShouldEqual, 5)
			So(len(sol.Sweeps), ShouldEqual, 5)
			So(strings.Count(sol.Document, "V_k="), ShouldEqual, 5)
			So(strings.Count(sol.Document, "pi_k="), ShouldEqual, 4)
			So(sol.Document, ShouldNotContainSubstring, "V_k=5")
			So(len(sol.Residuals()), ShouldEqual, 5)
		})

		Convey("When the config sets the convergence tolerance", func() {
			sol, err := Solve(Iteration, strings.NewReader(iterationFile), Options{})
			So(err, ShouldBeNil)
			So(sol.ConvergedAt, ShouldEqual, 0)

			loose := reinforcement.DefaultConfig()
			loose.Tolerance = 10
			sol, err = Solve(Iteration, strings.NewReader(iterationFile), Options{Config: loose})
			So(err, ShouldBeNil)
			So(sol.ConvergedAt, ShouldEqual, 1)

			long := strings.Replace(iterationFile, "iterations: 5", "iterations: 101", 1)
			sol, err = Solve(Iteration, strings.NewReader(long), Options{})
			So(err, ShouldBeNil)
			k := sol.ConvergedAt
			So(k, ShouldBeGreaterThan, 1)
			So(sol.Sweeps[k].Residual, ShouldBeLessThan, 1e-4)
			for _, sweep := range sol.Sweeps[1:k] {
				So(sweep.Residual, ShouldBeGreaterThanOrEqualTo, 1e-4)
			}
		})

		Convey("When the kind is evaluation", func() {
			sol, err := Solve(Evaluation, strings.NewReader(evaluationFile), Options{})
			So(err, ShouldBeNil)
			So(strings.Count(sol.Document, "V^pi_k="), ShouldEqual, 10)
			So(sol.Document, ShouldStartWith, "V^pi_k=0\n")
		})

		Convey("When the kind is episode, a seed override is reproducible", func() {
			seed := int64(7)
			first, err := Solve(Episode, strings.NewReader(episodeFile), Options{Seed: &seed})
			So(err, ShouldBeNil)
			second, err := Solve(Episode, strings.NewReader(episodeFile), Options{Seed: &seed})
			So(err, ShouldBeNil)
			So(first.Document, ShouldEqual, second.Document)
			So(first.Document, ShouldStartWith, "Start state:\n")
			So(first.Episode, ShouldNotBeNil)
		})

		Convey("When parsing ahead of solving", func() {
			prob, err := Parse(Evaluation, strings.NewReader(evaluationFile))
			So(err, ShouldBeNil)
			So(prob.Kind(), ShouldEqual, Evaluation)
			So(prob.World().Rows(), ShouldEqual, 3)

			sol, err := prob.Solve(Options{})
			So(err, ShouldBeNil)
			So(sol.Kind, ShouldEqual, Evaluation)
			So(sol.Values.At(grid_world.Coord{Row: 0, Col: 3}), ShouldEqual, 1.0)

			prob, err = Parse(Iteration, strings.NewReader("iterations: x"))
			So(err, ShouldNotBeNil)
			So(prob, ShouldBeNil)
		})

		Convey("When the kind is unknown", func() {
			_, err := ParseKind("planning")
			So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)

			_, err = Solve(Kind("planning"), strings.NewReader(""), Options{})
			So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)

			kind, err := ParseKind("iteration")
			So(err, ShouldBeNil)
			So(kind, ShouldEqual, Iteration)
		})
	})
}
