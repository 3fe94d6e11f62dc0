package reinforcement

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gridmdp/cell_views"
	"gridmdp/grid_world"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrHorizonExceeded is returned when a rollout runs longer than its horizon, e.g. when
// the policy cycles without ever reaching a terminal.
var ErrHorizonExceeded = errors.New("episode exceeded its horizon")

// ErrNoStart is returned when a rollout is requested on a grid without a start cell.
var ErrNoStart = errors.New("grid has no start state")

const (
	stepSeparator   = "-------------------------------------------- "
	nonTerminalExit = "Attempted to exit from a non-terminal cell."
)

// Step is a single time step of a rollout: attempt Intended, actually do Actual, receive
// Reward, and land on State. State is nil once the agent has exited the grid.
type Step struct {
	Intended   grid_world.Action
	Actual     grid_world.Action
	Reward     float64
	State      *grid_world.Coord
	Cumulative float64
}

// Episode is a complete rollout from the start state.
type Episode struct {
	Grid  *grid_world.Grid
	Start grid_world.Coord
	Steps []Step
	// Note is set when the rollout ended abnormally, e.g. an exit from a non-terminal.
	Note string
}

// Return is the cumulative reward of the episode.
func (ep *Episode) Return() float64 {
	if len(ep.Steps) == 0 {
		return 0
	}
	return ep.Steps[len(ep.Steps)-1].Cumulative
}

// PlayEpisode follows the policy from the grid's start state until it exits. Each move
// lands in the intended direction with probability 1-2*noise, or in either lateral
// direction with probability noise, sampled from src. The random source is always explicit
// so that a seed reproduces the episode.
func PlayEpisode(
	grid *grid_world.Grid,
	policy *grid_world.Policy,
	params Params,
	src rand.Source,
	horizon int,
) (*Episode, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	start, ok := grid.Start()
	if !ok {
		return nil, ErrNoStart
	}

	model := params.model(grid)
	// Index 0 is the intended direction, 1 the clockwise and 2 the counter-clockwise lateral.
	noise := distuv.NewCategorical([]float64{1 - 2*params.Noise, params.Noise, params.Noise}, src)

	ep := &Episode{Grid: grid, Start: start}
	state := start
	cumulative := 0.0
	for {
		if horizon > 0 && len(ep.Steps) >= horizon {
			return ep, fmt.Errorf("%w: %d steps", ErrHorizonExceeded, horizon)
		}

		intended := policy.At(state)
		if intended == grid_world.EXIT {
			reward, isTerminal := grid.RewardOf(state)
			if !isTerminal {
				ep.Note = nonTerminalExit
				return ep, nil
			}
			cumulative += reward
			ep.Steps = append(ep.Steps, Step{
				Intended:   grid_world.EXIT,
				Actual:     grid_world.EXIT,
				Reward:     reward,
				Cumulative: cumulative,
			})
			return ep, nil
		}
		if !intended.IsMove() {
			return nil, &grid_world.InvalidActionError{At: state, Token: intended.String()}
		}

		actual := [3]grid_world.Action{
			intended,
			intended.Successor(),
			intended.Predecessor(),
		}[int(noise.Rand())]
		state = model.Move(state, actual)
		cumulative += params.LivingReward

		landed := state
		ep.Steps = append(ep.Steps, Step{
			Intended:   intended,
			Actual:     actual,
			Reward:     params.LivingReward,
			State:      &landed,
			Cumulative: cumulative,
		})
	}
}

// String renders the episode trace: the start grid, then each step's action, reward, grid
// and running sum, separated by dashed lines.
func (ep *Episode) String() string {
	var sb strings.Builder
	start := ep.Start
	sb.WriteString("Start state:\n")
	sb.WriteString(cell_views.RenderEpisodeGrid(ep.Grid, &start) + "\n")
	sb.WriteString("Cumulative reward sum: " + FormatReward(0) + "\n")
	sb.WriteString(stepSeparator + "\n")

	for _, step := range ep.Steps {
		fmt.Fprintf(&sb, "Taking action: %s (intended: %s)\n", step.Actual, step.Intended)
		sb.WriteString("Reward received: " + FormatReward(step.Reward) + "\n")
		sb.WriteString("New state:\n")
		sb.WriteString(cell_views.RenderEpisodeGrid(ep.Grid, step.State) + "\n")
		sb.WriteString("Cumulative reward sum: " + FormatReward(step.Cumulative) + "\n")
		if step.State != nil {
			sb.WriteString(stepSeparator + "\n")
		}
	}

	if ep.Note != "" {
		sb.WriteString(ep.Note + "\n")
		sb.WriteString("Cumulative reward sum: " + FormatReward(ep.Return()) + "\n")
	}
	return strings.TrimRight(sb.String(), " \t\n")
}

// FormatReward rounds to two decimals after a tiny upward nudge, and prints integral
// values with a trailing .0, e.g. 1.0, -0.01, 0.5.
func FormatReward(x float64) string {
	r := math.Round((x+1e-8)*100) / 100
	if r == math.Trunc(r) {
		return strconv.FormatInt(int64(r), 10) + ".0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
