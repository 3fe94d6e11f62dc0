package grid_world

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// massTolerance bounds the rounding error of a transition's total probability.
const massTolerance = 1e-9

// Outcome is one branch of a noisy transition: with probability Prob the agent lands on
// Next and receives Reward.
type Outcome struct {
	Prob   float64
	Next   Coord
	Reward float64
}

// TransitionModel computes the distribution induced by an intended action plus lateral
// noise: the intended direction gets 1-2*Noise, each of its two compass neighbors gets Noise.
type TransitionModel struct {
	Grid         *Grid
	Noise        float64
	LivingReward float64
}

// Move returns the state reached by moving from state in direction a. Moves that leave the
// grid or hit a wall leave the agent where it is.
func (m *TransitionModel) Move(state Coord, a Action) Coord {
	target := state.Add(a.Offset())
	if !m.Grid.InBounds(target) || m.Grid.IsWall(target) {
		return state
	}
	return target
}

// Transitions returns the three outcomes of attempting action from state, ordered intended,
// predecessor, successor. Deflected branches keep their probability on the origin state, so
// the probabilities always sum to one. From a terminal state every branch stays put and
// carries the terminal's reward, since the only transition out of a terminal is the exit.
// Walls and pseudo-actions are rejected; callers handle those directly. A noise outside
// [0, 0.5] is a DomainError.
func (m *TransitionModel) Transitions(state Coord, action Action) ([]Outcome, error) {
	if !action.IsMove() {
		return nil, &InvalidActionError{At: state, Token: action.String()}
	}
	if !m.Grid.InBounds(state) || m.Grid.IsWall(state) {
		return nil, &InvalidActionError{At: state, Token: action.String()}
	}

	directions := [3]Action{action, action.Predecessor(), action.Successor()}
	probs := [3]float64{1 - 2*m.Noise, m.Noise, m.Noise}

	outcomes := make([]Outcome, 0, 3)
	if reward, isTerminal := m.Grid.RewardOf(state); isTerminal {
		for i := range directions {
			outcomes = append(outcomes, Outcome{Prob: probs[i], Next: state, Reward: reward})
		}
		if err := checkMass(outcomes, m.Noise); err != nil {
			return nil, err
		}
		return outcomes, nil
	}

	for i, dir := range directions {
		outcomes = append(outcomes, Outcome{
			Prob:   probs[i],
			Next:   m.Move(state, dir),
			Reward: m.LivingReward,
		})
	}
	if err := checkMass(outcomes, m.Noise); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// checkMass rejects a model whose noise leaves a negative branch or mass other than one.
func checkMass(outcomes []Outcome, noise float64) error {
	for _, o := range outcomes {
		if o.Prob < 0 || math.IsNaN(o.Prob) {
			return &DomainError{Field: "noise", Value: noise, Msg: "must lie in [0, 0.5]"}
		}
	}
	if math.Abs(TotalProb(outcomes)-1) > massTolerance {
		return &DomainError{Field: "noise", Value: noise, Msg: "transition mass must sum to one"}
	}
	return nil
}

// ExpectedValue is the one-step backup sum of p * (r + discount * V(s')) over the outcomes.
func ExpectedValue(outcomes []Outcome, discount float64, values ValueFunction) (total float64) {
	for _, o := range outcomes {
		total += o.Prob * (o.Reward + discount*values.At(o.Next))
	}
	return
}

// TotalProb is the probability mass of a set of outcomes.
func TotalProb(outcomes []Outcome) float64 {
	probs := make([]float64, len(outcomes))
	for i, o := range outcomes {
		probs[i] = o.Prob
	}
	return floats.Sum(probs)
}
