package grid_world

import (
	"fmt"
	"strings"
)

// Action is one of the four compass moves, or one of the two pseudo-actions: EXIT, legal
// only from a terminal, and NO_ACTION, the marker for walls.
type Action int

const (
	NORTH Action = iota
	EAST
	SOUTH
	WEST
	EXIT
	NO_ACTION
)

// Policy tokens.
const (
	ExitToken     = "exit"
	NoActionToken = "#"
)

// The compass cycle N->E->S->W->N. Action values index into it.
var compass = [4]Action{NORTH, EAST, SOUTH, WEST}

var offsets = [4]Coord{
	NORTH: {Row: -1},
	EAST:  {Col: 1},
	SOUTH: {Row: 1},
	WEST:  {Col: -1},
}

// IsMove reports whether the action is a compass direction.
func (a Action) IsMove() bool {
	return a >= NORTH && a <= WEST
}

// Offset is the unit displacement of a compass action.
func (a Action) Offset() Coord {
	return offsets[a]
}

// Predecessor is the previous direction in the compass cycle, e.g. W for N.
func (a Action) Predecessor() Action {
	return compass[(int(a)+3)%4]
}

// Successor is the next direction in the compass cycle, e.g. E for N.
func (a Action) Successor() Action {
	return compass[(int(a)+1)%4]
}

// Letter is the policy-grid symbol: N/E/S/W, x for exit, # for walls.
func (a Action) Letter() string {
	switch a {
	case NORTH:
		return "N"
	case EAST:
		return "E"
	case SOUTH:
		return "S"
	case WEST:
		return "W"
	case EXIT:
		return "x"
	}
	return NoActionToken
}

// String is the input token form of the action.
func (a Action) String() string {
	if a == EXIT {
		return ExitToken
	}
	return a.Letter()
}

// ParseAction converts a policy token. Only N, E, S, W, exit and # are legal.
func ParseAction(token string) (Action, bool) {
	switch token {
	case "N":
		return NORTH, true
	case "E":
		return EAST, true
	case "S":
		return SOUTH, true
	case "W":
		return WEST, true
	case ExitToken:
		return EXIT, true
	case NoActionToken:
		return NO_ACTION, true
	}
	return NO_ACTION, false
}

// ActionOrder is the order in which a greedy backup tries the compass actions. The first
// action to reach the maximum wins, so the order is observable in derived policies.
type ActionOrder []Action

var (
	// NESW is the compass order and the default.
	NESW = ActionOrder{NORTH, EAST, SOUTH, WEST}
	// NSWE is the alternate tie-break order of some problem sets.
	NSWE = ActionOrder{NORTH, SOUTH, WEST, EAST}
)

// ParseActionOrder converts a string such as "NESW" into an order. Every compass
// direction must appear exactly once.
func ParseActionOrder(s string) (ActionOrder, error) {
	if s == "" {
		return NESW, nil
	}
	letters := strings.Split(strings.ToUpper(s), "")
	if len(letters) != 4 {
		return nil, fmt.Errorf("action order %q must name four directions", s)
	}

	order := make(ActionOrder, 0, 4)
	seen := map[Action]bool{}
	for _, letter := range letters {
		action, ok := ParseAction(letter)
		if !ok || !action.IsMove() || seen[action] {
			return nil, fmt.Errorf("action order %q must be a permutation of NESW", s)
		}
		seen[action] = true
		order = append(order, action)
	}
	return order, nil
}

func (order ActionOrder) String() string {
	var sb strings.Builder
	for _, a := range order {
		sb.WriteString(a.Letter())
	}
	return sb.String()
}
