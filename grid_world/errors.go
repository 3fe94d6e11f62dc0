package grid_world

import "fmt"

// ParseError indicates a malformed problem: missing or unparseable fields, a
// non-rectangular grid, or a missing start state. Line is 0 when unknown.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error: line %d: %s", e.Line, e.Msg)
	}
	return "parse error: " + e.Msg
}

// InvalidActionError indicates a policy action that is not legal at a cell.
type InvalidActionError struct {
	At    Coord
	Token string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %q at %v", e.Token, e.At)
}

// DomainError indicates a parameter outside its domain, e.g. noise outside [0, 0.5].
type DomainError struct {
	Field string
	Value float64
	Msg   string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s=%v out of domain: %s", e.Field, e.Value, e.Msg)
}
