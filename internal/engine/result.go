package engine

import "fmt"

// Result is the outcome of a compile.
type Result int

const (
	OK Result = iota
	ParseError
	ValidationError
	InterpreterError
	NotCompiledYet
)

var resultNames = [...]string{
	OK:               "OK",
	ParseError:       "ParseError",
	ValidationError:  "ValidationError",
	InterpreterError: "InterpreterError",
	NotCompiledYet:   "NotCompiledYet",
}

func (r Result) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return fmt.Sprintf("Result(%d)", int(r))
	}
	return resultNames[r]
}

// State is the lifecycle state of an engine.
type State int

const (
	NotCompiled State = iota
	Compiled
	Executing
)

func (s State) String() string {
	switch s {
	case NotCompiled:
		return "NotCompiled"
	case Compiled:
		return "Compiled"
	case Executing:
		return "Executing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Action is what a handler is asked to do with a node.
type Action int

const (
	// Init runs once per successful compile, in execution order.
	Init Action = iota
	// Execute runs once per frame.
	Execute
)

func (a Action) String() string {
	if a == Init {
		return "Init"
	}
	return "Execute"
}
