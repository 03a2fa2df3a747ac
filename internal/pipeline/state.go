package pipeline

import "fmt"

// State is the position of a run in the execution sequence. Each state
// names the stage most recently completed.
type State string

// Run states.
const (
	StateStart           State = "start"
	StateDebugStripped   State = "debug-stripped"
	StateMainPassesRun   State = "main-passes-run"
	StateSymbolsStripped State = "symbols-stripped"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// transitions lists the legal successors of each state. Done and Failed
// are terminal.
var transitions = map[State][]State{
	StateStart:           {StateDebugStripped, StateFailed},
	StateDebugStripped:   {StateMainPassesRun, StateFailed},
	StateMainPassesRun:   {StateSymbolsStripped, StateFailed},
	StateSymbolsStripped: {StateDone, StateFailed},
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// stateMachine tracks one run. An illegal transition is a bug in the
// executor, so it panics.
type stateMachine struct {
	current State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateStart}
}

func (m *stateMachine) advance(to State) {
	if !CanTransition(m.current, to) {
		panic(fmt.Sprintf("pipeline: illegal state transition %s -> %s", m.current, to))
	}
	m.current = to
}

func (m *stateMachine) State() State { return m.current }
