package automaton

// State represents a state in a deterministic finite automaton.
type State uint32

// DeadState is the sink state from which no accepting state is reachable.
const DeadState State = 0

// StartState is the initial state of every DFA built by this package.
const StartState State = 1

// NoMatch is the label of a state that accepts no pattern.
const NoMatch = -1

// Automaton is the read-only view of a deterministic automaton over bytes.
//
// Properties:
//   - Deterministic: single transition per (state, input)
//   - Complete: every byte leads somewhere, DeadState absorbs
//   - No ε-transitions
type Automaton interface {
	// Start returns the initial state.
	Start() State

	// Step returns the next state for the given input byte.
	// Returns DeadState if no accepting state is reachable any more.
	Step(state State, b byte) State

	// IsAccept returns true if the state is an accepting state.
	IsAccept(state State) bool

	// CanMatch returns true if any accepting state is reachable from this state.
	CanMatch(state State) bool
}

// Run feeds input through a byte by byte and reports whether it ends in an
// accepting state. It stops early once no match is possible.
func Run(a Automaton, input []byte) bool {
	state := a.Start()
	for _, b := range input {
		state = a.Step(state, b)
		if !a.CanMatch(state) {
			return false
		}
	}
	return a.IsAccept(state)
}
