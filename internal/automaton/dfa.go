package automaton

import (
	"errors"
	"fmt"

	"DerivLex/internal/byteset"
)

var ErrInvalidPartition = errors.New("state edges do not partition the byte alphabet")

// Edge sends every byte of Set to To.
type Edge struct {
	Set byteset.Set
	To  State
}

type dfaState struct {
	edges []Edge
	label int
}

// DFA is a complete deterministic automaton over bytes. State 0 is the dead
// sink and state 1 the start. Each state's outgoing edges partition the
// byte alphabet; each state carries a label, the index of the pattern it
// accepts or NoMatch.
//
// A DFA is immutable once built and is safe for concurrent use.
type DFA struct {
	states   []dfaState
	live     []bool
	patterns int
}

var _ Automaton = (*DFA)(nil)

func (d *DFA) Start() State {
	return StartState
}

func (d *DFA) Step(state State, b byte) State {
	if int(state) >= len(d.states) {
		return DeadState
	}
	for _, e := range d.states[state].edges {
		if e.Set.Contains(b) {
			return e.To
		}
	}
	return DeadState
}

func (d *DFA) IsAccept(state State) bool {
	return d.Label(state) != NoMatch
}

func (d *DFA) CanMatch(state State) bool {
	return int(state) < len(d.live) && d.live[state]
}

// Label returns the index of the pattern accepted in state, or NoMatch.
// In vector mode this is the lowest-numbered nullable pattern.
func (d *DFA) Label(state State) int {
	if int(state) >= len(d.states) {
		return NoMatch
	}
	return d.states[state].label
}

// NumStates returns the number of states, including the dead state.
func (d *DFA) NumStates() int {
	return len(d.states)
}

// NumPatterns returns the number of patterns the DFA was built from.
func (d *DFA) NumPatterns() int {
	return d.patterns
}

// Edges returns a copy of the outgoing edges of state, ordered by their
// smallest byte. An out-of-range state has no edges.
func (d *DFA) Edges(state State) []Edge {
	if int(state) >= len(d.states) {
		return nil
	}
	return append([]Edge(nil), d.states[state].edges...)
}

// Match runs input from the start state and returns the label of the final
// state, or NoMatch.
func (d *DFA) Match(input []byte) int {
	state := StartState
	for _, b := range input {
		state = d.Step(state, b)
		if state == DeadState {
			return NoMatch
		}
	}
	return d.Label(state)
}

// Matches reports whether the whole of input is accepted by some pattern.
func (d *DFA) Matches(input []byte) bool {
	return d.Match(input) != NoMatch
}

// Validate checks the structural invariants of d: every state's edges are
// non-empty, pairwise disjoint and together cover all 256 bytes, and every
// target is a valid state.
func (d *DFA) Validate() error {
	if len(d.states) < 2 {
		return fmt.Errorf("%w: only %d states", ErrInvalidPartition, len(d.states))
	}
	for i, st := range d.states {
		var seen byteset.Set
		for _, e := range st.edges {
			if e.Set.IsEmpty() {
				return fmt.Errorf("%w: state %d has an empty edge", ErrInvalidPartition, i)
			}
			if !seen.Intersect(e.Set).IsEmpty() {
				return fmt.Errorf("%w: state %d has overlapping edges on %v", ErrInvalidPartition, i, seen.Intersect(e.Set))
			}
			if int(e.To) >= len(d.states) {
				return fmt.Errorf("%w: state %d targets unknown state %d", ErrInvalidPartition, i, e.To)
			}
			seen = seen.Union(e.Set)
		}
		if !seen.IsFull() {
			return fmt.Errorf("%w: state %d misses %v", ErrInvalidPartition, i, seen.Complement())
		}
	}
	return nil
}

// Reachable returns, for every state, whether it can be reached from the
// start state. The dead state is always reported reachable.
func (d *DFA) Reachable() []bool {
	seen := make([]bool, len(d.states))
	seen[DeadState] = true
	seen[StartState] = true
	queue := []State{StartState}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, e := range d.states[s].edges {
			if !seen[e.To] {
				seen[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return seen
}

// ByteClasses computes the coarsest partition of the byte alphabet such that
// two bytes in the same class move every state to the same target. Classes
// are numbered in order of their smallest byte, so byte 0 is in class 0.
func (d *DFA) ByteClasses() (classes [256]uint8, n int) {
	var cls [256]int
	n = 1
	for _, st := range d.states {
		type key struct {
			class int
			to    State
		}
		remap := make(map[key]int, n)
		var next [256]int
		for _, e := range st.edges {
			for _, b := range e.Set.Bytes() {
				k := key{cls[b], e.To}
				id, ok := remap[k]
				if !ok {
					id = len(remap)
					remap[k] = id
				}
				next[b] = id
			}
		}
		cls, n = next, len(remap)
	}

	order := make(map[int]uint8, n)
	for b := 0; b < 256; b++ {
		id, ok := order[cls[b]]
		if !ok {
			id = uint8(len(order))
			order[cls[b]] = id
		}
		classes[b] = id
	}
	return classes, len(order)
}

// finish computes derived per-state data once the states are final.
func (d *DFA) finish() *DFA {
	preds := make([][]State, len(d.states))
	for i, st := range d.states {
		for _, e := range st.edges {
			preds[e.To] = append(preds[e.To], State(i))
		}
	}
	d.live = make([]bool, len(d.states))
	var stack []State
	for i, st := range d.states {
		if st.label != NoMatch {
			d.live[i] = true
			stack = append(stack, State(i))
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range preds[s] {
			if !d.live[p] {
				d.live[p] = true
				stack = append(stack, p)
			}
		}
	}
	return d
}
