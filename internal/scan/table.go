// Package scan flattens a minimized DFA into a dense transition table and
// splits input into maximal-munch tokens with it.
//
// A Table is read-only after construction and may be shared by any number
// of concurrent Scanners.
package scan

import (
	"errors"
	"fmt"

	"DerivLex/internal/automaton"
)

// Command tells the scanner what to do with a token of a rule.
type Command uint8

const (
	// Emit yields the token to the caller.
	Emit Command = iota
	// Skip consumes the token silently.
	Skip
)

func (c Command) String() string {
	switch c {
	case Emit:
		return "emit"
	case Skip:
		return "skip"
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// RuleInfo describes the rule behind a DFA label.
type RuleInfo struct {
	Name    string
	Command Command
}

var ErrRuleCountMismatch = errors.New("rule count does not match DFA patterns")

const (
	deadState  = uint32(automaton.DeadState)
	startState = uint32(automaton.StartState)
)

// Table is a flattened scanner table: a byte to class map shared by all
// states, a states × classes transition matrix and a label per state.
type Table struct {
	classes  [256]uint8
	nclasses int
	trans    []uint32
	labels   []int32
	rules    []RuleInfo
}

// NewTable flattens d, which should be minimized. rules[i] describes pattern
// i of d. Transitions into states that cannot reach acceptance are pointed at
// the dead state, so a scan stops at the first byte that rules out any
// further match.
func NewTable(d *automaton.DFA, rules []RuleInfo) (*Table, error) {
	if len(rules) != d.NumPatterns() {
		return nil, fmt.Errorf("%w: %d rules for %d patterns", ErrRuleCountMismatch, len(rules), d.NumPatterns())
	}
	classes, n := d.ByteClasses()
	reps := make([]byte, n)
	for b := 255; b >= 0; b-- {
		reps[classes[b]] = byte(b)
	}

	t := &Table{
		classes:  classes,
		nclasses: n,
		trans:    make([]uint32, d.NumStates()*n),
		labels:   make([]int32, d.NumStates()),
		rules:    append([]RuleInfo(nil), rules...),
	}
	for s := 0; s < d.NumStates(); s++ {
		t.labels[s] = int32(d.Label(automaton.State(s)))
		for c, b := range reps {
			to := d.Step(automaton.State(s), b)
			if !d.CanMatch(to) {
				to = automaton.DeadState
			}
			t.trans[s*n+c] = uint32(to)
		}
	}
	return t, nil
}

// Classes returns the byte to class map.
func (t *Table) Classes() [256]uint8 {
	return t.classes
}

// NumClasses returns the number of byte classes.
func (t *Table) NumClasses() int {
	return t.nclasses
}

// NumStates returns the number of states, including the dead state.
func (t *Table) NumStates() int {
	return len(t.labels)
}

// Next returns the successor of state on byte class class.
func (t *Table) Next(state uint32, class uint8) uint32 {
	return t.trans[int(state)*t.nclasses+int(class)]
}

// Step returns the successor of state on byte b.
func (t *Table) Step(state uint32, b byte) uint32 {
	return t.trans[int(state)*t.nclasses+int(t.classes[b])]
}

// Label returns the rule accepted in state, or automaton.NoMatch.
func (t *Table) Label(state uint32) int {
	return int(t.labels[state])
}

// NumRules returns the number of rules.
func (t *Table) NumRules() int {
	return len(t.rules)
}

// Rule returns the description of rule i.
func (t *Table) Rule(i int) RuleInfo {
	return t.rules[i]
}

// Rules returns a copy of all rule descriptions in priority order.
func (t *Table) Rules() []RuleInfo {
	return append([]RuleInfo(nil), t.rules...)
}

// RuleIndex returns the index of the first rule called name.
func (t *Table) RuleIndex(name string) (int, bool) {
	for i, r := range t.rules {
		if r.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Matches reports whether the whole of input is a single token, and of which
// rule.
func (t *Table) Matches(input []byte) (int, bool) {
	state := startState
	for _, b := range input {
		state = t.Step(state, b)
		if state == deadState {
			return automaton.NoMatch, false
		}
	}
	l := t.Label(state)
	return l, l != automaton.NoMatch
}

// Scan returns a Scanner over input.
func (t *Table) Scan(input []byte) *Scanner {
	return &Scanner{table: t, input: input}
}
