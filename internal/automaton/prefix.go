package automaton

import "DerivLex/internal/regex"

// PrefixPattern returns the expression matching every string that starts
// with prefix.
func PrefixPattern(prefix []byte) *regex.Expr {
	return regex.Then(regex.LiteralString(string(prefix)), regex.Star(regex.Any()))
}

// NewPrefixAutomaton creates a minimal DFA accepting strings with the given
// prefix. It has len(prefix)+2 states: the dead state, one state per prefix
// position and the accepting state that loops on any byte.
func NewPrefixAutomaton(prefix []byte) *DFA {
	d, err := Build(PrefixPattern(prefix), WithMaxStates(len(prefix)+3))
	if err != nil {
		// A literal prefix never needs more than len(prefix)+2 states.
		panic("automaton: " + err.Error())
	}
	return d.Minimize()
}
