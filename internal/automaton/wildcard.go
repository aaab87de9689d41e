package automaton

import (
	"errors"

	"DerivLex/internal/regex"
)

// Wildcard pattern limits.
const MaxWildcardPatternLength = 256

var (
	ErrWildcardPatternTooLong = errors.New("wildcard pattern exceeds maximum length")
	ErrDFAStateLimitExceeded  = errors.New("DFA state limit exceeded during construction")
)

// WildcardPattern converts a wildcard pattern into an expression. '*' matches
// zero or more bytes and '?' exactly one; every other byte matches itself.
func WildcardPattern(pattern []byte) (*regex.Expr, error) {
	if len(pattern) > MaxWildcardPatternLength {
		return nil, ErrWildcardPatternTooLong
	}
	parts := make([]*regex.Expr, 0, len(pattern))
	for _, ch := range pattern {
		switch ch {
		case '*':
			parts = append(parts, regex.Star(regex.Any()))
		case '?':
			parts = append(parts, regex.Any())
		default:
			parts = append(parts, regex.Literal(ch))
		}
	}
	return regex.Concat(parts...), nil
}

// NewWildcardAutomaton compiles a wildcard pattern into a minimal DFA.
func NewWildcardAutomaton(pattern []byte, opts ...Option) (*DFA, error) {
	e, err := WildcardPattern(pattern)
	if err != nil {
		return nil, err
	}
	d, err := Build(e, opts...)
	if err != nil {
		return nil, err
	}
	return d.Minimize(), nil
}
