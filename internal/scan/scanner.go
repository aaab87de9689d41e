package scan

import (
	"errors"
	"fmt"
	"io"

	"DerivLex/internal/automaton"
)

var ErrUnrecognizedInput = errors.New("unrecognized input")

// UnrecognizedInputError reports that no rule matches a non-empty prefix of
// the input at Start. Offset is the position of the byte that ruled out every
// rule, or the input length if the input ended first.
type UnrecognizedInputError struct {
	Start  int
	Offset int
}

func (e *UnrecognizedInputError) Error() string {
	return fmt.Sprintf("unrecognized input at offset %d (token started at %d)", e.Offset, e.Start)
}

func (e *UnrecognizedInputError) Is(target error) bool {
	return target == ErrUnrecognizedInput
}

// Token is a matched span of input. Rule is the index of the rule that
// matched; End is exclusive.
type Token struct {
	Rule  int
	Start int
	End   int
}

// Text returns the bytes of input covered by tok.
func (tok Token) Text(input []byte) []byte {
	return input[tok.Start:tok.End]
}

// Len returns the length of the token in bytes.
func (tok Token) Len() int {
	return tok.End - tok.Start
}

// Scanner splits input into tokens by longest match, breaking ties in favour
// of the lower-numbered rule. A Scanner is not safe for concurrent use.
type Scanner struct {
	table *Table
	input []byte
	pos   int
	err   error
}

// Next returns the next emitted token. It returns io.EOF once the input is
// exhausted. After an unrecognized input error every call returns the same
// error until Reset is called.
func (s *Scanner) Next() (Token, error) {
	t := s.table
	for {
		if s.err != nil {
			return Token{}, s.err
		}
		if s.pos >= len(s.input) {
			return Token{}, io.EOF
		}

		start := s.pos
		rule, end := automaton.NoMatch, start
		state := startState
		i := start
		for i < len(s.input) {
			state = t.Step(state, s.input[i])
			if state == deadState {
				break
			}
			i++
			if l := t.Label(state); l != automaton.NoMatch {
				rule, end = l, i
			}
		}

		if rule == automaton.NoMatch {
			s.err = &UnrecognizedInputError{Start: start, Offset: i}
			return Token{}, s.err
		}
		s.pos = end
		if t.rules[rule].Command == Skip {
			continue
		}
		return Token{Rule: rule, Start: start, End: end}, nil
	}
}

// Pos returns the offset at which the next token starts.
func (s *Scanner) Pos() int {
	return s.pos
}

// Reset clears any error and continues scanning at offset, clamped to the
// input bounds.
func (s *Scanner) Reset(offset int) {
	s.pos = min(max(offset, 0), len(s.input))
	s.err = nil
}

// Tokens scans the whole of input. On unrecognized input it returns the
// tokens scanned so far together with the error.
func Tokens(t *Table, input []byte) ([]Token, error) {
	var tokens []Token
	s := t.Scan(input)
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}
