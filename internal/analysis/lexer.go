package analysis

import (
	"errors"
	"strings"

	"DerivLex/internal/lexer"
	"DerivLex/internal/scan"
)

// LexerAnalyzer turns the tokens of a compiled scanner table into analysis
// tokens. Input no rule matches is dropped one byte at a time.
type LexerAnalyzer struct {
	table *scan.Table
	lower bool
}

// LexerOption configures a LexerAnalyzer.
type LexerOption func(*LexerAnalyzer)

// WithLowercase lowercases every term.
func WithLowercase() LexerOption {
	return func(a *LexerAnalyzer) {
		a.lower = true
	}
}

// NewLexerAnalyzer wraps a compiled table.
func NewLexerAnalyzer(table *scan.Table, opts ...LexerOption) *LexerAnalyzer {
	a := &LexerAnalyzer{table: table}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scans text and returns one token per emitted lexer token, numbered
// consecutively.
func (a *LexerAnalyzer) Analyze(_ string, text string) []Token {
	var tokens []Token
	input := []byte(text)
	s := a.table.Scan(input)
	for {
		tok, err := s.Next()
		if err != nil {
			var uerr *scan.UnrecognizedInputError
			if errors.As(err, &uerr) {
				s.Reset(uerr.Start + 1)
				continue
			}
			return tokens
		}
		term := text[tok.Start:tok.End]
		if a.lower {
			term = strings.ToLower(term)
		}
		tokens = append(tokens, Token{
			Term:      term,
			Rule:      a.table.Rule(tok.Rule).Name,
			Position:  len(tokens),
			StartByte: tok.Start,
			EndByte:   tok.End,
		})
	}
}

// mustCompile compiles built-in rules, which are known to be valid.
func mustCompile(rules []lexer.Rule) *scan.Table {
	table, _, err := lexer.Compile(rules)
	if err != nil {
		panic("analysis: built-in rules: " + err.Error())
	}
	return table
}
