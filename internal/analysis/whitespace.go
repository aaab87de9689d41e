package analysis

import (
	"sync"

	"DerivLex/internal/lexer"
	"DerivLex/internal/regex"
	"DerivLex/internal/scan"
)

var whitespaceTable = sync.OnceValue(func() *scan.Table {
	space := regex.AnyOf(" \t\n\r\v\f")
	return mustCompile([]lexer.Rule{
		{Name: "space", Pattern: regex.Plus(space), Skip: true},
		{Name: "field", Pattern: regex.Plus(regex.Diff(regex.Any(), space))},
	})
})

// WhitespaceAnalyzer splits text on ASCII whitespace without any
// normalization.
type WhitespaceAnalyzer struct {
	*LexerAnalyzer
}

// NewWhitespaceAnalyzer creates a new WhitespaceAnalyzer.
func NewWhitespaceAnalyzer() *WhitespaceAnalyzer {
	return &WhitespaceAnalyzer{NewLexerAnalyzer(whitespaceTable())}
}
