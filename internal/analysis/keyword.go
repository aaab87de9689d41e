package analysis

import (
	"sync"

	"DerivLex/internal/lexer"
	"DerivLex/internal/regex"
	"DerivLex/internal/scan"
)

var keywordTable = sync.OnceValue(func() *scan.Table {
	return mustCompile([]lexer.Rule{
		{Name: "keyword", Pattern: regex.Plus(regex.Any())},
	})
})

// KeywordAnalyzer passes the entire input as a single token with no tokenization.
type KeywordAnalyzer struct {
	*LexerAnalyzer
}

// NewKeywordAnalyzer creates a new KeywordAnalyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{NewLexerAnalyzer(keywordTable())}
}
