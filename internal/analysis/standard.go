package analysis

import (
	"sync"

	"DerivLex/internal/byteset"
	"DerivLex/internal/lexer"
	"DerivLex/internal/regex"
	"DerivLex/internal/scan"
)

// wordBytes are the bytes of word characters: ASCII letters, digits, '_' and
// every byte of a multi-byte UTF-8 sequence.
var wordBytes = byteset.Range('a', 'z').
	Union(byteset.Range('A', 'Z')).
	Union(byteset.Range('0', '9')).
	Union(byteset.Single('_')).
	Union(byteset.Range(0x80, 0xff))

var standardTable = sync.OnceValue(func() *scan.Table {
	return mustCompile([]lexer.Rule{
		{Name: "word", Pattern: regex.Plus(regex.Set(wordBytes))},
		{Name: "separator", Pattern: regex.Plus(regex.Set(wordBytes.Complement())), Skip: true},
	})
})

// StandardAnalyzer splits text into runs of word characters and lowercases
// them. Non-ASCII characters count as word characters.
type StandardAnalyzer struct {
	*LexerAnalyzer
}

// NewStandardAnalyzer creates a new StandardAnalyzer.
func NewStandardAnalyzer() *StandardAnalyzer {
	return &StandardAnalyzer{NewLexerAnalyzer(standardTable(), WithLowercase())}
}
