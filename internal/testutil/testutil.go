package testutil

import (
	"os"
	"strings"
	"testing"

	"DerivLex/internal/lexer"
	"DerivLex/internal/regex"
	"DerivLex/internal/scan"
)

// WithTempDir creates a temporary directory, calls fn with its path,
// and cleans up afterwards.
func WithTempDir(t *testing.T, fn func(dir string)) {
	t.Helper()
	dir := t.TempDir()
	fn(dir)
}

// CLikeRules returns the rules of a small C-like language: whitespace and
// comments, keywords, identifiers, numbers, strings and operators.
func CLikeRules() []lexer.Rule {
	lower := regex.Range('a', 'z')
	alpha := regex.Alt(lower, regex.Range('A', 'Z'), regex.Literal('_'))
	digit := regex.Range('0', '9')
	notQuote := regex.Diff(regex.Any(), regex.AnyOf("\"\\\n"))
	escape := regex.Then(regex.Literal('\\'), regex.Any())
	anyRun := regex.Star(regex.Any())

	return []lexer.Rule{
		{Name: "ws", Pattern: regex.Plus(regex.AnyOf(" \t\r\n")), Skip: true},
		{Name: "line_comment", Pattern: regex.Concat(regex.LiteralString("//"), regex.Star(regex.Diff(regex.Any(), regex.Literal('\n')))), Skip: true},
		{Name: "block_comment", Pattern: regex.Concat(
			regex.LiteralString("/*"),
			regex.Not(regex.Concat(anyRun, regex.LiteralString("*/"), anyRun)),
			regex.LiteralString("*/"),
		), Skip: true},
		{Name: "keyword", Pattern: regex.Alt(
			regex.LiteralString("if"), regex.LiteralString("else"), regex.LiteralString("for"),
			regex.LiteralString("while"), regex.LiteralString("return"), regex.LiteralString("int"),
		)},
		{Name: "ident", Pattern: regex.Then(alpha, regex.Star(regex.Or(alpha, digit)))},
		{Name: "number", Pattern: regex.Then(regex.Plus(digit), regex.Opt(regex.Then(regex.Literal('.'), regex.Plus(digit))))},
		{Name: "string", Pattern: regex.Concat(regex.Literal('"'), regex.Star(regex.Or(notQuote, escape)), regex.Literal('"'))},
		{Name: "op", Pattern: regex.Alt(
			regex.LiteralString("=="), regex.LiteralString("!="), regex.LiteralString("<="),
			regex.LiteralString(">="), regex.LiteralString("&&"), regex.LiteralString("||"),
			regex.AnyOf("+-*/%=<>!&|(){}[];,."),
		)},
	}
}

// CLikeTable compiles CLikeRules.
func CLikeTable(t testing.TB) *scan.Table {
	t.Helper()
	table, _, err := lexer.Compile(CLikeRules())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return table
}

const cLikeUnit = `/* compute a sum */
int sum(int n) {
	int total = 0; // running total
	for (int i = 0; i <= n; i = i + 1) {
		if (i % 2 == 0 && i != 4) {
			total = total + i * 1.5;
		}
	}
	print("total: \"%d\"\n", total);
	return total;
}
`

// CLikeSource returns n copies of a short program accepted by CLikeRules.
func CLikeSource(n int) []byte {
	return []byte(strings.Repeat(cLikeUnit, n))
}

// AssertFileExists checks that a file exists at the given path.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected file to exist: %s", path)
	}
}
