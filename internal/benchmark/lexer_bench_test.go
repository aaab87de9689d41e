package benchmark

import (
	"testing"

	"DerivLex/internal/lexer"
	"DerivLex/internal/testutil"
)

func BenchmarkLexer_Compile(b *testing.B) {
	rules := testutil.CLikeRules()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := lexer.Compile(rules); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLexer_CacheHit(b *testing.B) {
	rules := testutil.CLikeRules()
	c := lexer.NewCache(0)
	if _, _, _, err := c.Compile(rules); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, hit, err := c.Compile(rules); err != nil || !hit {
			b.Fatalf("hit=%v err=%v", hit, err)
		}
	}
}

func BenchmarkLexer_Fingerprint(b *testing.B) {
	rules := testutil.CLikeRules()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = lexer.Fingerprint(rules)
	}
}
