package regex

import (
	"math/rand"
	"testing"

	"DerivLex/internal/byteset"
)

func TestThen(t *testing.T) {
	a, b := Literal('a'), Literal('b')
	if Then(a, Empty()) != Empty() || Then(Empty(), a) != Empty() {
		t.Error("Empty should absorb concatenation")
	}
	if Then(a, Epsilon()) != a || Then(Epsilon(), a) != a {
		t.Error("Epsilon should be the identity of concatenation")
	}
	ab := Then(a, b)
	abab := Then(ab, ab)
	if abab.Kind() != KindSeq || len(abab.Subs()) != 4 {
		t.Errorf("nested Seq should flatten, got %v", abab)
	}
	for _, s := range abab.Subs() {
		if s.Kind() == KindSeq || s.Kind() == KindEpsilon {
			t.Errorf("Seq contains %v", s.Kind())
		}
	}
	if !Equal(Then(Then(a, b), a), Then(a, Then(b, a))) {
		t.Error("concatenation should be associative after normalization")
	}
}

func TestOr(t *testing.T) {
	a, b := Literal('a'), Literal('b')
	if !Equal(Or(a, Empty()), a) || !Equal(Or(Empty(), a), a) {
		t.Error("Empty should be the identity of union")
	}
	if got := Or(a, b); got.Kind() != KindBytes || got.Set() != byteset.Of('a', 'b') {
		t.Errorf("Or of two byte sets should merge into one set, got %v", got)
	}
	x := Star(LiteralString("ab"))
	y := LiteralString("cd")
	if !Equal(Or(x, y), Or(y, x)) {
		t.Error("union should be commutative after normalization")
	}
	if !Equal(Or(Or(x, y), a), Or(x, Or(y, a))) {
		t.Error("union should be associative after normalization")
	}
	if got := Or(Or(x, y), Or(x, y)); len(got.Subs()) != 2 {
		t.Errorf("duplicate branches should merge, got %v", got)
	}
	if Or(x, Top()) != Top() {
		t.Error("Top should absorb union")
	}
}

func TestAnd(t *testing.T) {
	x := Star(LiteralString("ab"))
	y := Plus(Range('a', 'b'))
	if And(x, Empty()) != Empty() || And(Empty(), x) != Empty() {
		t.Error("Empty should absorb intersection")
	}
	if And(x, Top()) != x || And(Top(), x) != x {
		t.Error("Not(Empty) should be the identity of intersection")
	}
	if !Equal(And(x, y), And(y, x)) {
		t.Error("intersection should be commutative after normalization")
	}
	if got := And(Range('a', 'm'), Range('h', 'z')); got.Set() != byteset.Range('h', 'm') {
		t.Errorf("And of byte sets should intersect, got %v", got)
	}
	if And(Literal('a'), Literal('b')) != Empty() {
		t.Error("disjoint byte sets should intersect to Empty")
	}
	if And(Epsilon(), x) != Epsilon() {
		t.Error("ε ∩ nullable should be ε")
	}
	if And(Epsilon(), y) != Empty() {
		t.Error("ε ∩ non-nullable should be ∅")
	}
}

func TestStar(t *testing.T) {
	a := Literal('a')
	if Star(Empty()) != Epsilon() || Star(Epsilon()) != Epsilon() {
		t.Error("star of Empty/Epsilon should be Epsilon")
	}
	if s := Star(a); Star(s) != s {
		t.Error("star should be idempotent")
	}
	if p := Plus(a); !Equal(p, Then(a, Star(a))) {
		t.Errorf("Plus(a) = %v", p)
	}
	if o := Opt(a); !o.Nullable() || !Equal(o, Or(Epsilon(), a)) {
		t.Errorf("Opt(a) = %v", o)
	}
}

func TestNot(t *testing.T) {
	x := Then(Literal('a'), Star(Literal('b')))
	if Not(Not(x)) != x {
		t.Error("double complement should cancel")
	}
	if Not(Empty()) != Top() {
		t.Error("Not(Empty) should be Top")
	}
	d := Diff(x, x)
	for _, s := range []string{"", "a", "ab", "abb", "b"} {
		if d.Matches([]byte(s)) {
			t.Errorf("x \\ x should not match %q", s)
		}
	}
}

func TestCanonical_RandomIdempotence(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		x := randomExpr(r, 4)
		if !Equal(Or(x, x), x) {
			t.Fatalf("Or(x, x) != x for %v", x)
		}
		if !Equal(And(x, x), x) {
			t.Fatalf("And(x, x) != x for %v", x)
		}
		if !Equal(Star(Star(x)), Star(x)) {
			t.Fatalf("Star(Star(x)) != Star(x) for %v", x)
		}
		if !Equal(Not(Not(x)), x) {
			t.Fatalf("Not(Not(x)) != x for %v", x)
		}
	}
}

func TestConstructorInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	var check func(e *Expr)
	check = func(e *Expr) {
		switch e.Kind() {
		case KindBytes:
			if e.Set().IsEmpty() {
				t.Fatalf("%v: empty Bytes", e)
			}
		case KindSeq:
			if len(e.Subs()) < 2 {
				t.Fatalf("%v: short Seq", e)
			}
			for _, s := range e.Subs() {
				if s.Kind() == KindSeq || s.Kind() == KindEpsilon || s.Kind() == KindEmpty {
					t.Fatalf("%v: Seq contains %v", e, s.Kind())
				}
			}
		case KindOr, KindAnd:
			subs := e.Subs()
			if len(subs) < 2 {
				t.Fatalf("%v: short %v", e, e.Kind())
			}
			nbytes := 0
			for i, s := range subs {
				if s.Kind() == e.Kind() || s.Kind() == KindEmpty {
					t.Fatalf("%v: %v contains %v", e, e.Kind(), s.Kind())
				}
				if s.Kind() == KindBytes {
					nbytes++
				}
				if i > 0 && Compare(subs[i-1], s) >= 0 {
					t.Fatalf("%v: operands not strictly sorted", e)
				}
			}
			if nbytes > 1 {
				t.Fatalf("%v: more than one Bytes operand", e)
			}
		case KindStar:
			if k := e.Subs()[0].Kind(); k == KindStar || k == KindEpsilon || k == KindEmpty {
				t.Fatalf("%v: Star of %v", e, k)
			}
		case KindNot:
			if e.Subs()[0].Kind() == KindNot {
				t.Fatalf("%v: double Not", e)
			}
		}
		for _, s := range e.Subs() {
			check(s)
		}
	}
	for i := 0; i < 300; i++ {
		e := randomExpr(r, 5)
		check(e)
		for j := 0; j < len(alphabet); j++ {
			check(e.Deriv(alphabet[j]))
		}
	}
}

func TestEmptyClassPanics(t *testing.T) {
	cases := map[string]func(){
		"Set":   func() { Set(byteset.Empty()) },
		"Range": func() { Range('z', 'a') },
		"AnyOf": func() { AnyOf("") },
	}
	for name, fn := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s with an empty class should panic", name)
				}
			}()
			fn()
		}()
	}
}

func TestLiteralString(t *testing.T) {
	if LiteralString("") != Epsilon() {
		t.Error(`LiteralString("") should be ε`)
	}
	if got := LiteralString("abc").String(); got != "(abc)" {
		t.Errorf("String() = %q", got)
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		e    *Expr
		want string
	}{
		{Empty(), "∅"},
		{Epsilon(), "ε"},
		{Range('a', 'z'), "[a-z]"},
		{Star(Literal('a')), "(a)*"},
		{Not(LiteralString("ab")), "!((ab))"},
	}
	for _, c := range cases {
		if got := c.e.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	x := Or(LiteralString("ab"), Star(Literal('c')))
	y := Or(Star(Literal('c')), LiteralString("ab"))
	if in.ID(x) != in.ID(y) {
		t.Error("equal expressions built separately should share an id")
	}
	if in.ID(x) == in.ID(LiteralString("ab")) {
		t.Error("different expressions should not share an id")
	}
	n := in.Len()
	in.ID(y)
	if in.Len() != n {
		t.Error("re-interning should not add ids")
	}
}
