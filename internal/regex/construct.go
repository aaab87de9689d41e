package regex

import (
	"fmt"
	"slices"

	"DerivLex/internal/byteset"
)

// Empty returns the expression matching no string.
func Empty() *Expr { return empty }

// Epsilon returns the expression matching only the empty string.
func Epsilon() *Expr { return epsilon }

// Top returns Not(Empty), the expression matching every string.
func Top() *Expr { return top }

// Set returns an expression matching exactly one byte from s.
// It panics if s is empty: an empty character class is a caller bug.
func Set(s byteset.Set) *Expr {
	if s.IsEmpty() {
		panic("regex: empty character class")
	}
	return newExpr(KindBytes, s, nil)
}

// Literal returns an expression matching the single byte b.
func Literal(b byte) *Expr {
	return newExpr(KindBytes, byteset.Single(b), nil)
}

// Range returns an expression matching one byte in [lo, hi].
// It panics if lo > hi.
func Range(lo, hi byte) *Expr {
	if lo > hi {
		panic(fmt.Sprintf("regex: empty character class [%#02x-%#02x]", lo, hi))
	}
	return newExpr(KindBytes, byteset.Range(lo, hi), nil)
}

// Any returns an expression matching one arbitrary byte.
func Any() *Expr {
	return newExpr(KindBytes, byteset.Full(), nil)
}

// AnyOf returns an expression matching one byte out of s.
// It panics if s is empty.
func AnyOf(s string) *Expr {
	return Set(byteset.Of([]byte(s)...))
}

// LiteralString returns an expression matching exactly the bytes of s.
// An empty s yields Epsilon.
func LiteralString(s string) *Expr {
	parts := make([]*Expr, len(s))
	for i := 0; i < len(s); i++ {
		parts[i] = Literal(s[i])
	}
	return Concat(parts...)
}

// set builds a Bytes node, mapping the empty set to Empty. Used where empty
// sets arise from set algebra rather than from the caller.
func set(s byteset.Set) *Expr {
	if s.IsEmpty() {
		return empty
	}
	return newExpr(KindBytes, s, nil)
}

// Then returns the concatenation a·b.
func Then(a, b *Expr) *Expr {
	return Concat(a, b)
}

// Concat returns the concatenation of xs in order. No operands yields Epsilon.
func Concat(xs ...*Expr) *Expr {
	subs := make([]*Expr, 0, len(xs))
	for _, x := range xs {
		switch x.kind {
		case KindEmpty:
			return empty
		case KindEpsilon:
		case KindSeq:
			subs = append(subs, x.subs...)
		default:
			subs = append(subs, x)
		}
	}
	return seqOf(subs)
}

// seqOf wraps already-normalized factors into a Seq without re-checking them.
func seqOf(subs []*Expr) *Expr {
	switch len(subs) {
	case 0:
		return epsilon
	case 1:
		return subs[0]
	}
	return newExpr(KindSeq, byteset.Set{}, subs)
}

// Or returns the union a|b.
func Or(a, b *Expr) *Expr {
	return Alt(a, b)
}

// Alt returns the union of xs. No operands yields Empty.
func Alt(xs ...*Expr) *Expr {
	var (
		bytes    byteset.Set
		hasBytes bool
		subs     = make([]*Expr, 0, len(xs))
	)
	add := func(x *Expr) bool {
		switch {
		case x.kind == KindEmpty:
		case x.kind == KindBytes:
			bytes = bytes.Union(x.set)
			hasBytes = true
		case x == top || x.kind == KindNot && x.subs[0].kind == KindEmpty:
			return false
		default:
			subs = append(subs, x)
		}
		return true
	}
	for _, x := range xs {
		if x.kind == KindOr {
			for _, s := range x.subs {
				add(s)
			}
			continue
		}
		if !add(x) {
			return top
		}
	}
	if hasBytes {
		subs = append(subs, set(bytes))
	}
	return variadic(KindOr, subs, empty)
}

// And returns the intersection a&b.
func And(a, b *Expr) *Expr {
	return All(a, b)
}

// All returns the intersection of xs. No operands yields Top.
func All(xs ...*Expr) *Expr {
	var (
		bytes    = byteset.Full()
		hasBytes bool
		hasEps   bool
		subs     = make([]*Expr, 0, len(xs))
	)
	add := func(x *Expr) bool {
		switch {
		case x.kind == KindEmpty:
			return false
		case x.kind == KindEpsilon:
			hasEps = true
		case x.kind == KindBytes:
			bytes = bytes.Intersect(x.set)
			hasBytes = true
		case x.kind == KindNot && x.subs[0].kind == KindEmpty:
		default:
			subs = append(subs, x)
		}
		return true
	}
	for _, x := range xs {
		if x.kind == KindAnd {
			for _, s := range x.subs {
				add(s)
			}
			continue
		}
		if !add(x) {
			return empty
		}
	}
	if hasBytes {
		if bytes.IsEmpty() {
			return empty
		}
		subs = append(subs, newExpr(KindBytes, bytes, nil))
	}
	if hasEps {
		// ε ∩ L is {ε} when L contains ε, otherwise nothing.
		for _, s := range subs {
			if !s.nullable {
				return empty
			}
		}
		return epsilon
	}
	return variadic(KindAnd, subs, top)
}

// variadic sorts and deduplicates subs and wraps them in an Or/And node.
func variadic(kind Kind, subs []*Expr, identity *Expr) *Expr {
	slices.SortFunc(subs, Compare)
	subs = slices.CompactFunc(subs, Equal)
	switch len(subs) {
	case 0:
		return identity
	case 1:
		return subs[0]
	}
	return newExpr(kind, byteset.Set{}, subs)
}

// Diff returns the difference a\b, built as a & !b.
func Diff(a, b *Expr) *Expr {
	return And(a, Not(b))
}

// Star returns the Kleene closure a*.
func Star(a *Expr) *Expr {
	switch a.kind {
	case KindEmpty, KindEpsilon:
		return epsilon
	case KindStar:
		return a
	}
	return newExpr(KindStar, byteset.Set{}, []*Expr{a})
}

// Plus returns a+, built as a·a*.
func Plus(a *Expr) *Expr {
	return Then(a, Star(a))
}

// Opt returns a?, built as a|ε.
func Opt(a *Expr) *Expr {
	return Or(a, epsilon)
}

// Not returns the complement of a with respect to all byte strings.
func Not(a *Expr) *Expr {
	switch {
	case a.kind == KindNot:
		return a.subs[0]
	case a.kind == KindEmpty:
		return top
	}
	return newExpr(KindNot, byteset.Set{}, []*Expr{a})
}
