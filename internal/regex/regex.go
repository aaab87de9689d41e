// Package regex implements canonicalizing regular expression trees over byte
// sets and their Brzozowski derivatives.
//
// Expressions are built only through the smart constructors in this package
// (Literal, Range, Set, Then, Or, And, Diff, Star, Plus, Opt, Not). Each
// constructor normalizes its result, so every reachable *Expr is in normal
// form and structurally equal languages usually produce structurally equal
// trees. Expressions are immutable and may be shared freely between
// goroutines.
package regex

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"DerivLex/internal/byteset"
)

// Kind identifies the operator at the root of an expression.
type Kind uint8

const (
	KindEmpty   Kind = iota // matches nothing
	KindEpsilon             // matches only the empty string
	KindBytes               // matches one byte from a non-empty set
	KindSeq                 // concatenation of two or more expressions
	KindStar                // zero or more repetitions
	KindOr                  // union of two or more expressions
	KindAnd                 // intersection of two or more expressions
	KindNot                 // complement
)

var kindNames = [...]string{"empty", "epsilon", "bytes", "seq", "star", "or", "and", "not"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Expr is a node of a normalized expression tree.
//
// Invariants (maintained by the smart constructors):
//   - Bytes: set is non-empty.
//   - Seq: at least 2 subs, none Empty, Epsilon or Seq.
//   - Star: sub is not Empty, Epsilon or Star.
//   - Or: at least 2 subs, sorted and distinct, none Empty or Or, at most one Bytes.
//   - And: at least 2 subs, sorted and distinct, none Empty, Epsilon, And or Not(Empty),
//     at most one Bytes.
//   - Not: sub is not Not.
type Expr struct {
	kind     Kind
	set      byteset.Set
	subs     []*Expr
	nullable bool
	hash     uint64
	size     int
}

var (
	empty   = newExpr(KindEmpty, byteset.Set{}, nil)
	epsilon = newExpr(KindEpsilon, byteset.Set{}, nil)
	top     = newExpr(KindNot, byteset.Set{}, []*Expr{empty})
)

func newExpr(kind Kind, set byteset.Set, subs []*Expr) *Expr {
	e := &Expr{kind: kind, set: set, subs: subs, size: 1}

	buf := make([]byte, 0, 1+32+8*len(subs))
	buf = append(buf, byte(kind))
	if kind == KindBytes {
		buf = set.AppendBinary(buf)
	}
	for _, s := range subs {
		buf = binary.LittleEndian.AppendUint64(buf, s.hash)
		e.size += s.size
	}
	e.hash = xxhash.Sum64(buf)

	switch kind {
	case KindEpsilon, KindStar:
		e.nullable = true
	case KindSeq, KindAnd:
		e.nullable = true
		for _, s := range subs {
			if !s.nullable {
				e.nullable = false
				break
			}
		}
	case KindOr:
		for _, s := range subs {
			if s.nullable {
				e.nullable = true
				break
			}
		}
	case KindNot:
		e.nullable = !subs[0].nullable
	}
	return e
}

// Kind returns the root operator of e.
func (e *Expr) Kind() Kind { return e.kind }

// Set returns the byte set of a Bytes expression, or the empty set.
func (e *Expr) Set() byteset.Set { return e.set }

// Subs returns the operands of e. The slice must not be modified.
func (e *Expr) Subs() []*Expr { return e.subs }

// Hash returns a structural hash of e. Equal expressions have equal hashes.
func (e *Expr) Hash() uint64 { return e.hash }

// Size returns the number of nodes in the tree rooted at e, counting shared
// subtrees once per occurrence.
func (e *Expr) Size() int { return e.size }

// String renders e for debugging: ∅, ε, [a-z], (ab), (x)*, (a|b), (a&b), !(x).
func (e *Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e *Expr) write(sb *strings.Builder) {
	switch e.kind {
	case KindEmpty:
		sb.WriteString("∅")
	case KindEpsilon:
		sb.WriteString("ε")
	case KindBytes:
		sb.WriteString(e.set.String())
	case KindSeq:
		sb.WriteByte('(')
		for _, s := range e.subs {
			s.write(sb)
		}
		sb.WriteByte(')')
	case KindStar:
		sb.WriteByte('(')
		e.subs[0].write(sb)
		sb.WriteString(")*")
	case KindOr, KindAnd:
		sep := byte('|')
		if e.kind == KindAnd {
			sep = '&'
		}
		sb.WriteByte('(')
		for i, s := range e.subs {
			if i > 0 {
				sb.WriteByte(sep)
			}
			s.write(sb)
		}
		sb.WriteByte(')')
	case KindNot:
		sb.WriteString("!(")
		e.subs[0].write(sb)
		sb.WriteByte(')')
	}
}
