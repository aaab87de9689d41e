package regex

import (
	"cmp"
	"encoding/binary"
)

// Compare is a total order over normalized expressions, used to sort the
// operands of Or and And. Structurally equal expressions compare as 0.
func Compare(a, b *Expr) int {
	if a == b {
		return 0
	}
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}
	switch a.kind {
	case KindEmpty, KindEpsilon:
		return 0
	case KindBytes:
		return a.set.Compare(b.set)
	}
	if a.hash != b.hash {
		return cmp.Compare(a.hash, b.hash)
	}
	if c := cmp.Compare(len(a.subs), len(b.subs)); c != 0 {
		return c
	}
	for i := range a.subs {
		if c := Compare(a.subs[i], b.subs[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports whether a and b are structurally equal. This approximates
// language equivalence: equal trees denote equal languages, but some equal
// languages have different normal forms.
func Equal(a, b *Expr) bool {
	if a == b {
		return true
	}
	if a.hash != b.hash {
		return false
	}
	return Compare(a, b) == 0
}

// Interner assigns dense ids to expressions so that structurally equal
// expressions share an id. It is not safe for concurrent use; callers keep
// one per construction run.
type Interner struct {
	byPtr map[*Expr]uint32
	byKey map[string]uint32
	buf   []byte
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{
		byPtr: make(map[*Expr]uint32),
		byKey: make(map[string]uint32),
	}
}

// ID returns the id of e, assigning a new one if no equal expression has
// been seen before.
func (in *Interner) ID(e *Expr) uint32 {
	if id, ok := in.byPtr[e]; ok {
		return id
	}
	subIDs := make([]uint32, len(e.subs))
	for i, s := range e.subs {
		subIDs[i] = in.ID(s)
	}

	in.buf = append(in.buf[:0], byte(e.kind))
	if e.kind == KindBytes {
		in.buf = e.set.AppendBinary(in.buf)
	}
	for _, id := range subIDs {
		in.buf = binary.LittleEndian.AppendUint32(in.buf, id)
	}

	id, ok := in.byKey[string(in.buf)]
	if !ok {
		id = uint32(len(in.byKey))
		in.byKey[string(in.buf)] = id
	}
	in.byPtr[e] = id
	return id
}

// Len returns the number of distinct expressions seen.
func (in *Interner) Len() int {
	return len(in.byKey)
}
