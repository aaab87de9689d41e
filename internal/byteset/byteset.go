package byteset

import (
	"math/bits"
	"strings"
)

// Set is an immutable set of byte values backed by a 256-bit bitmap.
//
// The bitmap is the canonical representation: two sets with the same
// members are equal under ==, regardless of how they were built. Set is a
// value type and every operation returns a new Set.
type Set struct {
	words [4]uint64
}

// Empty returns the set {}.
func Empty() Set {
	return Set{}
}

// Full returns the set {0, ..., 255}.
func Full() Set {
	return Set{words: [4]uint64{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}}
}

// Single returns the set {b}.
func Single(b byte) Set {
	var s Set
	s.words[b>>6] = 1 << (b & 63)
	return s
}

// Of returns the set containing exactly the given bytes.
func Of(bs ...byte) Set {
	var s Set
	for _, b := range bs {
		s.words[b>>6] |= 1 << (b & 63)
	}
	return s
}

// Range returns the set {lo, ..., hi}. If lo > hi the set is empty.
func Range(lo, hi byte) Set {
	var s Set
	if lo > hi {
		return s
	}
	for w := int(lo) >> 6; w <= int(hi)>>6; w++ {
		first, last := w*64, w*64+63
		if first < int(lo) {
			first = int(lo)
		}
		if last > int(hi) {
			last = int(hi)
		}
		n := uint(last - first + 1)
		var mask uint64
		if n == 64 {
			mask = ^uint64(0)
		} else {
			mask = (uint64(1)<<n - 1) << uint(first&63)
		}
		s.words[w] = mask
	}
	return s
}

// Contains reports whether b is a member of s.
func (s Set) Contains(b byte) bool {
	return s.words[b>>6]&(1<<(b&63)) != 0
}

// Union returns s ∪ o.
func (s Set) Union(o Set) Set {
	for i := range s.words {
		s.words[i] |= o.words[i]
	}
	return s
}

// Intersect returns s ∩ o.
func (s Set) Intersect(o Set) Set {
	for i := range s.words {
		s.words[i] &= o.words[i]
	}
	return s
}

// Difference returns s \ o.
func (s Set) Difference(o Set) Set {
	for i := range s.words {
		s.words[i] &^= o.words[i]
	}
	return s
}

// Complement returns {0, ..., 255} \ s.
func (s Set) Complement() Set {
	for i := range s.words {
		s.words[i] = ^s.words[i]
	}
	return s
}

// IsEmpty reports whether s has no members.
func (s Set) IsEmpty() bool {
	return s.words == [4]uint64{}
}

// IsFull reports whether s contains every byte.
func (s Set) IsFull() bool {
	return s == Full()
}

// Len returns the number of members.
func (s Set) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Min returns the smallest member of s. ok is false if s is empty.
func (s Set) Min() (b byte, ok bool) {
	for i, w := range s.words {
		if w != 0 {
			return byte(i*64 + bits.TrailingZeros64(w)), true
		}
	}
	return 0, false
}

// Bytes returns the members of s in ascending order.
func (s Set) Bytes() []byte {
	out := make([]byte, 0, s.Len())
	for i, w := range s.words {
		for w != 0 {
			out = append(out, byte(i*64+bits.TrailingZeros64(w)))
			w &= w - 1
		}
	}
	return out
}

// Span is an inclusive run of consecutive bytes.
type Span struct {
	Lo, Hi byte
}

// Ranges returns the members of s as sorted, disjoint, non-adjacent spans.
func (s Set) Ranges() []Span {
	var out []Span
	start := -1
	for b := 0; b <= 256; b++ {
		in := b < 256 && s.Contains(byte(b))
		switch {
		case in && start < 0:
			start = b
		case !in && start >= 0:
			out = append(out, Span{Lo: byte(start), Hi: byte(b - 1)})
			start = -1
		}
	}
	return out
}

// Compare orders sets by their bitmap words. It returns -1, 0 or +1.
func (s Set) Compare(o Set) int {
	for i := range s.words {
		switch {
		case s.words[i] < o.words[i]:
			return -1
		case s.words[i] > o.words[i]:
			return 1
		}
	}
	return 0
}

// AppendBinary appends the 32-byte little-endian bitmap of s to dst.
func (s Set) AppendBinary(dst []byte) []byte {
	for _, w := range s.words {
		for i := 0; i < 8; i++ {
			dst = append(dst, byte(w>>(8*i)))
		}
	}
	return dst
}

// String renders s in character-class notation, e.g. [0-9a-f].
func (s Set) String() string {
	switch {
	case s.IsEmpty():
		return "[]"
	case s.IsFull():
		return "."
	case s.Len() == 1:
		b, _ := s.Min()
		return escape(b)
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for _, r := range s.Ranges() {
		sb.WriteString(escape(r.Lo))
		switch {
		case r.Hi == r.Lo:
		case r.Hi == r.Lo+1:
			sb.WriteString(escape(r.Hi))
		default:
			sb.WriteByte('-')
			sb.WriteString(escape(r.Hi))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

const hexDigits = "0123456789abcdef"

func escape(b byte) string {
	switch b {
	case '\\', '[', ']', '-', '^', '.':
		return `\` + string(b)
	case '\n':
		return `\n`
	case '\t':
		return `\t`
	case '\r':
		return `\r`
	}
	if b < 0x20 || b >= 0x7f {
		return `\x` + string(hexDigits[b>>4]) + string(hexDigits[b&15])
	}
	return string(b)
}
