package regex

// Nullable reports whether the empty string is in the language of e.
// The value is computed once, when e is constructed.
func (e *Expr) Nullable() bool {
	return e.nullable
}

// Deriv returns the Brzozowski derivative of e with respect to b: the
// expression matching every s such that b·s is matched by e. The result is
// rebuilt through the smart constructors and is therefore normalized.
func (e *Expr) Deriv(b byte) *Expr {
	switch e.kind {
	case KindEmpty, KindEpsilon:
		return empty
	case KindBytes:
		if e.set.Contains(b) {
			return epsilon
		}
		return empty
	case KindSeq:
		head, tail := e.subs[0], seqOf(e.subs[1:])
		d := Then(head.Deriv(b), tail)
		if !head.nullable {
			return d
		}
		return Or(d, tail.Deriv(b))
	case KindStar:
		return Then(e.subs[0].Deriv(b), e)
	case KindOr:
		ds := make([]*Expr, len(e.subs))
		for i, s := range e.subs {
			ds[i] = s.Deriv(b)
		}
		return Alt(ds...)
	case KindAnd:
		ds := make([]*Expr, len(e.subs))
		for i, s := range e.subs {
			d := s.Deriv(b)
			if d.kind == KindEmpty {
				return empty
			}
			ds[i] = d
		}
		return All(ds...)
	case KindNot:
		return Not(e.subs[0].Deriv(b))
	}
	panic("regex: unknown kind " + e.kind.String())
}

// Matches reports whether the whole of input is in the language of e.
func (e *Expr) Matches(input []byte) bool {
	for _, b := range input {
		if e.kind == KindEmpty {
			return false
		}
		e = e.Deriv(b)
	}
	return e.nullable
}
