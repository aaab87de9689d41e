package automaton

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"DerivLex/internal/byteset"
	"DerivLex/internal/regex"
)

// MaxDFAStates is the default limit on the number of states a single build
// may create.
const MaxDFAStates = 10000

var ErrNoPatterns = errors.New("no patterns to build")

type buildConfig struct {
	maxStates int
	logger    *slog.Logger
}

// Option configures Build and BuildVector.
type Option func(*buildConfig)

// WithMaxStates limits the number of DFA states. Exceeding it fails the build
// with ErrDFAStateLimitExceeded.
func WithMaxStates(n int) Option {
	return func(c *buildConfig) {
		c.maxStates = n
	}
}

// WithLogger sets the logger used for construction diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *buildConfig) {
		c.logger = l
	}
}

// Build constructs the DFA of a single expression. Accepting states carry
// label 0.
func Build(e *regex.Expr, opts ...Option) (*DFA, error) {
	return BuildVector([]*regex.Expr{e}, opts...)
}

// BuildVector constructs the DFA of a vector of expressions. Each DFA state
// stands for the vector of derivatives of the patterns by the bytes read so
// far; its label is the index of the first nullable entry, so earlier
// patterns win ties.
//
// State 0 is the all-Empty vector and state 1 the start vector. If every
// pattern is Empty the start state is still state 1, with all edges leading
// to 0.
func BuildVector(patterns []*regex.Expr, opts ...Option) (*DFA, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	cfg := buildConfig{maxStates: MaxDFAStates, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	began := time.Now()

	b := &builder{
		in:  regex.NewInterner(),
		ids: make(map[string]State),
	}
	dead := make([]*regex.Expr, len(patterns))
	for i := range dead {
		dead[i] = regex.Empty()
	}
	b.add(dead)
	start := slices.Clone(patterns)
	b.vecs = append(b.vecs, start)
	if k := b.key(start); k != b.key(dead) {
		b.ids[k] = StartState
	}

	d := &DFA{patterns: len(patterns)}
	for next := 0; next < len(b.vecs); next++ {
		vec := b.vecs[next]
		targets := make([]State, 0, 8)
		sets := make([]byteset.Set, 0, 8)
		for _, class := range stateClasses(vec) {
			c, _ := class.Min()
			derived := make([]*regex.Expr, len(vec))
			for i, e := range vec {
				derived[i] = e.Deriv(c)
			}
			to := b.add(derived)
			if len(b.vecs) > cfg.maxStates {
				return nil, fmt.Errorf("%w: more than %d states", ErrDFAStateLimitExceeded, cfg.maxStates)
			}
			targets = append(targets, to)
			sets = append(sets, class)
		}
		d.states = append(d.states, dfaState{
			edges: mergeEdges(sets, targets),
			label: label(vec),
		})
	}

	cfg.logger.Debug("built dfa",
		"patterns", len(patterns),
		"states", len(d.states),
		"expressions", b.in.Len(),
		"duration", time.Since(began))
	return d.finish(), nil
}

type builder struct {
	in   *regex.Interner
	ids  map[string]State
	vecs [][]*regex.Expr
	buf  []byte
}

func (b *builder) key(vec []*regex.Expr) string {
	b.buf = b.buf[:0]
	for _, e := range vec {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, b.in.ID(e))
	}
	return string(b.buf)
}

// add returns the state of vec, creating it if no equal vector was seen.
func (b *builder) add(vec []*regex.Expr) State {
	k := b.key(vec)
	if s, ok := b.ids[k]; ok {
		return s
	}
	s := State(len(b.vecs))
	b.ids[k] = s
	b.vecs = append(b.vecs, vec)
	return s
}

func label(vec []*regex.Expr) int {
	for i, e := range vec {
		if e.Nullable() {
			return i
		}
	}
	return NoMatch
}

// stateClasses partitions the byte alphabet so that bytes in the same class
// give equal derivatives of every entry of vec. The partition may be finer
// than necessary; it is never coarser.
func stateClasses(vec []*regex.Expr) []byteset.Set {
	classes := []byteset.Set{byteset.Full()}
	seen := make(map[byteset.Set]bool)
	var walk func(e *regex.Expr)
	walk = func(e *regex.Expr) {
		switch e.Kind() {
		case regex.KindBytes:
			s := e.Set()
			if seen[s] {
				return
			}
			seen[s] = true
			classes = refine(classes, s)
		case regex.KindSeq:
			for _, sub := range e.Subs() {
				walk(sub)
				if !sub.Nullable() {
					return
				}
			}
		case regex.KindStar, regex.KindNot, regex.KindOr, regex.KindAnd:
			for _, sub := range e.Subs() {
				walk(sub)
			}
		}
	}
	for _, e := range vec {
		walk(e)
	}
	return classes
}

// refine splits every class that straddles s into its parts inside and
// outside s.
func refine(classes []byteset.Set, s byteset.Set) []byteset.Set {
	out := classes[:0:0]
	for _, c := range classes {
		in, rest := c.Intersect(s), c.Difference(s)
		if !in.IsEmpty() {
			out = append(out, in)
		}
		if !rest.IsEmpty() {
			out = append(out, rest)
		}
	}
	return out
}

// mergeEdges joins classes with a common target and orders the edges by
// their smallest byte.
func mergeEdges(sets []byteset.Set, targets []State) []Edge {
	var edges []Edge
	index := make(map[State]int, len(targets))
	for i, to := range targets {
		if j, ok := index[to]; ok {
			edges[j].Set = edges[j].Set.Union(sets[i])
			continue
		}
		index[to] = len(edges)
		edges = append(edges, Edge{Set: sets[i], To: to})
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		x, _ := a.Set.Min()
		y, _ := b.Set.Min()
		return int(x) - int(y)
	})
	return edges
}
