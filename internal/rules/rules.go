// Package rules decodes lexer rule documents written in YAML or JSON.
//
// A document lists rules in priority order. Each pattern is a tree of nodes
// with exactly one key:
//
//	lit: "if"              the bytes of the string
//	any: "+-*/"            one byte out of the string
//	class: "a-zA-Z_"       one byte out of the ranges, with \ escapes
//	except: "\n"           one byte not in the class
//	anybyte: true          one arbitrary byte
//	glob: "*.go"           wildcard, * for any run of bytes, ? for one byte
//	seq: [...]             concatenation
//	or: [...]              union
//	and: [...]             intersection
//	diff: [a, b]           a but not b
//	star/plus/opt: node    repetition
//	not: node              complement
//	epsilon: true          the empty string
//	empty: true            nothing
package rules

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"DerivLex/internal/automaton"
	"DerivLex/internal/byteset"
	"DerivLex/internal/lexer"
	"DerivLex/internal/regex"
)

var (
	ErrEmptyClass = errors.New("character class is empty")
	ErrBadClass   = errors.New("malformed character class")
	ErrBadNode    = errors.New("pattern node must have exactly one key")
	ErrDiffArity  = errors.New("diff takes exactly two operands")
)

// Document is a rule file.
type Document struct {
	Rules []RuleSpec `json:"rules"`
}

// RuleSpec is one rule of a Document.
type RuleSpec struct {
	Name    string `json:"name"`
	Skip    bool   `json:"skip,omitempty"`
	Pattern Node   `json:"pattern"`
}

// Node is a pattern expression. Exactly one field is set.
type Node struct {
	Lit     *string `json:"lit,omitempty"`
	Any     *string `json:"any,omitempty"`
	Class   *string `json:"class,omitempty"`
	Except  *string `json:"except,omitempty"`
	AnyByte bool    `json:"anybyte,omitempty"`
	Glob    *string `json:"glob,omitempty"`
	Seq     []Node  `json:"seq,omitempty"`
	Or      []Node  `json:"or,omitempty"`
	And     []Node  `json:"and,omitempty"`
	Diff    []Node  `json:"diff,omitempty"`
	Star    *Node   `json:"star,omitempty"`
	Plus    *Node   `json:"plus,omitempty"`
	Opt     *Node   `json:"opt,omitempty"`
	Not     *Node   `json:"not,omitempty"`
	Epsilon bool    `json:"epsilon,omitempty"`
	Empty   bool    `json:"empty,omitempty"`
}

// Parse decodes a YAML or JSON rule document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return &doc, nil
}

// Load reads and converts the rule file at path.
func Load(path string) ([]lexer.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rules, err := doc.LexerRules()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Decode parses data and converts it to lexer rules.
func Decode(data []byte) ([]lexer.Rule, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.LexerRules()
}

// LexerRules converts the document into lexer rules. Errors name the path of
// the offending node, e.g. rules[2].pattern.seq[0].
func (d *Document) LexerRules() ([]lexer.Rule, error) {
	out := make([]lexer.Rule, 0, len(d.Rules))
	for i, spec := range d.Rules {
		path := fmt.Sprintf("rules[%d].pattern", i)
		e, err := spec.Pattern.Expr(path)
		if err != nil {
			if spec.Name != "" {
				return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
			}
			return nil, err
		}
		out = append(out, lexer.Rule{Name: spec.Name, Pattern: e, Skip: spec.Skip})
	}
	return out, nil
}

// Expr converts n to an expression. path prefixes error messages.
func (n *Node) Expr(path string) (*regex.Expr, error) {
	if k := n.keys(); k != 1 {
		return nil, fmt.Errorf("%s: %w (has %d)", path, ErrBadNode, k)
	}
	switch {
	case n.Lit != nil:
		return regex.LiteralString(*n.Lit), nil
	case n.Any != nil:
		if *n.Any == "" {
			return nil, fmt.Errorf("%s.any: %w", path, ErrEmptyClass)
		}
		return regex.AnyOf(*n.Any), nil
	case n.Class != nil:
		s, err := ParseClass(*n.Class)
		if err != nil {
			return nil, fmt.Errorf("%s.class: %w", path, err)
		}
		return regex.Set(s), nil
	case n.Except != nil:
		s, err := ParseClass(*n.Except)
		if err != nil && !errors.Is(err, ErrEmptyClass) {
			return nil, fmt.Errorf("%s.except: %w", path, err)
		}
		if s.IsFull() {
			return nil, fmt.Errorf("%s.except: %w", path, ErrEmptyClass)
		}
		return regex.Set(s.Complement()), nil
	case n.AnyByte:
		return regex.Any(), nil
	case n.Glob != nil:
		e, err := automaton.WildcardPattern([]byte(*n.Glob))
		if err != nil {
			return nil, fmt.Errorf("%s.glob: %w", path, err)
		}
		return e, nil
	case n.Seq != nil:
		xs, err := exprs(path+".seq", n.Seq)
		if err != nil {
			return nil, err
		}
		return regex.Concat(xs...), nil
	case n.Or != nil:
		xs, err := exprs(path+".or", n.Or)
		if err != nil {
			return nil, err
		}
		return regex.Alt(xs...), nil
	case n.And != nil:
		xs, err := exprs(path+".and", n.And)
		if err != nil {
			return nil, err
		}
		return regex.All(xs...), nil
	case n.Diff != nil:
		if len(n.Diff) != 2 {
			return nil, fmt.Errorf("%s.diff: %w, got %d", path, ErrDiffArity, len(n.Diff))
		}
		xs, err := exprs(path+".diff", n.Diff)
		if err != nil {
			return nil, err
		}
		return regex.Diff(xs[0], xs[1]), nil
	case n.Star != nil:
		x, err := n.Star.Expr(path + ".star")
		if err != nil {
			return nil, err
		}
		return regex.Star(x), nil
	case n.Plus != nil:
		x, err := n.Plus.Expr(path + ".plus")
		if err != nil {
			return nil, err
		}
		return regex.Plus(x), nil
	case n.Opt != nil:
		x, err := n.Opt.Expr(path + ".opt")
		if err != nil {
			return nil, err
		}
		return regex.Opt(x), nil
	case n.Not != nil:
		x, err := n.Not.Expr(path + ".not")
		if err != nil {
			return nil, err
		}
		return regex.Not(x), nil
	case n.Epsilon:
		return regex.Epsilon(), nil
	default:
		return regex.Empty(), nil
	}
}

func exprs(path string, nodes []Node) ([]*regex.Expr, error) {
	out := make([]*regex.Expr, len(nodes))
	for i := range nodes {
		e, err := nodes[i].Expr(fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (n *Node) keys() int {
	k := 0
	for _, set := range []bool{
		n.Lit != nil, n.Any != nil, n.Class != nil, n.Except != nil, n.AnyByte,
		n.Glob != nil, n.Seq != nil, n.Or != nil, n.And != nil, n.Diff != nil,
		n.Star != nil, n.Plus != nil, n.Opt != nil, n.Not != nil, n.Epsilon, n.Empty,
	} {
		if set {
			k++
		}
	}
	return k
}

// ParseClass parses a class body such as `a-z0-9_` into a byte set. A '-'
// between two items forms a range; elsewhere it is literal. Escapes are \n,
// \r, \t, \\, \-, \xHH and \ followed by any other byte for that byte.
func ParseClass(s string) (byteset.Set, error) {
	var set byteset.Set
	i := 0
	next := func() (byte, error) {
		c := s[i]
		i++
		if c != '\\' {
			return c, nil
		}
		if i >= len(s) {
			return 0, fmt.Errorf("%w: trailing backslash in %q", ErrBadClass, s)
		}
		c = s[i]
		i++
		switch c {
		case 'n':
			return '\n', nil
		case 'r':
			return '\r', nil
		case 't':
			return '\t', nil
		case 'x':
			if i+2 > len(s) {
				return 0, fmt.Errorf("%w: short \\x escape in %q", ErrBadClass, s)
			}
			hi, ok1 := unhex(s[i])
			lo, ok2 := unhex(s[i+1])
			if !ok1 || !ok2 {
				return 0, fmt.Errorf("%w: bad \\x escape in %q", ErrBadClass, s)
			}
			i += 2
			return hi<<4 | lo, nil
		}
		return c, nil
	}

	for i < len(s) {
		lo, err := next()
		if err != nil {
			return set, err
		}
		if i+1 < len(s) && s[i] == '-' {
			i++
			hi, err := next()
			if err != nil {
				return set, err
			}
			if lo > hi {
				return set, fmt.Errorf("%w: range %q-%q is reversed", ErrBadClass, lo, hi)
			}
			set = set.Union(byteset.Range(lo, hi))
			continue
		}
		set = set.Union(byteset.Single(lo))
	}
	if set.IsEmpty() {
		return set, ErrEmptyClass
	}
	return set, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
