// Package lexer compiles named rules into scanner tables: one DFA over the
// vector of rule patterns, minimized and flattened.
package lexer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"DerivLex/internal/automaton"
	"DerivLex/internal/regex"
	"DerivLex/internal/scan"
)

var (
	ErrNoRules       = errors.New("no rules")
	ErrEmptyRuleName = errors.New("rule name is empty")
	ErrDuplicateRule = errors.New("duplicate rule name")
	ErrNullableRule  = errors.New("rule matches the empty string")
)

// Rule is a named token pattern. Earlier rules win ties between matches of
// equal length. Tokens of Skip rules are consumed but not emitted.
type Rule struct {
	Name    string
	Pattern *regex.Expr
	Skip    bool
}

// Stats describes one compilation.
type Stats struct {
	Rules           int           `json:"rules"`
	States          int           `json:"states"`
	MinimizedStates int           `json:"minimized_states"`
	Classes         int           `json:"classes"`
	Duration        time.Duration `json:"duration_ns"`
}

type config struct {
	logger    *slog.Logger
	maxStates int
}

// Option configures Compile.
type Option func(*config)

// WithLogger sets the logger for compilation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMaxStates caps the size of the unminimized DFA.
func WithMaxStates(n int) Option {
	return func(c *config) {
		c.maxStates = n
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:    slog.Default(),
		maxStates: automaton.MaxDFAStates,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Validate checks that rules can be compiled: at least one rule, non-empty
// unique names, a pattern on each and no pattern that accepts the empty
// string.
func Validate(rules []Rule) error {
	if len(rules) == 0 {
		return ErrNoRules
	}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return fmt.Errorf("rule %d: %w", i, ErrEmptyRuleName)
		}
		if seen[r.Name] {
			return fmt.Errorf("rule %q: %w", r.Name, ErrDuplicateRule)
		}
		seen[r.Name] = true
		if r.Pattern == nil {
			return fmt.Errorf("rule %q: missing pattern", r.Name)
		}
		if r.Pattern.Nullable() {
			return fmt.Errorf("rule %q: %w", r.Name, ErrNullableRule)
		}
	}
	return nil
}

// Compile validates rules and builds their scanner table.
func Compile(rules []Rule, opts ...Option) (*scan.Table, *Stats, error) {
	cfg := newConfig(opts)
	began := time.Now()

	table, stats, err := compile(rules, cfg)
	if err != nil {
		metricCompileTotal.WithLabelValues(resultError).Inc()
		cfg.logger.Warn("lexer compilation failed", "rules", len(rules), "error", err)
		return nil, nil, err
	}
	stats.Duration = time.Since(began)

	metricCompileTotal.WithLabelValues(resultOK).Inc()
	metricCompileSeconds.Observe(stats.Duration.Seconds())
	metricStates.Observe(float64(stats.MinimizedStates))
	cfg.logger.Debug("compiled lexer",
		"rules", stats.Rules,
		"states", stats.States,
		"minimized_states", stats.MinimizedStates,
		"classes", stats.Classes,
		"duration", stats.Duration)
	return table, stats, nil
}

func compile(rules []Rule, cfg config) (*scan.Table, *Stats, error) {
	if err := Validate(rules); err != nil {
		return nil, nil, err
	}

	patterns := make([]*regex.Expr, len(rules))
	infos := make([]scan.RuleInfo, len(rules))
	for i, r := range rules {
		patterns[i] = r.Pattern
		infos[i] = scan.RuleInfo{Name: r.Name, Command: command(r.Skip)}
	}

	d, err := automaton.BuildVector(patterns,
		automaton.WithMaxStates(cfg.maxStates),
		automaton.WithLogger(cfg.logger))
	if err != nil {
		return nil, nil, err
	}
	m := d.Minimize()
	table, err := scan.NewTable(m, infos)
	if err != nil {
		return nil, nil, err
	}
	return table, &Stats{
		Rules:           len(rules),
		States:          d.NumStates(),
		MinimizedStates: m.NumStates(),
		Classes:         table.NumClasses(),
	}, nil
}

// Minimized builds the minimized DFA of rules without flattening it, for
// inspection and rendering.
func Minimized(rules []Rule, opts ...Option) (*automaton.DFA, error) {
	cfg := newConfig(opts)
	if err := Validate(rules); err != nil {
		return nil, err
	}
	patterns := make([]*regex.Expr, len(rules))
	for i, r := range rules {
		patterns[i] = r.Pattern
	}
	d, err := automaton.BuildVector(patterns,
		automaton.WithMaxStates(cfg.maxStates),
		automaton.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}
	return d.Minimize(), nil
}

// Names returns the rule names in order.
func Names(rules []Rule) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

func command(skip bool) scan.Command {
	if skip {
		return scan.Skip
	}
	return scan.Emit
}
