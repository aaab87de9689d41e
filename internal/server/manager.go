package server

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"DerivLex/internal/analysis"
	"DerivLex/internal/automaton"
	"DerivLex/internal/byteset"
	"DerivLex/internal/lexer"
	"DerivLex/internal/regex"
	"DerivLex/internal/rules"
	"DerivLex/internal/scan"
	"DerivLex/internal/storage"
)

var (
	ErrLexerNotFound = errors.New("lexer not found")
	ErrLexerExists   = errors.New("lexer already exists")
	ErrInvalidName   = errors.New("invalid lexer name")
	ErrPersist       = errors.New("persist lexer")
)

// AnalyzerPrefix is prepended to a lexer's name to form the name of the
// analyzer registered for it.
const AnalyzerPrefix = "lexer:"

const maxNameLen = 64

// nameDFA accepts lexer names: a letter, digit or underscore followed by
// any number of those, '.' and '-'. Names double as file names.
var nameDFA = sync.OnceValue(func() *automaton.DFA {
	word := byteset.Range('a', 'z').
		Union(byteset.Range('A', 'Z')).
		Union(byteset.Range('0', '9')).
		Union(byteset.Single('_'))
	rest := word.Union(byteset.Of('.', '-'))
	d, err := automaton.Build(regex.Then(regex.Set(word), regex.Star(regex.Set(rest))))
	if err != nil {
		panic(err)
	}
	return d.Minimize()
})

// ValidName reports whether name may be used for a lexer.
func ValidName(name string) bool {
	return len(name) <= maxNameLen && automaton.Run(nameDFA(), []byte(name))
}

// Lexer is a registered, compiled lexer.
type Lexer struct {
	Name  string
	Table *scan.Table

	// Stats is nil for lexers loaded from disk.
	Stats *lexer.Stats

	Analyzer *analysis.LexerAnalyzer
}

// RuleInfo describes one rule of a lexer.
type RuleInfo struct {
	Name string `json:"name"`
	Skip bool   `json:"skip,omitempty"`
}

// LexerInfo is the JSON description of a lexer.
type LexerInfo struct {
	Name     string       `json:"name"`
	Analyzer string       `json:"analyzer"`
	Rules    []RuleInfo   `json:"rules"`
	States   int          `json:"states"`
	Classes  int          `json:"classes"`
	Compile  *lexer.Stats `json:"compile,omitempty"`
}

// Info returns the JSON description of l.
func (l *Lexer) Info() LexerInfo {
	info := LexerInfo{
		Name:     l.Name,
		Analyzer: AnalyzerPrefix + l.Name,
		Rules:    make([]RuleInfo, 0, l.Table.NumRules()),
		States:   l.Table.NumStates(),
		Classes:  l.Table.NumClasses(),
		Compile:  l.Stats,
	}
	for _, r := range l.Table.Rules() {
		info.Rules = append(info.Rules, RuleInfo{Name: r.Name, Skip: r.Command == scan.Skip})
	}
	return info
}

// Manager owns the registered lexers, persisting their tables to a data
// directory and exposing each one as an analyzer.
//
// Lookups go straight to the lexer map. Create and Delete hold mu so that
// a lexer, its table file and its analyzer appear and disappear together.
type Manager struct {
	mu sync.Mutex

	dataDir   string
	maxStates int
	cache     *lexer.Cache
	lexers    *xsync.MapOf[string, *Lexer]
	analyzers *analysis.Registry
	logger    *slog.Logger
}

// NewManager creates a Manager and loads the table files found in
// cfg.DataDir. Files that fail to load are logged and skipped.
func NewManager(cfg Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		dataDir:   cfg.DataDir,
		maxStates: cfg.MaxStates,
		cache:     lexer.NewCache(cfg.CacheSize),
		lexers:    xsync.NewMapOf[string, *Lexer](),
		analyzers: analysis.NewRegistry(),
		logger:    logger,
	}
	if m.dataDir == "" {
		return m, nil
	}
	if err := storage.EnsureDir(m.dataDir); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	if err := m.loadExisting(); err != nil {
		return nil, fmt.Errorf("load existing lexers: %w", err)
	}
	return m, nil
}

func (m *Manager) loadExisting() error {
	files, err := storage.ListFiles(m.dataDir, storage.TableFileExt)
	if err != nil {
		return err
	}
	for _, file := range files {
		name := strings.TrimSuffix(file, storage.TableFileExt)
		if !ValidName(name) {
			m.logger.Warn("skipping table file with invalid name", "file", file)
			continue
		}
		table, err := storage.ReadTableFile(filepath.Join(m.dataDir, file))
		if err != nil {
			m.logger.Error("failed to load lexer", "name", name, "error", err)
			continue
		}
		l := newLexer(name, table, nil)
		if err := m.registerAnalyzer(l); err != nil {
			return err
		}
		m.lexers.Store(name, l)
		m.logger.Info("lexer loaded", "name", name, "rules", table.NumRules(), "states", table.NumStates())
	}
	metricLexers.Set(float64(m.lexers.Size()))
	return nil
}

func newLexer(name string, table *scan.Table, stats *lexer.Stats) *Lexer {
	return &Lexer{
		Name:     name,
		Table:    table,
		Stats:    stats,
		Analyzer: analysis.NewLexerAnalyzer(table),
	}
}

func (m *Manager) registerAnalyzer(l *Lexer) error {
	// The prefix keeps lexer analyzers clear of the built-in names.
	return m.analyzers.Register(AnalyzerPrefix+l.Name, l.Analyzer)
}

// Create compiles doc and registers it under name. The returned bool
// reports whether the table came from the compile cache.
func (m *Manager) Create(name string, doc *rules.Document) (*Lexer, bool, error) {
	if !ValidName(name) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := m.lexers.Load(name); ok {
		return nil, false, fmt.Errorf("%w: %q", ErrLexerExists, name)
	}
	rs, err := doc.LexerRules()
	if err != nil {
		return nil, false, err
	}

	logger := m.logger.With("lexer", name)
	table, stats, hit, err := m.cache.Compile(rs,
		lexer.WithMaxStates(m.maxStates),
		lexer.WithLogger(logger),
	)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lexers.Load(name); ok {
		return nil, false, fmt.Errorf("%w: %q", ErrLexerExists, name)
	}

	l := newLexer(name, table, stats)
	if m.dataDir != "" {
		path := m.tablePath(name)
		if storage.FileExists(path) {
			logger.Warn("overwriting stale table file", "file", path)
		}
		if err := storage.WriteTableFile(path, table); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}
	if err := m.registerAnalyzer(l); err != nil {
		m.removeTableFile(name)
		return nil, false, err
	}
	// Publish last: a lexer visible to Get is fully set up.
	m.lexers.Store(name, l)
	metricLexers.Set(float64(m.lexers.Size()))
	logger.Info("lexer created", "rules", len(rs), "states", table.NumStates(), "cached", hit)
	return l, hit, nil
}

// Get returns the lexer registered under name.
func (m *Manager) Get(name string) (*Lexer, error) {
	l, ok := m.lexers.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLexerNotFound, name)
	}
	return l, nil
}

// Delete unregisters the lexer and removes its table file.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lexers.LoadAndDelete(name); !ok {
		return fmt.Errorf("%w: %q", ErrLexerNotFound, name)
	}
	m.analyzers.Unregister(AnalyzerPrefix + name)
	metricLexers.Set(float64(m.lexers.Size()))
	if m.dataDir != "" {
		if err := storage.RemoveFile(m.tablePath(name)); err != nil {
			return err
		}
	}
	m.logger.Info("lexer deleted", "lexer", name)
	return nil
}

// List returns the registered lexers sorted by name. A non-empty prefix keeps
// names starting with it; a non-empty match keeps names matching the
// wildcard pattern, in which * matches any run of bytes and ? one byte.
func (m *Manager) List(prefix, match string) ([]*Lexer, error) {
	var filters []automaton.Automaton
	if prefix != "" {
		filters = append(filters, automaton.NewPrefixAutomaton([]byte(prefix)))
	}
	if match != "" {
		d, err := automaton.NewWildcardAutomaton([]byte(match))
		if err != nil {
			return nil, err
		}
		filters = append(filters, d)
	}

	var out []*Lexer
	m.lexers.Range(func(name string, l *Lexer) bool {
		for _, f := range filters {
			if !automaton.Run(f, []byte(name)) {
				return true
			}
		}
		out = append(out, l)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Analyzers returns the registry holding the built-in analyzers and one
// analyzer per lexer.
func (m *Manager) Analyzers() *analysis.Registry {
	return m.analyzers
}

func (m *Manager) tablePath(name string) string {
	return filepath.Join(m.dataDir, name+storage.TableFileExt)
}

func (m *Manager) removeTableFile(name string) {
	if m.dataDir == "" {
		return
	}
	if err := storage.RemoveFile(m.tablePath(name)); err != nil {
		m.logger.Error("failed to remove table file", "lexer", name, "error", err)
	}
}
