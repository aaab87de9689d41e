package lexer

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"DerivLex/internal/regex"
	"DerivLex/internal/scan"
)

// DefaultCacheSize is the number of compiled tables kept by NewCache(0).
const DefaultCacheSize = 128

// Fingerprint identifies a rule list by its names, commands and the
// structural hashes of its patterns. Structurally equal patterns built
// separately share a fingerprint.
func Fingerprint(rules []Rule) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, r := range rules {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(r.Name)))
		d.Write(buf[:])
		d.WriteString(r.Name)
		if r.Skip {
			d.Write([]byte{1})
		} else {
			d.Write([]byte{0})
		}
		var h uint64
		if r.Pattern != nil {
			h = r.Pattern.Hash()
		}
		binary.LittleEndian.PutUint64(buf[:], h)
		d.Write(buf[:])
	}
	return d.Sum64()
}

type compiled struct {
	rules     []Rule
	maxStates int
	table     *scan.Table
	stats     *Stats
}

// matches reports whether e was compiled from rules under the given state
// limit. Fingerprints can collide, so a hit is only served after this check.
func (e compiled) matches(rules []Rule, maxStates int) bool {
	if e.maxStates != maxStates || len(e.rules) != len(rules) {
		return false
	}
	for i, r := range rules {
		cr := e.rules[i]
		if cr.Name != r.Name || cr.Skip != r.Skip {
			return false
		}
		if cr.Pattern == nil || r.Pattern == nil {
			if cr.Pattern != r.Pattern {
				return false
			}
			continue
		}
		if !regex.Equal(cr.Pattern, r.Pattern) {
			return false
		}
	}
	return true
}

// Cache memoizes Compile by rule fingerprint and state limit. It is safe for
// concurrent use.
type Cache struct {
	tables *lru.TwoQueueCache[uint64, compiled]
}

// NewCache returns a cache holding up to size tables, or DefaultCacheSize if
// size is not positive.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	tables, err := lru.New2Q[uint64, compiled](size)
	// New2Q only errors if given invalid parameters, which we don't.
	if err != nil {
		panic(err)
	}
	return &Cache{tables: tables}
}

func cacheKey(rules []Rule, maxStates int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], Fingerprint(rules))
	binary.LittleEndian.PutUint64(buf[8:], uint64(maxStates))
	return xxhash.Sum64(buf[:])
}

// Compile returns the cached table for rules, compiling and caching it on a
// miss. Failed compilations are not cached. The state limit set by opts is
// part of the key; the logger is not.
func (c *Cache) Compile(rules []Rule, opts ...Option) (*scan.Table, *Stats, bool, error) {
	maxStates := newConfig(opts).maxStates
	key := cacheKey(rules, maxStates)
	if hit, ok := c.tables.Get(key); ok && hit.matches(rules, maxStates) {
		metricCacheTotal.WithLabelValues(resultHit).Inc()
		return hit.table, hit.stats, true, nil
	}
	metricCacheTotal.WithLabelValues(resultMiss).Inc()

	table, stats, err := Compile(rules, opts...)
	if err != nil {
		return nil, nil, false, err
	}
	c.tables.Add(key, compiled{
		rules:     append([]Rule(nil), rules...),
		maxStates: maxStates,
		table:     table,
		stats:     stats,
	})
	return table, stats, false, nil
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	return c.tables.Len()
}

// Purge drops every cached table.
func (c *Cache) Purge() {
	c.tables.Purge()
}
