package lexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
	resultHit   = "hit"
	resultMiss  = "miss"
)

var (
	metricCompileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "derivlex",
		Subsystem: "lexer",
		Name:      "compile_total",
		Help:      "Total number of lexer compilations, by result",
	}, []string{"result"})
	metricCompileSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "derivlex",
		Subsystem: "lexer",
		Name:      "compile_seconds",
		Help:      "Time spent compiling a lexer",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
	metricStates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "derivlex",
		Subsystem: "lexer",
		Name:      "dfa_states",
		Help:      "Number of states in minimized lexer DFAs",
		Buckets:   prometheus.ExponentialBuckets(2, 2, 14),
	})
	metricCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "derivlex",
		Subsystem: "lexer",
		Name:      "cache_lookups_total",
		Help:      "Total number of compiled table cache lookups, by result",
	}, []string{"result"})
)
