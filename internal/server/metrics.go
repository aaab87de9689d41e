package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "derivlex",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, by route and status code",
	}, []string{"route", "code"})
	metricLexers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "derivlex",
		Subsystem: "server",
		Name:      "lexers",
		Help:      "Number of registered lexers",
	})
	metricScannedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "derivlex",
		Subsystem: "server",
		Name:      "scanned_bytes_total",
		Help:      "Total number of input bytes scanned",
	})
	metricScanErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "derivlex",
		Subsystem: "server",
		Name:      "unrecognized_input_total",
		Help:      "Total number of scans that stopped at unrecognized input",
	})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument counts requests to h under the route label.
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metricRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}
