package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "completions_total",
			Help:      "Upstream completion calls",
		},
		[]string{"result"},
	)

	CompletionRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "completion_retries_total",
			Help:      "Completions retried with a compacted context",
		},
	)

	SnapshotFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "snapshot_fallbacks_total",
			Help:      "Requests served from the cached fleet snapshot",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(CompletionsTotal, CompletionRetries, SnapshotFallbacks)
}
