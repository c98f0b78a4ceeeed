package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RowsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "rows_fetched_total",
			Help:      "Raw rows fetched from the upstream source",
		},
		[]string{"source"},
	)

	BuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "builds_total",
			Help:      "Completed fleet derivations",
		},
	)

	BuildFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "build_failures_total",
			Help:      "Derivations aborted by an upstream fetch failure",
		},
	)

	ActiveIncidents = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "active_incidents",
			Help:      "Incidents present in the latest derived payload",
		},
		[]string{"severity"},
	)

	SnapshotCacheWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "snapshot_cache_writes_total",
			Help:      "Snapshot cache write attempts",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(RowsFetched, BuildsTotal, BuildFailures, ActiveIncidents, SnapshotCacheWrites)
}
