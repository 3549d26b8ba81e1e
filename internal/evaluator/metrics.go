package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segment_evaluation_runs_total",
		Help: "Evaluation runs by final status.",
	}, []string{"status"})

	suppliersScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segment_suppliers_scored_total",
		Help: "Suppliers scored, by business unit.",
	}, []string{"business_unit"})

	recordFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segment_record_failures_total",
		Help: "Supplier records rejected during scoring, by error kind.",
	}, []string{"kind"})

	scoreValues = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "segment_score_value",
		Help:    "Distribution of computed supplier scores.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "segment_run_duration_seconds",
		Help:    "Wall time of evaluation runs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
