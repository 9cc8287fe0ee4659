package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

type metrics struct {
	runs         prometheus.Counter
	runDuration  prometheus.Histogram
	findings     *prometheus.GaugeVec
	fixes        *prometheus.CounterVec
	sceneReloads prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		runs: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sceneqa",
			Name:      "runs_total",
			Help:      "Number of completed check runs.",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sceneqa",
			Name:      "run_duration_seconds",
			Help:      "Time spent running every loaded rule.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		findings: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sceneqa",
			Name:      "rule_findings",
			Help:      "Items reported by each rule in the latest run.",
		}, []string{"rule", "urgency"}),
		fixes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sceneqa",
			Name:      "fixes_total",
			Help:      "Fix attempts by rule and outcome.",
		}, []string{"rule", "outcome"}),
		sceneReloads: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sceneqa",
			Name:      "scene_reloads_total",
			Help:      "Number of times the scene snapshot was reloaded from disk.",
		}),
	}
}

func (m *metrics) observeResults(results []*qa.Result) {
	m.findings.Reset()
	for _, r := range results {
		m.findings.WithLabelValues(r.RuleID, r.Urgency.String()).Set(float64(len(r.Items)))
	}
}

func (m *metrics) observeFix(o qa.FixOutcome) {
	outcome := "failed"
	switch {
	case o.Skipped:
		outcome = "skipped"
	case o.Success:
		outcome = "success"
	}
	m.fixes.WithLabelValues(o.RuleID, outcome).Inc()
}
