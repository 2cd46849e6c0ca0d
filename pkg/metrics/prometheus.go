package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	compactionsTotal   *prometheus.CounterVec
	tokensReclaimed    *prometheus.CounterVec
	degradedTotal      *prometheus.CounterVec
	compactionDuration *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new Prometheus-based compaction recorder.
// Metrics register with the default registry; create at most one per process.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		compactionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "context_compactions_total",
				Help: "Total number of context compactions by agent, strategy, and trigger",
			},
			[]string{"agent_id", "strategy", "trigger"},
		),
		tokensReclaimed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "context_tokens_reclaimed_total",
				Help: "Total estimated tokens removed from conversation contexts",
			},
			[]string{"agent_id", "strategy"},
		),
		degradedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "context_compactions_degraded_total",
				Help: "Compactions that could not reach their target and accepted the protected minimum",
			},
			[]string{"agent_id", "strategy"},
		),
		compactionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "context_compaction_duration_seconds",
				Help:    "Duration of optimizer passes in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
	}
}

// ObserveCompaction records metrics for one completed optimizer pass.
func (p *PrometheusRecorder) ObserveCompaction(agentID, strategy string, beforeTokens, afterTokens int, forced, degraded bool, duration time.Duration) {
	trigger := "auto"
	if forced {
		trigger = "forced"
	}

	p.compactionsTotal.WithLabelValues(agentID, strategy, trigger).Inc()

	if reclaimed := beforeTokens - afterTokens; reclaimed > 0 {
		p.tokensReclaimed.WithLabelValues(agentID, strategy).Add(float64(reclaimed))
	}
	if degraded {
		p.degradedTotal.WithLabelValues(agentID, strategy).Inc()
	}

	p.compactionDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}
