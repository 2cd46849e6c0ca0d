// Package metrics provides Prometheus-based recording and querying of context
// compaction telemetry.
package metrics

import "time"

// Recorder receives compaction observations from context managers. Recording
// is fire-and-forget; implementations must never block the compaction path.
type Recorder interface {
	// ObserveCompaction records one completed optimizer pass.
	ObserveCompaction(agentID, strategy string, beforeTokens, afterTokens int, forced, degraded bool, duration time.Duration)
}

// NopRecorder discards all observations. Used when metrics are disabled.
type NopRecorder struct{}

// ObserveCompaction implements Recorder.
func (NopRecorder) ObserveCompaction(string, string, int, int, bool, bool, time.Duration) {}
