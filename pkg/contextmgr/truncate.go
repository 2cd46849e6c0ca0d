package contextmgr

// TruncateOptimizer removes whole units from the oldest non-exempt end, one
// at a time, re-estimating after each removal until the conversation fits the
// target or only the protected minimum remains.
type TruncateOptimizer struct {
	estimator TokenEstimator
}

// NewTruncateOptimizer creates a truncate optimizer using the given estimator.
func NewTruncateOptimizer(estimator TokenEstimator) *TruncateOptimizer {
	return &TruncateOptimizer{estimator: estimator}
}

// Strategy returns the strategy name.
func (o *TruncateOptimizer) Strategy() string {
	return "truncate"
}

// Optimize drops the oldest removable units until the estimate fits.
func (o *TruncateOptimizer) Optimize(messages []Message, targetTokens int) Result {
	before := o.estimator.Estimate(messages)
	if before <= targetTokens {
		return noOpResult(messages, before, o.Strategy())
	}

	kept, dropped, degraded := truncateUnits(messages, targetTokens, o.estimator)

	stats := Stats{
		BeforeCount:  len(messages),
		AfterCount:   len(kept),
		BeforeTokens: before,
		AfterTokens:  o.estimator.Estimate(kept),
		Strategy:     o.Strategy(),
		Degraded:     degraded,
	}
	if dropped > 0 {
		stats.Actions = append(stats.Actions, droppedAction(dropped))
	}
	if degraded {
		stats.Actions = append(stats.Actions, "retained protected minimum above target")
	}

	return Result{Messages: kept, Stats: stats}
}

// truncateUnits implements the shared oldest-first removal loop. It returns
// the surviving messages, the number of messages dropped, and whether the
// protected minimum still exceeds the target.
func truncateUnits(messages []Message, targetTokens int, estimator TokenEstimator) ([]Message, int, bool) {
	units := groupUnits(messages)
	protected := protectedUnits(messages, units)

	kept := make([]bool, len(units))
	for i := range kept {
		kept[i] = true
	}

	current := cloneMessages(messages)
	dropped := 0
	for estimator.Estimate(current) > targetTokens {
		removed := false
		for ui := range units {
			if kept[ui] && !protected[ui] {
				kept[ui] = false
				dropped += units[ui].end - units[ui].start
				removed = true
				break
			}
		}
		if !removed {
			// Only the protected minimum is left.
			return current, dropped, true
		}
		current = assembleKept(messages, units, kept)
	}

	return current, dropped, false
}
