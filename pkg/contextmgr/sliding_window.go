package contextmgr

// SlidingWindowOptimizer keeps the newest messages that fit the target and
// discards everything older in a single backward pass, without the iterative
// re-estimation Truncate performs. The system message is always retained.
type SlidingWindowOptimizer struct {
	estimator TokenEstimator
}

// NewSlidingWindowOptimizer creates a sliding window optimizer.
func NewSlidingWindowOptimizer(estimator TokenEstimator) *SlidingWindowOptimizer {
	return &SlidingWindowOptimizer{estimator: estimator}
}

// Strategy returns the strategy name.
func (o *SlidingWindowOptimizer) Strategy() string {
	return "sliding_window"
}

// Optimize retains the largest suffix of units whose cost, plus the exempt
// system message and the protected minimum, stays within the target.
func (o *SlidingWindowOptimizer) Optimize(messages []Message, targetTokens int) Result {
	before := o.estimator.Estimate(messages)
	if before <= targetTokens {
		return noOpResult(messages, before, o.Strategy())
	}

	units := groupUnits(messages)
	protected := protectedUnits(messages, units)

	kept := make([]bool, len(units))
	budget := targetTokens

	// Protected units are kept unconditionally; charge them first.
	for ui, u := range units {
		if protected[ui] {
			kept[ui] = true
			budget -= o.estimator.Estimate(messages[u.start:u.end])
		}
	}

	// Walk backward from the newest unit, keeping units while they fit.
	for ui := len(units) - 1; ui >= 0; ui-- {
		if kept[ui] {
			continue
		}
		u := units[ui]
		cost := o.estimator.Estimate(messages[u.start:u.end])
		if cost > budget {
			break
		}
		kept[ui] = true
		budget -= cost
	}

	result := assembleKept(messages, units, kept)
	after := o.estimator.Estimate(result)

	dropped := len(messages) - len(result)
	stats := Stats{
		BeforeCount:  len(messages),
		AfterCount:   len(result),
		BeforeTokens: before,
		AfterTokens:  after,
		Strategy:     o.Strategy(),
		Degraded:     after > targetTokens,
	}
	if dropped > 0 {
		stats.Actions = append(stats.Actions, droppedAction(dropped))
	}
	if stats.Degraded {
		stats.Actions = append(stats.Actions, "retained protected minimum above target")
	}

	return Result{Messages: result, Stats: stats}
}
