package contextmgr

import "fmt"

// SmartOptimizer layers strategies from least to most destructive: prune old
// tool outputs first, then slide the window over what remains. If even the
// protected minimum exceeds the target the result is accepted and flagged in
// stats rather than failed, since a mid-conversation error has no recovery.
type SmartOptimizer struct {
	estimator     TokenEstimator
	keepExchanges int
}

// NewSmartOptimizer creates a smart optimizer using the given estimator.
func NewSmartOptimizer(estimator TokenEstimator) *SmartOptimizer {
	return &SmartOptimizer{
		estimator:     estimator,
		keepExchanges: defaultKeepToolExchanges,
	}
}

// Strategy returns the strategy name.
func (o *SmartOptimizer) Strategy() string {
	return "smart"
}

// Optimize runs the pruning phase, re-estimates, and escalates to a sliding
// window pass only if still over target. Stats aggregate all phases.
func (o *SmartOptimizer) Optimize(messages []Message, targetTokens int) Result {
	before := o.estimator.Estimate(messages)
	if before <= targetTokens {
		return noOpResult(messages, before, o.Strategy())
	}

	var actions []string

	pruned, prunedCount := pruneToolOutputs(messages, o.keepExchanges)
	if prunedCount > 0 {
		actions = append(actions, fmt.Sprintf("pruned %d tool outputs", prunedCount))
	}

	result := pruned
	degraded := false
	if o.estimator.Estimate(pruned) > targetTokens {
		window := NewSlidingWindowOptimizer(o.estimator)
		windowResult := window.Optimize(pruned, targetTokens)
		result = windowResult.Messages
		actions = append(actions, windowResult.Stats.Actions...)
		degraded = windowResult.Stats.Degraded
	}

	return Result{
		Messages: result,
		Stats: Stats{
			BeforeCount:  len(messages),
			AfterCount:   len(result),
			BeforeTokens: before,
			AfterTokens:  o.estimator.Estimate(result),
			Strategy:     o.Strategy(),
			Actions:      actions,
			Degraded:     degraded,
		},
	}
}
