package contextmgr

import "fmt"

// defaultKeepToolExchanges is how many of the most recent tool exchanges keep
// their full output. The count is global across tools, not per tool name.
const defaultKeepToolExchanges = 2

// PruneToolsOptimizer replaces the content of tool results older than the K
// most recent tool exchanges with a short placeholder. Message structure and
// tool pairing are preserved, making this the least destructive strategy. If
// pruning alone cannot reach the target it falls back to truncation.
type PruneToolsOptimizer struct {
	estimator     TokenEstimator
	keepExchanges int
}

// NewPruneToolsOptimizer creates a prune-tools optimizer keeping the default
// number of recent tool exchanges intact.
func NewPruneToolsOptimizer(estimator TokenEstimator) *PruneToolsOptimizer {
	return NewPruneToolsOptimizerWithKeep(estimator, defaultKeepToolExchanges)
}

// NewPruneToolsOptimizerWithKeep creates a prune-tools optimizer keeping the
// given number of recent tool exchanges intact.
func NewPruneToolsOptimizerWithKeep(estimator TokenEstimator, keepExchanges int) *PruneToolsOptimizer {
	if keepExchanges < 0 {
		keepExchanges = 0
	}
	return &PruneToolsOptimizer{
		estimator:     estimator,
		keepExchanges: keepExchanges,
	}
}

// Strategy returns the strategy name.
func (o *PruneToolsOptimizer) Strategy() string {
	return "prune_tools"
}

// Optimize prunes old tool outputs, then truncates if still over target.
func (o *PruneToolsOptimizer) Optimize(messages []Message, targetTokens int) Result {
	before := o.estimator.Estimate(messages)
	if before <= targetTokens {
		return noOpResult(messages, before, o.Strategy())
	}

	pruned, prunedCount := pruneToolOutputs(messages, o.keepExchanges)

	var actions []string
	if prunedCount > 0 {
		actions = append(actions, fmt.Sprintf("pruned %d tool outputs", prunedCount))
	}

	degraded := false
	result := pruned
	if o.estimator.Estimate(pruned) > targetTokens {
		var dropped int
		result, dropped, degraded = truncateUnits(pruned, targetTokens, o.estimator)
		if dropped > 0 {
			actions = append(actions, droppedAction(dropped))
		}
		if degraded {
			actions = append(actions, "retained protected minimum above target")
		}
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

// pruneToolOutputs replaces tool result content outside the keepExchanges most
// recent tool exchanges with a placeholder. The input is not mutated; the
// returned list shares unmodified messages with it. Returns the new list and
// the number of tool outputs replaced.
func pruneToolOutputs(messages []Message, keepExchanges int) ([]Message, int) {
	units := groupUnits(messages)

	// A tool exchange is a unit containing at least one tool result.
	exchangeUnits := make([]int, 0, len(units))
	for ui, u := range units {
		for i := u.start; i < u.end; i++ {
			if messages[i].Role == RoleTool {
				exchangeUnits = append(exchangeUnits, ui)
				break
			}
		}
	}

	if len(exchangeUnits) <= keepExchanges {
		return messages, 0
	}

	prunable := make(map[int]bool, len(exchangeUnits)-keepExchanges)
	for _, ui := range exchangeUnits[:len(exchangeUnits)-keepExchanges] {
		prunable[ui] = true
	}

	out := cloneMessages(messages)
	pruned := 0
	for ui := range units {
		if !prunable[ui] {
			continue
		}
		for i := units[ui].start; i < units[ui].end; i++ {
			if out[i].Role != RoleTool {
				continue
			}
			placeholder := fmt.Sprintf("[older tool output omitted, %d chars]", len(out[i].Content))
			// Pruning only pays off when the placeholder is shorter.
			if len(placeholder) < len(out[i].Content) {
				out[i].Content = placeholder
				pruned++
			}
		}
	}

	if pruned == 0 {
		return messages, 0
	}
	return out, pruned
}
