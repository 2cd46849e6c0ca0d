package contextmgr

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextcore/pkg/config"
)

func allOptimizers(t *testing.T) map[string]Optimizer {
	t.Helper()
	estimator := NewCharEstimator()
	optimizers := make(map[string]Optimizer)
	for _, strategy := range []string{
		config.StrategyTruncate,
		config.StrategySlidingWindow,
		config.StrategyPruneTools,
		config.StrategySmart,
	} {
		opt, err := GetOptimizer(strategy, estimator)
		require.NoError(t, err)
		optimizers[strategy] = opt
	}
	return optimizers
}

// weatherConversation builds the canonical tool-using conversation: a system
// prompt, a weather question answered through a tool call, then fillerPairs
// user/assistant exchanges of padded text.
func weatherConversation(fillerPairs int) []Message {
	messages := []Message{
		{Role: RoleSystem, Content: "You are a helpful assistant"},
		{Role: RoleUser, Content: "What's the weather in Paris?"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "call_1", Name: "get_weather", Arguments: map[string]any{"city": "Paris"}},
		}},
		{Role: RoleTool, ToolCallID: "call_1", Content: "15°C, partly cloudy, light wind from the west"},
		{Role: RoleAssistant, Content: "It's 15°C and partly cloudy in Paris."},
	}
	padding := strings.Repeat("lorem ipsum dolor sit amet ", 15)
	for i := 0; i < fillerPairs; i++ {
		messages = append(messages,
			Message{Role: RoleUser, Content: fmt.Sprintf("filler question %d: %s", i, padding)},
			Message{Role: RoleAssistant, Content: fmt.Sprintf("filler answer %d: %s", i, padding)},
		)
	}
	return messages
}

// toolHeavyConversation builds a conversation with the given number of tool
// exchanges, each carrying a large tool output.
func toolHeavyConversation(exchanges int) []Message {
	messages := []Message{
		{Role: RoleSystem, Content: "You are a coding assistant"},
		{Role: RoleUser, Content: "Inspect the repository"},
	}
	output := strings.Repeat("drwxr-xr-x file listing output ", 40)
	for i := 0; i < exchanges; i++ {
		id := fmt.Sprintf("call_%d", i)
		messages = append(messages,
			Message{Role: RoleAssistant, ToolCalls: []ToolCall{
				{ID: id, Name: "list_files", Arguments: map[string]any{"path": fmt.Sprintf("/src/%d", i)}},
			}},
			Message{Role: RoleTool, ToolCallID: id, Content: output},
		)
	}
	messages = append(messages, Message{Role: RoleAssistant, Content: "Done inspecting."})
	return messages
}

// assertToolPairing verifies every tool message references a tool call that
// is still present on an earlier assistant message.
func assertToolPairing(t *testing.T, messages []Message) {
	t.Helper()
	available := make(map[string]bool)
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			available[tc.ID] = true
		}
		if msg.Role == RoleTool {
			assert.True(t, available[msg.ToolCallID],
				"tool message references missing call %q", msg.ToolCallID)
		}
	}
}

func TestOptimizeIdempotence(t *testing.T) {
	estimator := NewCharEstimator()
	messages := weatherConversation(2)
	tokens := estimator.Estimate(messages)

	for strategy, opt := range allOptimizers(t) {
		result := opt.Optimize(messages, tokens+100)

		assert.Equal(t, messages, result.Messages, "%s must not change a fitting conversation", strategy)
		assert.Equal(t, result.Stats.BeforeCount, result.Stats.AfterCount, strategy)
		assert.Equal(t, result.Stats.BeforeTokens, result.Stats.AfterTokens, strategy)
		assert.Empty(t, result.Stats.Actions, strategy)
		assert.False(t, result.Stats.Degraded, strategy)
	}
}

func TestOptimizeToolPairingInvariant(t *testing.T) {
	conversations := [][]Message{
		weatherConversation(20),
		toolHeavyConversation(6),
	}
	for strategy, opt := range allOptimizers(t) {
		for _, messages := range conversations {
			for _, target := range []int{0, 50, 500, 2000} {
				result := opt.Optimize(messages, target)
				assertToolPairing(t, result.Messages)
				_ = strategy
			}
		}
	}
}

func TestOptimizeMonotonicReduction(t *testing.T) {
	estimator := NewCharEstimator()
	messages := weatherConversation(20)
	before := estimator.Estimate(messages)

	for strategy, opt := range allOptimizers(t) {
		result := opt.Optimize(messages, before/2)
		assert.LessOrEqual(t, estimator.Estimate(result.Messages), before,
			"%s must not grow the conversation", strategy)
		assert.Less(t, result.Stats.AfterTokens, result.Stats.BeforeTokens,
			"%s should reduce tokens when over target", strategy)
	}
}

func TestOptimizeNeverEmpty(t *testing.T) {
	messages := weatherConversation(5)

	for strategy, opt := range allOptimizers(t) {
		result := opt.Optimize(messages, 0)

		require.NotEmpty(t, result.Messages, strategy)
		assert.Equal(t, RoleSystem, result.Messages[0].Role,
			"%s must keep the system message", strategy)
		assert.True(t, result.Stats.Degraded,
			"%s must flag the shortfall when target 0 is unreachable", strategy)
	}
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	original := weatherConversation(10)
	snapshot := cloneMessages(original)

	for _, opt := range allOptimizers(t) {
		opt.Optimize(original, 100)
		assert.Equal(t, snapshot, original, "input conversation must stay intact")
	}
}

func TestTruncateDropsOldestFirst(t *testing.T) {
	estimator := NewCharEstimator()
	messages := weatherConversation(20)
	require.Greater(t, estimator.Estimate(messages), 2000)

	opt := NewTruncateOptimizer(estimator)
	result := opt.Optimize(messages, 2000)

	assert.Less(t, len(result.Messages), len(messages))
	assert.LessOrEqual(t, estimator.Estimate(result.Messages), 2000)

	// System prompt survives, newest exchange survives, oldest filler goes.
	assert.Equal(t, RoleSystem, result.Messages[0].Role)
	last := result.Messages[len(result.Messages)-1]
	assert.Equal(t, messages[len(messages)-1].Content, last.Content)
	for _, msg := range result.Messages {
		assert.NotContains(t, msg.Content, "filler question 0:")
	}
	assertToolPairing(t, result.Messages)
}

func TestSlidingWindowSinglePass(t *testing.T) {
	estimator := NewCharEstimator()
	messages := weatherConversation(20)
	before := estimator.Estimate(messages)

	opt := NewSlidingWindowOptimizer(estimator)
	result := opt.Optimize(messages, before/3)

	assert.LessOrEqual(t, estimator.Estimate(result.Messages), before/3)
	assert.Equal(t, RoleSystem, result.Messages[0].Role)

	// Survivors form a contiguous suffix after the system message.
	tail := result.Messages[1:]
	require.NotEmpty(t, tail)
	firstKept := tail[0]
	idx := -1
	for i, msg := range messages {
		if msg.Role == firstKept.Role && msg.Content == firstKept.Content {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 1)
	assert.Equal(t, messages[idx:], tail)
}

func TestPruneToolsReplacesOldOutputs(t *testing.T) {
	estimator := NewCharEstimator()
	messages := toolHeavyConversation(5)
	before := estimator.Estimate(messages)

	opt := NewPruneToolsOptimizer(estimator)
	// Target sits above the pruned size so pruning alone suffices.
	result := opt.Optimize(messages, before*2/3)

	assert.Equal(t, len(messages), len(result.Messages),
		"pruning preserves message structure")
	assertToolPairing(t, result.Messages)

	var toolContents []string
	for _, msg := range result.Messages {
		if msg.Role == RoleTool {
			toolContents = append(toolContents, msg.Content)
		}
	}
	require.Len(t, toolContents, 5)

	// Exchanges older than the two most recent are replaced with placeholders.
	for i, content := range toolContents[:3] {
		assert.Contains(t, content, "[older tool output omitted,", "exchange %d", i)
	}
	for i, content := range toolContents[3:] {
		assert.NotContains(t, content, "omitted", "recent exchange %d must stay intact", i)
	}
}

func TestPruneToolsFallsBackToTruncate(t *testing.T) {
	estimator := NewCharEstimator()
	messages := toolHeavyConversation(5)

	opt := NewPruneToolsOptimizer(estimator)
	result := opt.Optimize(messages, 100)

	assert.Less(t, len(result.Messages), len(messages),
		"an unreachable target forces unit removal")
	assert.NotEmpty(t, result.Messages)
	assertToolPairing(t, result.Messages)
}

func TestSmartPrunesBeforeDropping(t *testing.T) {
	estimator := NewCharEstimator()
	messages := toolHeavyConversation(4)
	before := estimator.Estimate(messages)

	opt := NewSmartOptimizer(estimator)
	result := opt.Optimize(messages, before*3/4)

	// A modest overshoot is absorbed by pruning alone.
	assert.Equal(t, len(messages), len(result.Messages))
	assert.Less(t, result.Stats.AfterTokens, result.Stats.BeforeTokens)
	assert.Contains(t, result.Stats.Actions[0], "pruned")
}

func TestSmartPreservesToolPairingUnderTightTarget(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "You are a helpful assistant"},
		{Role: RoleUser, Content: "What's the weather in Paris?"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "call_1", Name: "get_weather", Arguments: map[string]any{"city": "Paris"}},
		}},
		{Role: RoleTool, ToolCallID: "call_1", Content: strings.Repeat("15°C, partly cloudy. ", 30)},
		{Role: RoleAssistant, Content: "It's 15°C and partly cloudy in Paris."},
	}

	opt := NewSmartOptimizer(NewCharEstimator())
	result := opt.Optimize(messages, 100)

	require.NotEmpty(t, result.Messages)
	assertToolPairing(t, result.Messages)
	assert.Equal(t, RoleSystem, result.Messages[0].Role)
}

func TestGroupUnitsPairsToolResults(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "run both checks"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "a", Name: "lint"},
			{ID: "b", Name: "test"},
		}},
		{Role: RoleTool, ToolCallID: "a", Content: "lint ok"},
		{Role: RoleTool, ToolCallID: "b", Content: "tests ok"},
		{Role: RoleAssistant, Content: "all green"},
	}

	units := groupUnits(messages)
	require.Len(t, units, 3)
	assert.Equal(t, unit{start: 0, end: 1}, units[0])
	assert.Equal(t, unit{start: 1, end: 4}, units[1], "call and both results are one unit")
	assert.Equal(t, unit{start: 4, end: 5}, units[2])
}
