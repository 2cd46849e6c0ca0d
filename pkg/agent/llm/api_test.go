package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextcore/pkg/contextmgr"
)

func TestFromContextConvertsMessages(t *testing.T) {
	conversation := []contextmgr.Message{
		{Role: contextmgr.RoleSystem, Content: "You are a helpful assistant"},
		{Role: contextmgr.RoleUser, Content: "Weather in Paris?"},
		{Role: contextmgr.RoleAssistant, ToolCalls: []contextmgr.ToolCall{
			{ID: "call_1", Name: "get_weather", Arguments: map[string]any{"city": "Paris"}},
		}},
		{Role: contextmgr.RoleTool, ToolCallID: "call_1", Content: "15°C"},
	}

	messages := FromContext(conversation)
	require.Len(t, messages, 4)

	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Equal(t, RoleUser, messages[1].Role)

	require.Len(t, messages[2].ToolCalls, 1)
	assert.Equal(t, "call_1", messages[2].ToolCalls[0].ID)
	assert.Equal(t, "get_weather", messages[2].ToolCalls[0].Name)
	assert.Equal(t, "Paris", messages[2].ToolCalls[0].Parameters["city"])

	assert.Equal(t, RoleTool, messages[3].Role)
	assert.Equal(t, "call_1", messages[3].ToolCallID)
}

func TestToContextToolCalls(t *testing.T) {
	calls := []ToolCall{
		{ID: "call_1", Name: "get_weather", Parameters: map[string]any{"city": "Paris"}},
		{ID: "call_2", Name: "get_time", Parameters: nil},
	}

	converted := ToContextToolCalls(calls)
	require.Len(t, converted, 2)
	assert.Equal(t, "call_1", converted[0].ID)
	assert.Equal(t, "get_weather", converted[0].Name)
	assert.Equal(t, "Paris", converted[0].Arguments["city"])
	assert.Equal(t, "call_2", converted[1].ID)
}

func TestNewCompletionRequestDefaults(t *testing.T) {
	req := NewCompletionRequest([]CompletionMessage{NewUserMessage("hi")})
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.InDelta(t, TemperatureDefault, req.Temperature, 0.001)
}

func TestNewToolCallID(t *testing.T) {
	a := NewToolCallID()
	b := NewToolCallID()
	assert.True(t, strings.HasPrefix(a, "call_"))
	assert.NotEqual(t, a, b)
}
