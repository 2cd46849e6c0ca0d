package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherTool() ToolDefinition {
	return ToolDefinition{
		Name:        "get_weather",
		Description: "Look up current weather for a location",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"location": {Type: "string", Description: "City name"},
				"units":    {Type: "string", Enum: []string{"celsius", "fahrenheit"}},
			},
			Required: []string{"location"},
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(weatherTool()))

	def, err := reg.Get("get_weather")
	require.NoError(t, err)
	assert.Equal(t, "get_weather", def.Name)
	assert.Equal(t, []string{"location"}, def.InputSchema.Required)

	_, err = reg.Get("missing")
	assert.Error(t, err)
}

func TestRegistryRejectsDuplicatesAndEmptyNames(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(weatherTool()))
	assert.Error(t, reg.Register(weatherTool()), "duplicate registration should fail")
	assert.Error(t, reg.Register(ToolDefinition{}), "empty name should fail")
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryImplementsProvider(t *testing.T) {
	var provider Provider = NewRegistry()
	assert.Empty(t, provider.Tools())
}

func TestStaticProviderCopies(t *testing.T) {
	provider := NewStaticProvider([]ToolDefinition{weatherTool()})

	defs := provider.Tools()
	require.Len(t, defs, 1)
	defs[0].Name = "mutated"

	assert.Equal(t, "get_weather", provider.Tools()[0].Name, "caller mutation must not leak")
}
