// Package tools provides tool definition types shared by LLM clients and the
// agent runtime. Tool execution itself lives outside this module; the runtime
// only needs the declared shape of each tool and a presence signal.
package tools

// Property describes a single field in a tool's input schema.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`      // For array types
	Properties  map[string]*Property `json:"properties,omitempty"` // For object types
}

// InputSchema describes the JSON schema of a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition declares a tool the LLM may call.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Provider exposes a collection of tool definitions. Agents accept providers
// so tool sets can be assembled lazily; a provider with a non-empty collection
// counts as tool presence for runtime heuristics.
type Provider interface {
	Tools() []ToolDefinition
}

// StaticProvider is a Provider over a fixed definition list.
type StaticProvider struct {
	definitions []ToolDefinition
}

// NewStaticProvider creates a provider over a fixed set of definitions.
func NewStaticProvider(definitions []ToolDefinition) *StaticProvider {
	return &StaticProvider{definitions: definitions}
}

// Tools returns a copy of the provider's definitions.
func (p *StaticProvider) Tools() []ToolDefinition {
	result := make([]ToolDefinition, len(p.definitions))
	copy(result, p.definitions)
	return result
}
