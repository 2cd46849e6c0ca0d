// Package llm provides interfaces and types for Large Language Model client implementations.
package llm

import (
	"context"

	"github.com/google/uuid"

	"contextcore/pkg/contextmgr"
	"contextcore/pkg/tools"
)

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant CompletionRole = "assistant"
	// RoleTool indicates a tool result answering an assistant tool call.
	RoleTool CompletionRole = "tool"
)

const (
	// DefaultMaxTokens is the default output allowance for a completion.
	DefaultMaxTokens = 4096

	// TemperatureDefault is the default temperature for planning and judgment tasks.
	TemperatureDefault = 0.3
)

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Content    string
	Role       CompletionRole
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall represents a tool call made by the LLM.
type ToolCall struct {
	Parameters map[string]any `json:"parameters"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Messages    []CompletionMessage
	Tools       []tools.ToolDefinition
	ToolChoice  string
	MaxTokens   int
	Temperature float32
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	ToolCalls  []ToolCall
	Content    string
	StopReason string
}

// StreamChunk represents a chunk of streamed completion response.
type StreamChunk struct {
	Error   error
	Content string
	Done    bool
}

// ModelLimits describes the token capacity of a model. The context limit
// feeds the conversation budget; this package is the single source for it.
type ModelLimits struct {
	MaxContextTokens int
	MaxOutputTokens  int
}

// LLMClient defines the interface for language model interactions.
type LLMClient interface { //nolint:revive // Established name across the codebase
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// Stream generates a completion as a stream of chunks.
	Stream(ctx context.Context, in CompletionRequest) (<-chan StreamChunk, error)

	// GetModelName returns the model name for this LLM client.
	GetModelName() string

	// ModelLimits returns the token limits of the active model.
	ModelLimits() ModelLimits
}

// NewCompletionRequest creates a new completion request with default values.
func NewCompletionRequest(messages []CompletionMessage) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: TemperatureDefault,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// NewToolCallID generates a unique tool call identifier for providers that
// do not supply one.
func NewToolCallID() string {
	return "call_" + uuid.NewString()
}

// FromContext converts managed conversation messages to completion messages.
func FromContext(messages []contextmgr.Message) []CompletionMessage {
	out := make([]CompletionMessage, len(messages))
	for i := range messages {
		msg := &messages[i]
		cm := CompletionMessage{
			Role:       CompletionRole(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		if len(msg.ToolCalls) > 0 {
			cm.ToolCalls = make([]ToolCall, len(msg.ToolCalls))
			for j := range msg.ToolCalls {
				tc := &msg.ToolCalls[j]
				cm.ToolCalls[j] = ToolCall{
					ID:         tc.ID,
					Name:       tc.Name,
					Parameters: tc.Arguments,
				}
			}
		}
		out[i] = cm
	}
	return out
}

// ToContextToolCalls converts response tool calls to the managed conversation
// representation.
func ToContextToolCalls(calls []ToolCall) []contextmgr.ToolCall {
	out := make([]contextmgr.ToolCall, len(calls))
	for i := range calls {
		out[i] = contextmgr.ToolCall{
			ID:        calls[i].ID,
			Name:      calls[i].Name,
			Arguments: calls[i].Parameters,
		}
	}
	return out
}
