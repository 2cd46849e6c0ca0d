// Package contextmgr provides conversation context management for LLM agents,
// including token estimation, budget tracking, and compaction strategies.
package contextmgr

// Message roles recognized by the context manager.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall represents a tool invocation requested by an assistant message.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Message represents a single message in the conversation context.
// A tool message carries the ToolCallID of the assistant tool call it answers.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// cloneMessages returns a shallow copy of the message list. Optimizers operate
// on copies so callers keep their pre-compaction view intact.
func cloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}
