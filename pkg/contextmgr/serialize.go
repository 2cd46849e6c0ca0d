package contextmgr

import (
	"encoding/json"
	"fmt"
)

// SerializedMessage represents a Message in a format suitable for JSON
// serialization. All fields are explicitly typed for reliable round-trips.
type SerializedMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []SerializedCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// SerializedCall represents a ToolCall in serialized form.
type SerializedCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// SerializedContext represents the conversation state for serialization. The
// budget and configuration are not persisted; they are reconstructed from
// config when the manager is rebuilt.
type SerializedContext struct {
	AgentID  string              `json:"agent_id,omitempty"`
	Messages []SerializedMessage `json:"messages"`
}

// Serialize converts the conversation state to JSON bytes.
func (cm *ContextManager) Serialize() ([]byte, error) {
	sc := SerializedContext{
		AgentID:  cm.agentID,
		Messages: make([]SerializedMessage, len(cm.messages)),
	}
	for i := range cm.messages {
		sc.Messages[i] = messageToSerialized(&cm.messages[i])
	}

	data, err := json.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context: %w", err)
	}
	return data, nil
}

// Deserialize restores the conversation state from JSON bytes, replacing any
// existing messages. Budget, optimizer, and monitor are untouched.
func (cm *ContextManager) Deserialize(data []byte) error {
	var sc SerializedContext
	if err := json.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("failed to unmarshal context: %w", err)
	}

	if sc.AgentID != "" {
		cm.agentID = sc.AgentID
	}

	cm.messages = make([]Message, len(sc.Messages))
	for i := range sc.Messages {
		cm.messages[i] = serializedToMessage(&sc.Messages[i])
	}
	return nil
}

func messageToSerialized(msg *Message) SerializedMessage {
	sm := SerializedMessage{
		Role:       msg.Role,
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
	}
	if len(msg.ToolCalls) > 0 {
		sm.ToolCalls = make([]SerializedCall, len(msg.ToolCalls))
		for i := range msg.ToolCalls {
			tc := &msg.ToolCalls[i]
			sm.ToolCalls[i] = SerializedCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			}
		}
	}
	return sm
}

func serializedToMessage(sm *SerializedMessage) Message {
	msg := Message{
		Role:       sm.Role,
		Content:    sm.Content,
		ToolCallID: sm.ToolCallID,
	}
	if len(sm.ToolCalls) > 0 {
		msg.ToolCalls = make([]ToolCall, len(sm.ToolCalls))
		for i := range sm.ToolCalls {
			sc := &sm.ToolCalls[i]
			msg.ToolCalls[i] = ToolCall{
				ID:        sc.ID,
				Name:      sc.Name,
				Arguments: sc.Arguments,
			}
		}
	}
	return msg
}
