package contextmgr

import (
	"testing"
)

func TestContextManagerSerializeDeserialize(t *testing.T) {
	cm := newTestManager(t, 100000)

	cm.AddMessage(RoleSystem, "You are a helpful coding assistant.")
	cm.AddMessage(RoleUser, "Please create a file.")
	cm.AddToolCall("Let me create that file.", []ToolCall{
		{ID: "tc1", Name: "write_file", Arguments: map[string]any{"path": "/foo.txt"}},
	})
	cm.AddToolResult("tc1", "File created successfully.")
	cm.AddMessage(RoleAssistant, "Done.")

	data, err := cm.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	cm2 := newTestManager(t, 100000)
	if err := cm2.Deserialize(data); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if cm2.agentID != cm.agentID {
		t.Errorf("agentID mismatch: got %q, want %q", cm2.agentID, cm.agentID)
	}
	if len(cm2.messages) != len(cm.messages) {
		t.Fatalf("messages count mismatch: got %d, want %d", len(cm2.messages), len(cm.messages))
	}

	if cm2.messages[0].Role != RoleSystem {
		t.Errorf("first message role mismatch: got %q, want %q", cm2.messages[0].Role, RoleSystem)
	}
	if cm2.messages[0].Content != "You are a helpful coding assistant." {
		t.Errorf("system prompt content mismatch")
	}

	found := false
	for _, msg := range cm2.messages {
		if len(msg.ToolCalls) > 0 {
			found = true
			if msg.ToolCalls[0].Name != "write_file" {
				t.Errorf("tool call name mismatch: got %q, want %q", msg.ToolCalls[0].Name, "write_file")
			}
			if path, ok := msg.ToolCalls[0].Arguments["path"].(string); !ok || path != "/foo.txt" {
				t.Errorf("tool call arguments not preserved: %v", msg.ToolCalls[0].Arguments)
			}
		}
	}
	if !found {
		t.Error("expected to find message with tool calls")
	}

	var toolMsg *Message
	for i := range cm2.messages {
		if cm2.messages[i].Role == RoleTool {
			toolMsg = &cm2.messages[i]
		}
	}
	if toolMsg == nil {
		t.Fatal("expected a tool result message")
	}
	if toolMsg.ToolCallID != "tc1" {
		t.Errorf("tool result ID mismatch: got %q, want %q", toolMsg.ToolCallID, "tc1")
	}
}

func TestSerializeEmptyContext(t *testing.T) {
	cm := newTestManager(t, 100000)

	data, err := cm.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	cm2 := newTestManager(t, 100000)
	if err := cm2.Deserialize(data); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if len(cm2.messages) != 0 {
		t.Errorf("expected empty messages, got %d", len(cm2.messages))
	}
}

func TestSerializeRoundTripSurvivesCompaction(t *testing.T) {
	cm := newTestManager(t, 1000)

	cm.AddMessage(RoleSystem, "You are a helpful assistant")
	for i := 0; i < 50; i++ {
		cm.AddMessage(RoleUser, "a fairly long filler message to grow the conversation body")
		cm.AddMessage(RoleAssistant, "a fairly long filler answer to grow the conversation body")
	}

	data, err := cm.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	cm2 := newTestManager(t, 1000)
	if err := cm2.Deserialize(data); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if _, compacted := cm2.CompactIfNeeded(); !compacted {
		t.Fatal("expected restored conversation to trigger compaction")
	}
	if cm2.Messages()[0].Role != RoleSystem {
		t.Error("system message must survive compaction after restore")
	}
}
