// Package agent ties an LLM client, a tool set, and conversation context
// management together into a single conversation participant.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"contextcore/pkg/agent/llm"
	"contextcore/pkg/config"
	"contextcore/pkg/contextmgr"
	"contextcore/pkg/logx"
	"contextcore/pkg/tools"
)

// contextMode captures the caller's context-management choice as a tri-state
// value so "unset" stays distinguishable from "explicitly disabled".
type contextMode int

const (
	contextUnset contextMode = iota
	contextEnabled
	contextDisabled
)

// Agent is one conversation participant. Its ContextManager is created
// lazily on first access, and only when context management is enabled
// explicitly or by the smart default, so agents that never need it pay
// nothing.
type Agent struct {
	id           string
	client       llm.LLMClient
	toolDefs     []tools.ToolDefinition
	toolProvider tools.Provider
	ctxMode      contextMode
	ctxCfg       config.ManagerConfig
	ctxOpts      []contextmgr.Option
	ctxMgr       *contextmgr.ContextManager
	ctxBuilt     bool
	logger       *logx.Logger
}

// AgentOption customizes an Agent at construction.
type AgentOption func(*Agent) //nolint:revive // agent.AgentOption reads fine at call sites

// WithID sets the agent identifier. Without it a random one is generated.
func WithID(id string) AgentOption {
	return func(a *Agent) {
		a.id = id
	}
}

// WithTools adds tool definitions available to the agent.
func WithTools(defs ...tools.ToolDefinition) AgentOption {
	return func(a *Agent) {
		a.toolDefs = append(a.toolDefs, defs...)
	}
}

// WithToolProvider attaches a tool provider whose collection feeds both
// completion requests and the context smart default.
func WithToolProvider(p tools.Provider) AgentOption {
	return func(a *Agent) {
		a.toolProvider = p
	}
}

// WithContext explicitly enables or disables context management, overriding
// the tool-presence heuristic in either direction.
func WithContext(enabled bool) AgentOption {
	return func(a *Agent) {
		if enabled {
			a.ctxMode = contextEnabled
		} else {
			a.ctxMode = contextDisabled
		}
	}
}

// WithContextConfig enables context management with an explicit config.
func WithContextConfig(cfg config.ManagerConfig) AgentOption {
	return func(a *Agent) {
		a.ctxMode = contextEnabled
		a.ctxCfg = cfg
	}
}

// WithContextOptions forwards options to the lazily built ContextManager.
func WithContextOptions(opts ...contextmgr.Option) AgentOption {
	return func(a *Agent) {
		a.ctxOpts = append(a.ctxOpts, opts...)
	}
}

// NewAgent creates an agent backed by the given LLM client. An explicitly
// provided context configuration is validated here so bad config fails at
// construction, not mid-conversation.
func NewAgent(client llm.LLMClient, opts ...AgentOption) (*Agent, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}

	a := &Agent{
		client: client,
		ctxCfg: config.DefaultManagerConfig(),
		logger: logx.NewLogger("agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.id == "" {
		a.id = "agent-" + uuid.NewString()[:8]
	}

	if a.ctxMode == contextEnabled {
		if err := a.ctxCfg.Validate(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// ID returns the agent identifier.
func (a *Agent) ID() string {
	return a.id
}

// Tools returns the full tool set: explicit definitions plus the provider's
// collection.
func (a *Agent) Tools() []tools.ToolDefinition {
	defs := make([]tools.ToolDefinition, len(a.toolDefs))
	copy(defs, a.toolDefs)
	if a.toolProvider != nil {
		defs = append(defs, a.toolProvider.Tools()...)
	}
	return defs
}

// hasTools reports whether the agent has at least one tool available.
func (a *Agent) hasTools() bool {
	if len(a.toolDefs) > 0 {
		return true
	}
	return a.toolProvider != nil && len(a.toolProvider.Tools()) > 0
}

// contextWanted resolves the tri-state setting: an explicit choice wins, and
// an unset one falls back to tool presence. Tool-using conversations grow
// fast enough that they get compaction by default.
func (a *Agent) contextWanted() bool {
	switch a.ctxMode {
	case contextEnabled:
		return true
	case contextDisabled:
		return false
	default:
		return a.hasTools()
	}
}

// Context returns the agent's ContextManager, building it on first access.
// It returns nil when context management is disabled or the smart default
// found no tools.
func (a *Agent) Context() *contextmgr.ContextManager {
	if a.ctxBuilt {
		return a.ctxMgr
	}
	a.ctxBuilt = true

	if !a.contextWanted() {
		return nil
	}

	limit := a.client.ModelLimits().MaxContextTokens
	cm, err := contextmgr.NewContextManager(a.id, a.ctxCfg, limit, a.ctxOpts...)
	if err != nil {
		// Config is validated at construction, so this cannot fire for
		// explicit settings. Degrade to no management rather than raise.
		a.logger.Error("context manager construction failed: %v", err)
		return nil
	}
	a.ctxMgr = cm
	return cm
}

// Chat appends the user input to the conversation, compacts if the budget
// requires it, and sends the conversation to the LLM. The assistant reply
// (including tool calls) is recorded back into the context.
func (a *Agent) Chat(ctx context.Context, input string) (llm.CompletionResponse, error) {
	cm := a.Context()
	if cm == nil {
		// No context management: single-turn request.
		req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage(input)})
		req.Tools = a.Tools()
		return a.client.Complete(ctx, req)
	}

	cm.AddMessage(contextmgr.RoleUser, input)
	if result, compacted := cm.CompactIfNeeded(); compacted {
		a.logger.Debug("agent %s compacted before send: %d -> %d tokens",
			a.id, result.Stats.BeforeTokens, result.Stats.AfterTokens)
	}

	req := llm.NewCompletionRequest(llm.FromContext(cm.Messages()))
	req.Tools = a.Tools()

	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("completion failed: %w", err)
	}

	if len(resp.ToolCalls) > 0 {
		cm.AddToolCall(resp.Content, llm.ToContextToolCalls(resp.ToolCalls))
	} else {
		cm.AddMessage(contextmgr.RoleAssistant, resp.Content)
	}
	return resp, nil
}

// RecordToolResult stores a tool execution result in the conversation. Tool
// execution itself happens outside this package.
func (a *Agent) RecordToolResult(toolCallID, content string) {
	if cm := a.Context(); cm != nil {
		cm.AddToolResult(toolCallID, content)
	}
}
