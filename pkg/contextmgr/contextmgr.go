package contextmgr

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"contextcore/pkg/config"
	"contextcore/pkg/logx"
	"contextcore/pkg/metrics"
)

// managerState is the two-state compaction machine. A manager is IDLE except
// for the duration of a single optimizer pass, after which it returns to IDLE
// unconditionally so one call can never trigger a compaction loop.
type managerState int

const (
	stateIdle managerState = iota
	stateCompacting
)

// previewLimit caps the unredacted content preview in monitor records.
const previewLimit = 80

// ContextManager coordinates compaction for one conversation. It owns the
// token budget and configured optimizer and decides when to compact and how
// hard. A manager is mutated only by its conversation's sequential turn loop;
// callers must serialize access per conversation.
type ContextManager struct {
	agentID     string
	cfg         config.ManagerConfig
	budget      TokenBudget
	estimator   TokenEstimator
	optimizer   Optimizer
	monitor     *Monitor
	ownsMonitor bool
	recorder    metrics.Recorder
	logger      *logx.Logger
	messages    []Message
	state       managerState
}

// Option customizes a ContextManager at construction.
type Option func(*ContextManager)

// WithEstimator replaces the default character-based token estimator.
func WithEstimator(estimator TokenEstimator) Option {
	return func(cm *ContextManager) {
		cm.estimator = estimator
	}
}

// WithRecorder attaches a metrics recorder for compaction telemetry.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(cm *ContextManager) {
		cm.recorder = recorder
	}
}

// WithMonitor attaches a shared monitor instead of one built from the config.
// The caller retains ownership and is responsible for closing it; Close on
// the manager leaves a shared monitor running.
func WithMonitor(monitor *Monitor) Option {
	return func(cm *ContextManager) {
		cm.monitor = monitor
		cm.ownsMonitor = false
	}
}

// NewContextManager creates a manager for one conversation. The model context
// limit comes from the LLM client abstraction; per-model limits are not
// hardcoded here. Configuration errors surface now, never mid-compaction.
func NewContextManager(agentID string, cfg config.ManagerConfig, modelLimit int, opts ...Option) (*ContextManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cm := &ContextManager{
		agentID:   agentID,
		cfg:       cfg,
		budget:    NewTokenBudget(modelLimit, cfg.OutputReserve),
		estimator: NewCharEstimator(),
		recorder:  metrics.NopRecorder{},
		logger:    logx.NewLogger("contextmgr"),
		messages:  make([]Message, 0),
		state:     stateIdle,
	}

	for _, opt := range opts {
		opt(cm)
	}

	optimizer, err := GetOptimizer(cfg.Strategy, cm.estimator)
	if err != nil {
		return nil, err
	}
	cm.optimizer = optimizer

	if cm.monitor == nil && cfg.MonitorEnabled {
		cm.monitor = NewMonitor(cfg.MonitorPath, cfg.MonitorFormat, cfg.RedactSensitive)
		cm.ownsMonitor = true
	}

	if cm.budget.Degraded() {
		cm.logger.Warn("agent %s: output reserve %d meets or exceeds model limit %d, budget degraded",
			agentID, cfg.OutputReserve, modelLimit)
	}

	return cm, nil
}

// AgentID returns the conversation participant this manager belongs to.
func (cm *ContextManager) AgentID() string {
	return cm.agentID
}

// Budget returns the manager's token budget.
func (cm *ContextManager) Budget() TokenBudget {
	return cm.budget
}

// AddMessage stores a plain role/content pair in the context.
func (cm *ContextManager) AddMessage(role, content string) {
	cm.AppendMessage(Message{Role: role, Content: content})
}

// AddToolCall stores an assistant message that requests tool invocations.
func (cm *ContextManager) AddToolCall(content string, calls []ToolCall) {
	cm.AppendMessage(Message{Role: RoleAssistant, Content: content, ToolCalls: calls})
}

// AddToolResult stores a tool result answering a prior tool call.
func (cm *ContextManager) AddToolResult(toolCallID, content string) {
	cm.AppendMessage(Message{Role: RoleTool, Content: content, ToolCallID: toolCallID})
}

// AppendMessage stores a fully-formed message in the context.
func (cm *ContextManager) AppendMessage(msg Message) {
	cm.messages = append(cm.messages, msg)
}

// Messages returns a copy of the conversation to prevent external
// modification.
func (cm *ContextManager) Messages() []Message {
	return cloneMessages(cm.messages)
}

// MessageCount returns the number of messages in the context.
func (cm *ContextManager) MessageCount() int {
	return len(cm.messages)
}

// CurrentTokens returns the estimated token size of the conversation.
func (cm *ContextManager) CurrentTokens() int {
	return cm.estimator.Estimate(cm.messages)
}

// UsageRatio returns estimated tokens over usable budget. A degraded budget
// reports full usage for any non-empty conversation.
func (cm *ContextManager) UsageRatio() float64 {
	usable := cm.budget.Usable()
	if usable == 0 {
		if len(cm.messages) == 0 {
			return 0
		}
		return 1
	}
	return float64(cm.CurrentTokens()) / float64(usable)
}

// ShouldCompact reports whether automatic compaction would fire now, without
// performing it.
func (cm *ContextManager) ShouldCompact() bool {
	if !cm.cfg.AutoCompact || len(cm.messages) == 0 || cm.state == stateCompacting {
		return false
	}
	return cm.UsageRatio() >= cm.cfg.CompactThreshold
}

// CompactIfNeeded runs at most one compaction pass if the usage ratio has
// reached the threshold and auto-compact is enabled. It returns the pass
// result and whether a compaction ran.
func (cm *ContextManager) CompactIfNeeded() (Result, bool) {
	if !cm.ShouldCompact() {
		return Result{}, false
	}
	return cm.compact("auto"), true
}

// Compact forces a compaction pass, bypassing the threshold check.
func (cm *ContextManager) Compact() Result {
	return cm.compact("forced")
}

// compact runs one optimizer pass against the watermark target and returns to
// idle unconditionally, even if the result is still above threshold.
func (cm *ContextManager) compact(trigger string) Result {
	cm.state = stateCompacting
	defer func() { cm.state = stateIdle }()

	// Target the watermark below the trigger threshold so the next few turns
	// fit without immediately re-triggering.
	target := int(cm.cfg.CompactWatermark * float64(cm.budget.Usable()))

	start := time.Now()
	result := cm.optimizer.Optimize(cm.messages, target)
	elapsed := time.Since(start)

	cm.messages = result.Messages

	cm.logger.Debug("agent %s: %s compaction (%s) %d->%d tokens, %d->%d messages",
		cm.agentID, trigger, result.Stats.Strategy,
		result.Stats.BeforeTokens, result.Stats.AfterTokens,
		result.Stats.BeforeCount, result.Stats.AfterCount)
	if result.Stats.Degraded {
		cm.logger.Warn("agent %s: compaction degraded, protected minimum exceeds target %d", cm.agentID, target)
	}

	cm.recorder.ObserveCompaction(cm.agentID, result.Stats.Strategy,
		result.Stats.BeforeTokens, result.Stats.AfterTokens,
		trigger == "forced", result.Stats.Degraded, elapsed)

	if cm.monitor != nil {
		cm.monitor.Record(MonitorRecord{
			Timestamp:    time.Now().UTC(),
			AgentID:      cm.agentID,
			Strategy:     result.Stats.Strategy,
			Trigger:      trigger,
			BeforeCount:  result.Stats.BeforeCount,
			AfterCount:   result.Stats.AfterCount,
			BeforeTokens: result.Stats.BeforeTokens,
			AfterTokens:  result.Stats.AfterTokens,
			Degraded:     result.Stats.Degraded,
			Actions:      result.Stats.Actions,
			Preview:      cm.preview(),
		})
	}

	return result
}

// preview returns a short tail-of-conversation excerpt for monitor records.
// The monitor drops it again when redaction is on.
func (cm *ContextManager) preview() string {
	if len(cm.messages) == 0 {
		return ""
	}
	content := cm.messages[len(cm.messages)-1].Content
	if len(content) > previewLimit {
		return content[:previewLimit] + "..."
	}
	return content
}

// Clear removes all messages from the context.
func (cm *ContextManager) Clear() {
	cm.messages = cm.messages[:0]
}

// GetContextSummary returns a brief human-readable summary of the context
// state.
func (cm *ContextManager) GetContextSummary() string {
	if len(cm.messages) == 0 {
		return "Empty context"
	}

	roleCounts := make(map[string]int)
	for i := range cm.messages {
		roleCounts[cm.messages[i].Role]++
	}

	roles := make([]string, 0, len(roleCounts))
	for role := range roleCounts {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	breakdown := make([]string, 0, len(roles))
	for _, role := range roles {
		breakdown = append(breakdown, fmt.Sprintf("%s: %d", role, roleCounts[role]))
	}

	return fmt.Sprintf("%d messages (%d tokens) - %s",
		len(cm.messages), cm.CurrentTokens(), strings.Join(breakdown, ", "))
}

// GetCompactionInfo returns the context state and compaction thresholds for
// diagnostics.
func (cm *ContextManager) GetCompactionInfo() map[string]any {
	usable := cm.budget.Usable()
	return map[string]any{
		"current_tokens":    cm.CurrentTokens(),
		"message_count":     len(cm.messages),
		"model_limit":       cm.budget.ModelLimit,
		"output_reserve":    cm.budget.OutputReserve,
		"usable_tokens":     usable,
		"usage_ratio":       cm.UsageRatio(),
		"compact_threshold": cm.cfg.CompactThreshold,
		"target_tokens":     int(cm.cfg.CompactWatermark * float64(usable)),
		"strategy":          cm.cfg.Strategy,
		"should_compact":    cm.ShouldCompact(),
		"degraded_budget":   cm.budget.Degraded(),
	}
}

// Close releases the monitor if this manager owns one. Monitors attached
// through WithMonitor stay open for their other users.
func (cm *ContextManager) Close() {
	if cm.monitor != nil && cm.ownsMonitor {
		cm.monitor.Close()
	}
	cm.monitor = nil
}
