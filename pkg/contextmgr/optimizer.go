package contextmgr

import "fmt"

// Stats describes what a single optimizer pass did to the conversation.
type Stats struct {
	BeforeCount  int      `json:"before_count"`
	AfterCount   int      `json:"after_count"`
	BeforeTokens int      `json:"before_tokens"`
	AfterTokens  int      `json:"after_tokens"`
	Strategy     string   `json:"strategy"`
	Actions      []string `json:"actions,omitempty"`
	// Degraded is set when the protected minimum still exceeds the target
	// and the optimizer accepted it rather than failing.
	Degraded bool `json:"degraded,omitempty"`
}

// Result carries the possibly-reduced conversation and the pass statistics.
type Result struct {
	Messages []Message
	Stats    Stats
}

// Optimizer reduces a conversation toward a token target. Implementations are
// stateless and treat the input list as immutable, returning a new list.
type Optimizer interface {
	// Strategy returns the strategy name this optimizer implements.
	Strategy() string
	// Optimize reduces the conversation to at most targetTokens where
	// possible. If the input is already within the target it is returned
	// unchanged with a zero-op stats record.
	Optimize(messages []Message, targetTokens int) Result
}

// unit is a half-open index range [start,end) into the message list that must
// be kept or removed as a whole. An assistant message carrying tool calls and
// the tool results answering it form one unit; every other message is a unit
// of its own. Splitting a unit would orphan a tool result, which downstream
// LLM APIs reject.
type unit struct {
	start int
	end   int
}

// groupUnits partitions the conversation into atomic units, preserving order.
func groupUnits(messages []Message) []unit {
	units := make([]unit, 0, len(messages))
	i := 0
	for i < len(messages) {
		start := i
		if messages[i].Role == RoleAssistant && messages[i].HasToolCalls() {
			ids := make(map[string]bool, len(messages[i].ToolCalls))
			for _, tc := range messages[i].ToolCalls {
				ids[tc.ID] = true
			}
			i++
			for i < len(messages) && messages[i].Role == RoleTool && ids[messages[i].ToolCallID] {
				i++
			}
		} else {
			i++
		}
		units = append(units, unit{start: start, end: i})
	}
	return units
}

// protectedUnits returns the set of unit indices that no strategy may remove:
// any unit containing a system message, the most recent unit, and the user
// unit that opened the most recent turn. This is the protected minimum a
// non-empty conversation always retains.
func protectedUnits(messages []Message, units []unit) map[int]bool {
	protected := make(map[int]bool)
	if len(units) == 0 {
		return protected
	}

	for ui, u := range units {
		for i := u.start; i < u.end; i++ {
			if messages[i].Role == RoleSystem {
				protected[ui] = true
				break
			}
		}
	}

	last := len(units) - 1
	protected[last] = true

	// Protect the user message that started the current turn so the model
	// always sees what it is responding to.
	if messages[units[last].start].Role != RoleUser {
		for ui := last - 1; ui >= 0; ui-- {
			if messages[units[ui].start].Role == RoleUser {
				protected[ui] = true
				break
			}
		}
	}

	return protected
}

// assembleKept builds a new message list from the units whose kept flag is
// set, preserving original order.
func assembleKept(messages []Message, units []unit, kept []bool) []Message {
	out := make([]Message, 0, len(messages))
	for ui, u := range units {
		if kept[ui] {
			out = append(out, messages[u.start:u.end]...)
		}
	}
	return out
}

// noOpResult returns the input unchanged with a zero-op stats record.
func noOpResult(messages []Message, tokens int, strategy string) Result {
	return Result{
		Messages: messages,
		Stats: Stats{
			BeforeCount:  len(messages),
			AfterCount:   len(messages),
			BeforeTokens: tokens,
			AfterTokens:  tokens,
			Strategy:     strategy,
		},
	}
}

func droppedAction(count int) string {
	return fmt.Sprintf("dropped %d oldest messages", count)
}
