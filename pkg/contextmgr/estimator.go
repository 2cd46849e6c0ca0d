package contextmgr

import (
	"encoding/json"
	"fmt"

	"contextcore/pkg/utils"
)

// TokenEstimator approximates the token size of a message list. Estimates are
// deterministic and monotonic in message count and length; precision only
// needs to support threshold comparisons, not tokenizer parity.
type TokenEstimator interface {
	Estimate(messages []Message) int
}

const (
	// charsPerToken is the rough character-to-token ratio for English text.
	charsPerToken = 4
	// messageOverhead covers per-message framing tokens added by LLM APIs.
	messageOverhead = 4
	// toolCallOverhead covers the framing around a serialized tool call.
	toolCallOverhead = 8
)

// CharEstimator estimates tokens from character lengths. It is the default
// estimator: dependency-free, deterministic, and fast enough to run on every
// turn.
type CharEstimator struct{}

// NewCharEstimator creates a character-length based token estimator.
func NewCharEstimator() *CharEstimator {
	return &CharEstimator{}
}

// Estimate returns the approximate token count for the message list.
// An empty list estimates to 0.
func (e *CharEstimator) Estimate(messages []Message) int {
	total := 0
	for i := range messages {
		total += e.estimateMessage(&messages[i])
	}
	return total
}

func (e *CharEstimator) estimateMessage(msg *Message) int {
	chars := len(msg.Role) + len(msg.Content)
	tokens := chars/charsPerToken + messageOverhead

	for j := range msg.ToolCalls {
		tc := &msg.ToolCalls[j]
		argChars := 0
		for key, value := range tc.Arguments {
			argChars += len(key) + len(fmt.Sprintf("%v", value))
		}
		tokens += (len(tc.Name)+len(tc.ID)+argChars)/charsPerToken + toolCallOverhead
	}

	return tokens
}

// TiktokenEstimator estimates tokens using a real BPE tokenizer. More accurate
// than CharEstimator for threshold decisions near the budget edge, at the cost
// of tokenizer initialization and per-call encoding work.
type TiktokenEstimator struct {
	counter *utils.TokenCounter
}

// NewTiktokenEstimator creates an estimator backed by the tokenizer for the
// given model name.
func NewTiktokenEstimator(model string) (*TiktokenEstimator, error) {
	counter, err := utils.NewTokenCounter(model)
	if err != nil {
		return nil, fmt.Errorf("failed to create token counter: %w", err)
	}
	return &TiktokenEstimator{counter: counter}, nil
}

// Estimate returns the tokenizer-based token count for the message list.
func (e *TiktokenEstimator) Estimate(messages []Message) int {
	total := 0
	for i := range messages {
		msg := &messages[i]
		total += e.counter.CountTokens(msg.Content) + messageOverhead

		for j := range msg.ToolCalls {
			tc := &msg.ToolCalls[j]
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				// Unmarshalable arguments still occupy context space.
				args = []byte(fmt.Sprintf("%v", tc.Arguments))
			}
			total += e.counter.CountTokens(tc.Name) + e.counter.CountTokens(string(args)) + toolCallOverhead
		}
	}
	return total
}
