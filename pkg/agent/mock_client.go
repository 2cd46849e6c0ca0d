package agent

import (
	"context"
	"fmt"

	"contextcore/pkg/agent/llm"
)

// MockLLMClient provides a controllable implementation of llm.LLMClient for
// testing.
type MockLLMClient struct {
	responses     []llm.CompletionResponse
	responseIndex int
	errors        []error
	errorIndex    int
	limits        llm.ModelLimits
	// Requests records every completion request for assertions.
	Requests []llm.CompletionRequest
}

// NewMockLLMClient creates a new mock client with predefined responses.
func NewMockLLMClient(responses []llm.CompletionResponse, errors []error) *MockLLMClient {
	return &MockLLMClient{
		responses: responses,
		errors:    errors,
		limits:    llm.ModelLimits{MaxContextTokens: 200000, MaxOutputTokens: 8192},
	}
}

// SetModelLimits overrides the limits the mock reports.
func (m *MockLLMClient) SetModelLimits(limits llm.ModelLimits) {
	m.limits = limits
}

// Complete returns the next predefined response or error.
func (m *MockLLMClient) Complete(_ context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	m.Requests = append(m.Requests, in)

	if m.errorIndex < len(m.errors) && m.errors[m.errorIndex] != nil {
		err := m.errors[m.errorIndex]
		m.errorIndex++
		return llm.CompletionResponse{}, err
	}

	if m.responseIndex >= len(m.responses) {
		return llm.CompletionResponse{}, fmt.Errorf("mock client: no more responses")
	}

	resp := m.responses[m.responseIndex]
	m.responseIndex++
	return resp, nil
}

// Stream returns a channel that will receive predefined responses.
func (m *MockLLMClient) Stream(ctx context.Context, in llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	resp, err := m.Complete(ctx, in)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		ch <- llm.StreamChunk{
			Content: resp.Content,
			Done:    true,
		}
	}()

	return ch, nil
}

// GetModelName returns a fixed mock model name.
func (m *MockLLMClient) GetModelName() string {
	return "mock-model"
}

// ModelLimits returns the configured mock limits.
func (m *MockLLMClient) ModelLimits() llm.ModelLimits {
	return m.limits
}
