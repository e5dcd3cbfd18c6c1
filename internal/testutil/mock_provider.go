// Package testutil provides shared mocks and helpers for Parley tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dativo-io/parley/internal/llm"
)

// MockProvider implements llm.Provider for tests without live API calls.
// Generate returns Content, or the configured error when Err is set, and
// records every request for assertions.
type MockProvider struct {
	ProviderName string // provider identifier, defaults to "mock"
	Content      string // canned completion content
	Err          error  // if set, Generate returns this error

	mu       sync.Mutex
	Requests []*llm.Request
}

// Name returns the provider identifier (implements llm.Provider).
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Generate returns the canned content or the configured error.
func (m *MockProvider) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return &llm.Response{
		Content:      m.Content,
		FinishReason: "stop",
		InputTokens:  10,
		OutputTokens: 20,
		Model:        req.Model,
	}, nil
}

// CallCount returns how many Generate calls were recorded.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// IntentJSON renders the classifier response shape for canned completions.
func IntentJSON(intent string, confidence float64) string {
	return fmt.Sprintf(`{"intent": %q, "confidence": %.2f}`, intent, confidence)
}
