// Package llm provides the text-completion providers used for intent
// classification. Providers generate text only; nothing in this package can
// trigger a side effect.
package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutLLMCall bounds every provider call. A voice caller is waiting on
// the other end of the poll loop, so a hung completion must not hang the call.
const TimeoutLLMCall = 30 * time.Second

var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrMissingAPIKey   = errors.New("missing api key for llm provider")
)

// Provider is the interface all completion providers implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string
	// Generate sends a completion request and returns the response.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Message represents a chat message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Response represents a completion response.
type Response struct {
	Content      string
	FinishReason string
	InputTokens  int
	OutputTokens int
	Model        string
}
