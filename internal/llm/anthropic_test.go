package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropic(baseURL string) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:     "sk-ant-test",
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

func TestAnthropicGenerate(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"content": [{"type": "text", "text": "{\"intent\": \"escalate\", \"confidence\": 0.85}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 30, "output_tokens": 15}
		}`))
	}))
	defer srv.Close()

	p := newTestAnthropic(srv.URL)
	assert.Equal(t, "anthropic", p.Name())

	resp, err := p.Generate(context.Background(), &Request{
		Model: "claude-3-5-haiku-latest",
		Messages: []Message{
			{Role: "system", Content: "classify intents"},
			{Role: "user", Content: "get me a human"},
		},
		Temperature: 0.1,
		MaxTokens:   100,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"intent": "escalate", "confidence": 0.85}`, resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 30, resp.InputTokens)
	assert.Equal(t, 15, resp.OutputTokens)

	// System messages move to the dedicated field.
	assert.Equal(t, "classify intents", gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}

func TestAnthropicGenerateConcatenatesTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_02",
			"content": [
				{"type": "text", "text": "{\"intent\": "},
				{"type": "tool_use", "text": "ignored"},
				{"type": "text", "text": "\"none\"}"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p := newTestAnthropic(srv.URL)
	resp, err := p.Generate(context.Background(), &Request{
		Model:    "claude-3-5-haiku-latest",
		Messages: []Message{{Role: "user", Content: "hm"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"intent": "none"}`, resp.Content)
}

func TestAnthropicGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := newTestAnthropic(srv.URL)
	_, err := p.Generate(context.Background(), &Request{
		Model:    "claude-3-5-haiku-latest",
		Messages: []Message{{Role: "user", Content: "hm"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
