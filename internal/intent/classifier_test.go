package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativo-io/parley/internal/policy"
	"github.com/dativo-io/parley/internal/testutil"
)

func TestClassifyKnownIntents(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    policy.Intent
		conf    float64
	}{
		{"case_status", testutil.IntentJSON("case_status", 0.95), policy.IntentCaseStatus, 0.95},
		{"escalate", testutil.IntentJSON("escalate", 0.88), policy.IntentEscalate, 0.88},
		{"none", testutil.IntentJSON("none", 0.40), policy.IntentNone, 0.40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &testutil.MockProvider{Content: tt.content}
			c := NewClassifier(provider, "gpt-4o-mini")

			got := c.Classify(context.Background(), "what's the status of my case?")
			assert.Equal(t, tt.want, got.Intent)
			assert.InDelta(t, tt.conf, got.Confidence, 0.001)
		})
	}
}

func TestClassifyStripsMarkdownFences(t *testing.T) {
	provider := &testutil.MockProvider{
		Content: "```json\n{\"intent\": \"escalate\", \"confidence\": 0.9}\n```",
	}
	c := NewClassifier(provider, "gpt-4o-mini")

	got := c.Classify(context.Background(), "get me a human")
	assert.Equal(t, policy.IntentEscalate, got.Intent)
}

func TestClassifyFailureModesCollapseToNone(t *testing.T) {
	tests := []struct {
		name     string
		provider *testutil.MockProvider
	}{
		{"provider_error", &testutil.MockProvider{Err: errors.New("upstream 500")}},
		{"not_json", &testutil.MockProvider{Content: "I think the user wants their case status."}},
		{"label_outside_set", &testutil.MockProvider{Content: testutil.IntentJSON("delete_account", 0.99)}},
		{"empty_content", &testutil.MockProvider{Content: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.provider, "gpt-4o-mini")

			got := c.Classify(context.Background(), "do something privileged")
			assert.Equal(t, policy.IntentNone, got.Intent)
		})
	}
}

func TestClassifyEmptyUtteranceSkipsProvider(t *testing.T) {
	provider := &testutil.MockProvider{Content: testutil.IntentJSON("escalate", 0.9)}
	c := NewClassifier(provider, "gpt-4o-mini")

	got := c.Classify(context.Background(), "   ")
	assert.Equal(t, policy.IntentNone, got.Intent)
	assert.Zero(t, provider.CallCount())
}

func TestClassifySendsPromptAndUtterance(t *testing.T) {
	provider := &testutil.MockProvider{Content: testutil.IntentJSON("case_status", 0.9)}
	c := NewClassifier(provider, "claude-3-5-haiku-latest")

	c.Classify(context.Background(), "where is my case at?")

	require.Len(t, provider.Requests, 1)
	req := provider.Requests[0]
	assert.Equal(t, "claude-3-5-haiku-latest", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "where is my case at?", req.Messages[1].Content)
}
