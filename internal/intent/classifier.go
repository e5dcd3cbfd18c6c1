// Package intent classifies utterances into the closed intent set using a
// text-completion provider.
//
// The classifier is a recovery boundary: malformed model output, labels
// outside the closed set, and provider failures all collapse to IntentNone,
// which the authorization table maps to deny. Nothing propagates upward.
package intent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dativo-io/parley/internal/llm"
	parleyotel "github.com/dativo-io/parley/internal/otel"
	"github.com/dativo-io/parley/internal/policy"
)

var tracer = parleyotel.Tracer("github.com/dativo-io/parley/internal/intent")

// Classification is the classifier's output for one utterance.
type Classification struct {
	Intent     policy.Intent
	Confidence float64
}

// Classifier extracts intents via an llm.Provider.
type Classifier struct {
	provider llm.Provider
	model    string
}

// NewClassifier returns a classifier backed by the given provider and model.
func NewClassifier(provider llm.Provider, model string) *Classifier {
	return &Classifier{provider: provider, model: model}
}

// classifierResponse is the JSON shape the prompt asks the model for.
type classifierResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Classify maps utterance text to an intent. It never returns an error:
// every failure mode resolves to IntentNone with zero confidence.
func (c *Classifier) Classify(ctx context.Context, utterance string) Classification {
	ctx, span := tracer.Start(ctx, "intent.classify")
	defer span.End()

	none := Classification{Intent: policy.IntentNone}
	if strings.TrimSpace(utterance) == "" {
		return none
	}

	resp, err := c.provider.Generate(ctx, &llm.Request{
		Model: c.model,
		Messages: []llm.Message{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: utterance},
		},
		Temperature: 0.1,
		MaxTokens:   100,
	})
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).
			Str("provider", c.provider.Name()).
			Msg("intent_extraction_failed")
		return none
	}

	var parsed classifierResponse
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		log.Warn().Err(err).
			Str("content", resp.Content).
			Msg("intent_response_not_json")
		return none
	}

	in := policy.ParseIntent(parsed.Intent)
	if in == policy.IntentNone && parsed.Intent != "" {
		log.Warn().
			Str("label", parsed.Intent).
			Msg("intent_label_outside_closed_set")
	}

	span.SetAttributes(
		attribute.String("intent.label", string(in)),
		attribute.Float64("intent.confidence", parsed.Confidence),
	)
	log.Info().
		Str("intent", string(in)).
		Float64("confidence", parsed.Confidence).
		Msg("intent_extracted")

	return Classification{Intent: in, Confidence: parsed.Confidence}
}

// stripFences removes markdown code fencing some models wrap around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
