package otel

import (
	"go.opentelemetry.io/otel/attribute"
)

// GenAI semantic convention attributes for LLM spans,
// per the OpenTelemetry GenAI SIG conventions.
const (
	GenAISystem       = attribute.Key("gen_ai.system")        // e.g. "openai", "anthropic"
	GenAIRequestModel = attribute.Key("gen_ai.request.model") // e.g. "gpt-4o-mini"

	GenAIRequestTemperature = attribute.Key("gen_ai.request.temperature")
	GenAIRequestMaxTokens   = attribute.Key("gen_ai.request.max_tokens")

	GenAIUsageInputTokens  = attribute.Key("gen_ai.usage.input_tokens")
	GenAIUsageOutputTokens = attribute.Key("gen_ai.usage.output_tokens")

	GenAIResponseFinishReason = attribute.Key("gen_ai.response.finish_reason")
	GenAIResponseID           = attribute.Key("gen_ai.response.id")
)
