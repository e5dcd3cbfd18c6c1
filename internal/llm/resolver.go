package llm

import "fmt"

// Resolve returns the provider named by providerName with its API key.
// Only providers with a configured key resolve; a missing key is an error at
// startup rather than a failed classification at call time.
func Resolve(providerName, openaiKey, anthropicKey string) (Provider, error) {
	switch providerName {
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("%w: openai", ErrMissingAPIKey)
		}
		return NewOpenAIProvider(openaiKey), nil
	case "anthropic":
		if anthropicKey == "" {
			return nil, fmt.Errorf("%w: anthropic", ErrMissingAPIKey)
		}
		return NewAnthropicProvider(anthropicKey), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
}
