package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	p, err := Resolve("openai", "sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = Resolve("anthropic", "", "sk-ant-test")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}

func TestResolveMissingKey(t *testing.T) {
	_, err := Resolve("openai", "", "sk-ant-test")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = Resolve("anthropic", "sk-test", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestResolveUnknownProvider(t *testing.T) {
	_, err := Resolve("llama-local", "k", "k")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
