package caseid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWrittenFormats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"hyphenated", "ABC-123 please", "ABC-123"},
		{"no_hyphen", "my case is VIP001", "VIP-001"},
		{"lowercase_input", "it's abc-123", "ABC-123"},
		{"embedded_in_sentence", "I opened case XYZ-9876 last week", "XYZ-9876"},
		{"vip_written", "check VIP-001 for me", "VIP-001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractNumericWithContext(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"case_number_is", "my case number is 12345", "12345"},
		{"bare_case", "what's the status of case 12345", "12345"},
		{"its", "it's 987654", "987654"},
		{"number_is", "the number is 44556", "44556"},
		{"ten_digits", "case number is 1234567890", "1234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractSpokenDigits(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"spoken_with_context", "my case number is one two three four", "1234"},
		{"spoken_with_oh", "case number is one oh two four five", "10245"},
		{"spoken_five_digits", "the number is one two three four five", "12345"},
		{"spoken_prefix_word", "vip zero zero one", "VIP-001"},
		{"spoken_prefix_spelled", "v i p zero zero one", "VIP-001"},
		{"spoken_prefix_with_context", "my case number is vip zero zero one", "VIP-001"},
		{"priority_prefix", "priority one two three four", "PRIORITY-1234"},
		{"filler_words_skipped", "case number is uh one two um three four", "1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractRejections(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace_only", "   "},
		{"no_identifier", "I'd like to check on something"},
		{"bare_year", "I was born in 1990"},
		{"bare_digits_no_context", "1234"},
		{"too_short_with_context", "case number is 567"},
		{"too_long_with_context", "case number is 12345678901"},
		{"spoken_too_short", "case number is one two three"},
		{"greeting", "hello, can you help me"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

// Feeding an already-extracted identifier back in yields the same identifier,
// so re-running extraction over a transcript can never mutate a stored case
// number.
func TestExtractIdempotent(t *testing.T) {
	for _, text := range []string{
		"ABC-123 please",
		"vip zero zero one",
		"my case number is one two three four five",
	} {
		first, ok := Extract(text)
		require.True(t, ok)

		second, ok := Extract(first)
		if ok {
			assert.Equal(t, first, second)
		}
	}
}

func TestExtractPriorityOrder(t *testing.T) {
	// A written identifier wins over a digit run elsewhere in the utterance.
	got, ok := Extract("case ABC-123, not case 99999")
	require.True(t, ok)
	assert.Equal(t, "ABC-123", got)
}

func TestExtractDeterministic(t *testing.T) {
	text := "my case number is vip zero zero one"
	first, ok := Extract(text)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		got, ok := Extract(text)
		require.True(t, ok)
		assert.Equal(t, first, got)
	}
}
