// Package caseid extracts case identifiers from free-form utterance text.
//
// Callers in a voice flow see the same identifier arrive in many shapes:
// written ("ABC-123", "VIP-001"), spoken digit by digit ("one two three
// four"), or mixed ("v i p zero zero one"). Extraction is deliberately
// conservative: a bare digit run never qualifies without explicit lexical
// context, so dates and phone numbers in conversation do not become case
// numbers.
package caseid

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// wordToDigit maps spoken number words to digits.
var wordToDigit = map[string]string{
	"zero": "0", "oh": "0", "o": "0",
	"one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
}

// knownPrefixes are case-number prefixes recognized when spelled out in
// speech ("v i p zero zero one"). Written prefixes need no allowlist; any
// two-plus letter run followed by digits matches the written pattern.
var knownPrefixes = []string{"VIP", "PRIORITY"}

// contextPhrases is the alternation of lexical cues that must precede a
// digit sequence for it to qualify as a case number. Longer variants come
// first so "case number is" is not consumed as bare "case".
const contextPhrases = `(?:case\s+number\s+is|case\s+number|case\s+is|number\s+is|it\s+is|it'?s|case)`

var (
	writtenRe        = regexp.MustCompile(`\b([A-Z]{2,})-?(\d+)\b`)
	numericContextRe = regexp.MustCompile(contextPhrases + `\s+(\d{4,10})\b`)
	spokenContextRe  = regexp.MustCompile(contextPhrases + `\s+([a-z\s]+)`)
	fallbackRe       = regexp.MustCompile(contextPhrases + `\s+([a-z0-9\s-]+)`)
	tokenRe          = regexp.MustCompile(`\b(?:\d+|[a-z]+)\b`)
)

// matcher is one extraction strategy. Strategies run in strict priority
// order and the first to match wins; a later, looser strategy must never
// override an earlier match.
type matcher struct {
	name string
	fn   func(text string) (string, bool)
}

var matchers = []matcher{
	{"written_alphanumeric", matchWrittenAlphanumeric},
	{"numeric_with_context", matchNumericWithContext},
	{"spoken_with_context", matchSpokenWithContext},
	{"spoken_prefix", matchSpokenPrefix},
	{"context_fallback", matchContextFallback},
}

// Extract returns the case identifier found in text, or ("", false) when
// none qualifies. It is a pure function: the same text always yields the
// same result.
func Extract(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, m := range matchers {
		if id, ok := m.fn(text); ok {
			log.Debug().
				Str("strategy", m.name).
				Str("case_number", id).
				Msg("case_number_extracted")
			return id, true
		}
	}
	return "", false
}

// matchWrittenAlphanumeric matches written formats like "ABC-123", "VIP-001"
// or "VIP001". Output is uppercased and hyphen-normalized.
func matchWrittenAlphanumeric(text string) (string, bool) {
	m := writtenRe.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return "", false
	}
	return m[1] + "-" + m[2], true
}

// matchNumericWithContext matches a 4-10 digit run directly preceded by a
// context phrase ("case number is 12345", "status of case 12345"). The
// length bound keeps years and phone fragments out.
func matchNumericWithContext(text string) (string, bool) {
	m := numericContextRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// matchSpokenWithContext matches a context phrase followed by spoken number
// words, optionally mixed with single spelled letters ("case number is one
// two three four", "case is v i p zero one").
func matchSpokenWithContext(text string) (string, bool) {
	m := spokenContextRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	letters, digits := collectSpoken(strings.Fields(strings.TrimSpace(m[1])))
	return assemble(letters, digits)
}

// matchSpokenPrefix matches utterances that open with a known prefix spoken
// as a word or letter by letter ("vip zero zero one", "v i p one"). No
// context phrase is required; the prefix itself bounds false positives.
func matchSpokenPrefix(text string) (string, bool) {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	prefix, rest := consumePrefix(tokens)
	if prefix == "" {
		return "", false
	}
	_, digits := collectSpoken(rest)
	if digits == "" {
		return "", false
	}
	return prefix + "-" + digits, true
}

// matchContextFallback is the last resort: a context phrase followed by any
// mix of digit tokens and number words. Accepted only when the digit count
// lands in the 4-10 case-number range.
func matchContextFallback(text string) (string, bool) {
	m := fallbackRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	var digits strings.Builder
	for _, tok := range tokenRe.FindAllString(m[1], -1) {
		switch {
		case isDigits(tok):
			digits.WriteString(tok)
		case wordToDigit[tok] != "":
			digits.WriteString(wordToDigit[tok])
		}
	}
	if n := digits.Len(); n < 4 || n > 10 {
		return "", false
	}
	return digits.String(), true
}

// collectSpoken walks spoken tokens accumulating spelled letters and digits.
// Number words map through wordToDigit, digit tokens append as-is, single
// letters append uppercased. Unrecognized filler words ("uh", "please") are
// skipped, matching how speech recognition output actually arrives.
func collectSpoken(tokens []string) (letters, digits string) {
	var lb, db strings.Builder
	for _, tok := range tokens {
		switch {
		case wordToDigit[tok] != "":
			db.WriteString(wordToDigit[tok])
		case isDigits(tok):
			db.WriteString(tok)
		case len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'z':
			lb.WriteString(strings.ToUpper(tok))
		case canonicalPrefix(strings.ToUpper(tok)) != "":
			lb.WriteString(strings.ToUpper(tok))
		}
	}
	return lb.String(), db.String()
}

// assemble turns collected letters and digits into a normalized identifier.
// Qualification rule: at least 4 digits, or a mix of letters and digits.
func assemble(letters, digits string) (string, bool) {
	if letters == "" {
		if len(digits) < 4 {
			return "", false
		}
		return digits, true
	}
	if digits == "" {
		return "", false
	}
	if p := canonicalPrefix(letters); p != "" {
		return p + "-" + digits, true
	}
	return letters + "-" + digits, true
}

// consumePrefix recognizes a known prefix at the start of the token stream,
// either as one word ("vip") or spelled letter by letter ("v", "i", "p").
// It returns the canonical prefix and the remaining tokens.
func consumePrefix(tokens []string) (prefix string, rest []string) {
	if len(tokens) == 0 {
		return "", nil
	}
	if p := canonicalPrefix(strings.ToUpper(tokens[0])); p != "" {
		return p, tokens[1:]
	}
	var spelled strings.Builder
	for i, tok := range tokens {
		if len(tok) != 1 || tok[0] < 'a' || tok[0] > 'z' {
			break
		}
		spelled.WriteString(strings.ToUpper(tok))
		if p := canonicalPrefix(spelled.String()); p != "" {
			return p, tokens[i+1:]
		}
	}
	return "", nil
}

// canonicalPrefix returns the known prefix equal to s, or "".
func canonicalPrefix(s string) string {
	for _, p := range knownPrefixes {
		if s == p {
			return p
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
