// Package policy is the deterministic authorization plane for Parley.
//
// It maps (intent, trust tier) to a decision through an embedded Rego policy
// with default-deny semantics: any combination not explicitly allowed by a
// rule resolves to deny, including intents added in the future. The LLM that
// produces intents has no authority here; nothing in this package calls out.
package policy

import "strings"

// Intent is the closed-set classification of what the caller wants.
type Intent string

const (
	IntentCaseStatus Intent = "case_status"
	IntentEscalate   Intent = "escalate"
	// IntentNone covers classification failure and out-of-set labels.
	// It matches no allow rule, so it always flows to deny.
	IntentNone Intent = "none"
)

// ParseIntent maps a raw label to a known Intent. Unknown labels collapse to
// IntentNone rather than passing through, so a creative model response can
// never mint a new intent.
func ParseIntent(label string) Intent {
	switch Intent(label) {
	case IntentCaseStatus:
		return IntentCaseStatus
	case IntentEscalate:
		return IntentEscalate
	default:
		return IntentNone
	}
}

// TrustTier is the coarse authorization level derived from a case identifier.
type TrustTier string

const (
	TierWeak   TrustTier = "weak"
	TierStrong TrustTier = "strong"
	// TierAny is the wildcard used in policy rules; TierFor never returns it.
	TierAny TrustTier = "any"
)

// Decision is the outcome of authorization.
type Decision string

const (
	DecisionAllowStatus   Decision = "allow_status"
	DecisionAllowEscalate Decision = "allow_escalate"
	DecisionDeny          Decision = "deny"
)

// strongPrefixes mark case identifiers whose callers went through the
// stronger verification flow upstream. Everything else is weak.
var strongPrefixes = []string{"VIP", "PRIORITY"}

// TierFor derives the trust tier from a case identifier. An absent
// identifier is always weak. Recomputed on demand; never cached.
func TierFor(caseNumber string) TrustTier {
	if caseNumber == "" {
		return TierWeak
	}
	upper := strings.ToUpper(caseNumber)
	for _, p := range strongPrefixes {
		if strings.HasPrefix(upper, p) {
			return TierStrong
		}
	}
	return TierWeak
}
