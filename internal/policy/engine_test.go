package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background())
	require.NoError(t, err)
	return e
}

func TestAuthorizeTable(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		intent Intent
		tier   TrustTier
		want   Decision
	}{
		{"status_weak", IntentCaseStatus, TierWeak, DecisionAllowStatus},
		{"status_strong", IntentCaseStatus, TierStrong, DecisionAllowStatus},
		{"escalate_strong", IntentEscalate, TierStrong, DecisionAllowEscalate},
		{"escalate_weak", IntentEscalate, TierWeak, DecisionDeny},
		{"none_weak", IntentNone, TierWeak, DecisionDeny},
		{"none_strong", IntentNone, TierStrong, DecisionDeny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Authorize(ctx, tt.intent, tt.tier))
		})
	}
}

// An intent outside the closed set must never match an allow rule, even if a
// future classifier version invents labels. The table is default-deny.
func TestAuthorizeUnknownIntentDenied(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for _, in := range []Intent{"delete_account", "refund", "admin", ""} {
		for _, tier := range []TrustTier{TierWeak, TierStrong} {
			assert.Equal(t, DecisionDeny, e.Authorize(ctx, in, tier),
				"intent=%q tier=%q", in, tier)
		}
	}
}

// An unknown tier string matches no escalation rule either.
func TestAuthorizeUnknownTierDenied(t *testing.T) {
	e := newTestEngine(t)

	got := e.Authorize(context.Background(), IntentEscalate, TrustTier("superuser"))
	assert.Equal(t, DecisionDeny, got)
}
