package policy

import (
	"context"
	"embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	parleyotel "github.com/dativo-io/parley/internal/otel"
)

var tracer = parleyotel.Tracer("github.com/dativo-io/parley/internal/policy")

//go:embed rego/*.rego
var embeddedPolicies embed.FS

const (
	authorizationFile  = "rego/authorization.rego"
	authorizationQuery = "data.parley.authorization.decision"
)

// Engine evaluates the authorization table using embedded OPA. It holds no
// per-call state; construct once per process and share across call monitors.
type Engine struct {
	prepared rego.PreparedEvalQuery
}

// NewEngine compiles the embedded Rego policy and prepares the decision query.
func NewEngine(ctx context.Context) (*Engine, error) {
	content, err := embeddedPolicies.ReadFile(authorizationFile)
	if err != nil {
		return nil, fmt.Errorf("reading embedded policy %s: %w", authorizationFile, err)
	}

	prepared, err := rego.New(
		rego.Query(authorizationQuery),
		rego.Module(authorizationFile, string(content)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing Rego policy %s: %w", authorizationFile, err)
	}

	return &Engine{prepared: prepared}, nil
}

// Authorize evaluates the table for one (intent, tier) pair. The function is
// total: evaluation errors, missing results, and unexpected result types all
// resolve to deny. It never returns an implicit allow.
func (e *Engine) Authorize(ctx context.Context, intent Intent, tier TrustTier) Decision {
	ctx, span := tracer.Start(ctx, "policy.authorize")
	defer span.End()

	input := map[string]interface{}{
		"intent":     string(intent),
		"trust_tier": string(tier),
	}

	decision := DecisionDeny
	results, err := e.prepared.Eval(ctx, rego.EvalInput(input))
	switch {
	case err != nil:
		span.RecordError(err)
		log.Warn().Err(err).
			Str("intent", string(intent)).
			Str("trust_tier", string(tier)).
			Msg("policy_evaluation_failed_denying")
	case len(results) == 0 || len(results[0].Expressions) == 0:
		// The query has a default, so an empty result set means the policy
		// itself is broken. Deny.
		log.Warn().
			Str("intent", string(intent)).
			Str("trust_tier", string(tier)).
			Msg("policy_returned_no_result_denying")
	default:
		if s, ok := results[0].Expressions[0].Value.(string); ok {
			switch Decision(s) {
			case DecisionAllowStatus:
				decision = DecisionAllowStatus
			case DecisionAllowEscalate:
				decision = DecisionAllowEscalate
			}
		}
	}

	span.SetAttributes(
		attribute.String("policy.intent", string(intent)),
		attribute.String("policy.trust_tier", string(tier)),
		attribute.String("policy.decision", string(decision)),
	)
	return decision
}
