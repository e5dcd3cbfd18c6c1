// Package pipeline implements the decision plane for one utterance.
//
// Control flows through a fixed state machine:
//
//	extract_intent -> evaluate_policy -> {status | escalate | deny} -> done
//
// Entry is always extract_intent, exactly one branch state runs, and there
// are no cycles. The escalate action is the only code that can set
// Escalated=true, and it is reachable only via an allow_escalate decision,
// which itself requires a strong trust tier. Untrusted text can therefore
// never reach the transfer side effect without passing the authorization
// table.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dativo-io/parley/internal/cases"
	"github.com/dativo-io/parley/internal/intent"
	parleyotel "github.com/dativo-io/parley/internal/otel"
	"github.com/dativo-io/parley/internal/policy"
)

var tracer = parleyotel.Tracer("github.com/dativo-io/parley/internal/pipeline")

// Spoken responses. Every recovered failure maps to one of these; a caller
// hears a short apology, never a raw error and never silence.
const (
	respNeedCaseNumber        = "I need a case number to look up the status. Please provide your case number."
	respStatusUnavailable     = "I'm sorry, I couldn't retrieve the case status at this time. Please try again later."
	respTransferring          = "I'm transferring you to a human agent now."
	respTransferFailed        = "I'm sorry, I couldn't transfer you to an agent. Please try again later."
	respTransferError         = "I'm sorry, an error occurred while trying to escalate your call."
	respEscalationUnavailable = "I'm sorry, escalation is not available at this time."
	respCannotEscalateCall    = "I'm sorry, I cannot escalate this call at this time."
	respEscalationDenied      = "I'm sorry, I cannot escalate this case at this time. Please contact support through other channels."
	respDenied                = "I'm sorry, I cannot process that request."
	respGenericFailure        = "I'm sorry, an error occurred while processing your request."
)

// Result is the immutable output bundle of one pipeline run.
type Result struct {
	Intent       policy.Intent
	Decision     policy.Decision
	TrustTier    policy.TrustTier
	ResponseText string
	Escalated    bool
}

// Classifier extracts an intent from utterance text.
type Classifier interface {
	Classify(ctx context.Context, utterance string) intent.Classification
}

// Authorizer applies the authorization table.
type Authorizer interface {
	Authorize(ctx context.Context, in policy.Intent, tier policy.TrustTier) policy.Decision
}

// StatusLookup reads case status. Unknown identifiers return an "unknown"
// status record, not an error.
type StatusLookup interface {
	Lookup(ctx context.Context, caseNumber string) (*cases.Status, error)
}

// Transferer performs the call-transfer side effect.
type Transferer interface {
	TransferCall(ctx context.Context, callSID, destination string) (bool, error)
}

// Pipeline composes classifier, authorization, and the two action
// collaborators. It carries no per-call state: construct one per process and
// share it read-only across concurrent call monitors.
type Pipeline struct {
	classifier    Classifier
	authorizer    Authorizer
	statuses      StatusLookup
	transfer      Transferer
	supportNumber string
}

// New builds a pipeline. transfer may be nil (e.g. one-shot CLI runs), in
// which case escalation reports as unavailable rather than transferring.
func New(classifier Classifier, authorizer Authorizer, statuses StatusLookup, transfer Transferer, supportNumber string) *Pipeline {
	return &Pipeline{
		classifier:    classifier,
		authorizer:    authorizer,
		statuses:      statuses,
		transfer:      transfer,
		supportNumber: supportNumber,
	}
}

type state int

const (
	stateExtractIntent state = iota
	stateEvaluatePolicy
	stateStatusAction
	stateEscalateAction
	stateDenyAction
	stateDone
)

// run carries the mutable working set of one invocation.
type run struct {
	utterance  string
	caseNumber string
	callSID    string
	result     Result
}

// Run executes the state machine for one utterance. It never returns an
// error or panics to the caller: any unexpected failure becomes a generic
// apology with Escalated=false.
func (p *Pipeline) Run(ctx context.Context, utterance, caseNumber, callSID string) (res *Result) {
	ctx, span := tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("call.sid", callSID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("call_sid", callSID).
				Msg("pipeline_panic_recovered")
			res = &Result{
				Intent:       policy.IntentNone,
				Decision:     policy.DecisionDeny,
				TrustTier:    policy.TierFor(caseNumber),
				ResponseText: respGenericFailure,
				Escalated:    false,
			}
		}
	}()

	r := &run{utterance: utterance, caseNumber: caseNumber, callSID: callSID}
	for st := stateExtractIntent; st != stateDone; {
		switch st {
		case stateExtractIntent:
			st = p.extractIntent(ctx, r)
		case stateEvaluatePolicy:
			st = p.evaluatePolicy(ctx, r)
		case stateStatusAction:
			st = p.statusAction(ctx, r)
		case stateEscalateAction:
			st = p.escalateAction(ctx, r)
		case stateDenyAction:
			st = p.denyAction(r)
		default:
			st = stateDone
		}
	}

	span.SetAttributes(
		attribute.String("pipeline.intent", string(r.result.Intent)),
		attribute.String("pipeline.decision", string(r.result.Decision)),
		attribute.Bool("pipeline.escalated", r.result.Escalated),
	)
	return &r.result
}

func (p *Pipeline) extractIntent(ctx context.Context, r *run) state {
	cls := p.classifier.Classify(ctx, r.utterance)
	r.result.Intent = cls.Intent
	return stateEvaluatePolicy
}

// evaluatePolicy derives the trust tier from the case identifier, applies
// the authorization table, and routes deterministically. Anything but the
// two explicit allows lands in the deny action.
func (p *Pipeline) evaluatePolicy(ctx context.Context, r *run) state {
	tier := policy.TierFor(r.caseNumber)
	r.result.TrustTier = tier
	r.result.Decision = p.authorizer.Authorize(ctx, r.result.Intent, tier)

	log.Info().
		Str("intent", string(r.result.Intent)).
		Str("trust_tier", string(tier)).
		Str("decision", string(r.result.Decision)).
		Str("call_sid", r.callSID).
		Func(parleyotel.LogTraceFields(ctx)).
		Msg("policy_evaluated")

	switch r.result.Decision {
	case policy.DecisionAllowStatus:
		return stateStatusAction
	case policy.DecisionAllowEscalate:
		return stateEscalateAction
	default:
		return stateDenyAction
	}
}

// statusAction is the read-only branch. A lookup failure is contained here;
// the pipeline still completes normally.
func (p *Pipeline) statusAction(ctx context.Context, r *run) state {
	if r.caseNumber == "" {
		r.result.ResponseText = respNeedCaseNumber
		return stateDone
	}

	st, err := p.statuses.Lookup(ctx, r.caseNumber)
	if err != nil {
		log.Error().Err(err).
			Str("case_number", r.caseNumber).
			Msg("case_status_lookup_failed")
		r.result.ResponseText = respStatusUnavailable
		return stateDone
	}

	reason := st.Reason
	if reason == "" {
		reason = "No reason available."
	}
	r.result.ResponseText = fmt.Sprintf("Your case %s is currently %s. %s", r.caseNumber, st.Status, reason)
	return stateDone
}

// escalateAction is the one privileged branch. It requires both a call
// identifier and a configured destination; transfer failure of any kind
// leaves Escalated=false and is not fatal to the call.
func (p *Pipeline) escalateAction(ctx context.Context, r *run) state {
	if r.callSID == "" {
		log.Error().Msg("cannot_escalate_missing_call_sid")
		r.result.ResponseText = respCannotEscalateCall
		return stateDone
	}
	if p.supportNumber == "" || p.transfer == nil {
		log.Error().Str("call_sid", r.callSID).Msg("cannot_escalate_no_destination")
		r.result.ResponseText = respEscalationUnavailable
		return stateDone
	}

	ok, err := p.transfer.TransferCall(ctx, r.callSID, p.supportNumber)
	switch {
	case err != nil:
		log.Error().Err(err).
			Str("call_sid", r.callSID).
			Msg("escalation_transfer_error")
		r.result.ResponseText = respTransferError
	case !ok:
		log.Error().
			Str("call_sid", r.callSID).
			Msg("escalation_transfer_rejected")
		r.result.ResponseText = respTransferFailed
	default:
		log.Info().
			Str("call_sid", r.callSID).
			Msg("call_escalated")
		r.result.ResponseText = respTransferring
		r.result.Escalated = true
	}
	return stateDone
}

// denyAction renders the refusal, distinguishing a denied escalation from a
// generic refusal. It performs no side effect.
func (p *Pipeline) denyAction(r *run) state {
	if r.result.Intent == policy.IntentEscalate {
		r.result.ResponseText = respEscalationDenied
	} else {
		r.result.ResponseText = respDenied
	}
	log.Info().
		Str("intent", string(r.result.Intent)).
		Str("call_sid", r.callSID).
		Msg("request_denied")
	return stateDone
}
