// Package monitor runs the per-call control loop over the live transcript.
//
// One Monitor goroutine owns one call's ConversationState outright; no other
// goroutine reads or writes it, so the state needs no locking. The loop
// decides *when* the decision pipeline runs: it dedups against an unchanged
// transcript tail, re-triggers once after a late case-number capture, and
// fast-paths utterances carrying escalation keywords.
package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dativo-io/parley/internal/caseid"
	"github.com/dativo-io/parley/internal/pipeline"
	"github.com/dativo-io/parley/internal/policy"
)

// DefaultPollInterval is how often the monitor re-reads the transcript.
const DefaultPollInterval = 2 * time.Second

// Transcript is read access to the live conversation. The transcript is
// owned by the speech-recognition side; the monitor only ever reads the
// most recent user utterance.
type Transcript interface {
	// LatestUserUtterance returns the newest user utterance, or ok=false
	// when the caller has not said anything yet.
	LatestUserUtterance() (text string, ok bool)
}

// Speaker is the spoken-output channel. Text queued here is synthesized and
// played to the caller.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Runner invokes the decision pipeline.
type Runner interface {
	Run(ctx context.Context, utterance, caseNumber, callSID string) *pipeline.Result
}

// State is the call-scoped conversation record. Created at call start,
// mutated only by the monitor's loop, discarded at call end.
type State struct {
	CaseNumber             string
	CaseCollected          bool
	InquiryProcessed       bool
	Escalated              bool // terminal once true
	ReprocessedAfterCase   bool // the late-capture re-trigger fires at most once
	LastProcessedUtterance string
}

// DefaultEscalationKeywords is the fast-path keyword set used when the
// operator configures none.
func DefaultEscalationKeywords() []string {
	return []string{
		"escalate", "agent", "human", "representative", "speak to someone",
		"talk to a person", "transfer", "manager", "supervisor", "connect me",
	}
}

// Monitor watches one call.
type Monitor struct {
	transcript   Transcript
	speaker      Speaker
	runner       Runner
	callSID      string
	pollInterval time.Duration
	keywords     []string
	state        State
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithPollInterval overrides the transcript poll interval. Non-positive
// values keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithEscalationKeywords overrides the escalation fast-path keyword set.
func WithEscalationKeywords(keywords []string) Option {
	return func(m *Monitor) {
		m.keywords = m.keywords[:0]
		for _, kw := range keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				m.keywords = append(m.keywords, kw)
			}
		}
	}
}

// New builds a monitor for one call. The runner is shared across calls; the
// transcript, speaker, and state belong to this call alone.
func New(transcript Transcript, speaker Speaker, runner Runner, callSID string, opts ...Option) *Monitor {
	m := &Monitor{
		transcript:   transcript,
		speaker:      speaker,
		runner:       runner,
		callSID:      callSID,
		pollInterval: DefaultPollInterval,
		keywords:     DefaultEscalationKeywords(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run polls the transcript until ctx is cancelled. A failed cycle is logged
// and the loop continues; nothing short of cancellation stops it.
func (m *Monitor) Run(ctx context.Context) error {
	log.Info().Str("call_sid", m.callSID).Msg("conversation_monitor_started")
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("call_sid", m.callSID).Msg("conversation_monitor_stopped")
			return nil
		case <-ticker.C:
			m.safeCycle(ctx)
		}
	}
}

func (m *Monitor) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("call_sid", m.callSID).
				Msg("monitor_cycle_panic_recovered")
		}
	}()
	m.cycle(ctx)
}

// cycle is one pass of the control loop.
func (m *Monitor) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	// Once escalated, the loop keeps running so the call channel stays open,
	// but no further pipeline work happens for this call.
	if m.state.Escalated {
		return
	}

	utterance, ok := m.transcript.LatestUserUtterance()
	if !ok {
		return
	}
	if utterance == m.state.LastProcessedUtterance {
		return
	}
	m.state.LastProcessedUtterance = utterance

	if !m.state.CaseCollected {
		if id, found := caseid.Extract(utterance); found {
			m.state.CaseNumber = id
			m.state.CaseCollected = true
			log.Info().
				Str("case_number", id).
				Str("call_sid", m.callSID).
				Msg("case_number_collected")

			// Callers often state the case number only after their first
			// inquiry already ran without one. Re-arm the pipeline exactly
			// once so the inquiry re-runs with the identifier.
			if m.state.InquiryProcessed && !m.state.ReprocessedAfterCase {
				m.state.InquiryProcessed = false
				m.state.ReprocessedAfterCase = true
				log.Info().
					Str("case_number", id).
					Str("call_sid", m.callSID).
					Msg("reprocessing_after_late_case_capture")
			}
		}
	}

	shouldProcess := !m.state.InquiryProcessed
	if !shouldProcess && m.containsEscalationKeyword(utterance) {
		// A later-turn escalation request gets re-evaluated even though an
		// earlier unrelated inquiry already completed.
		shouldProcess = true
		log.Info().
			Str("call_sid", m.callSID).
			Msg("escalation_keyword_fast_path")
	}
	if !shouldProcess {
		return
	}

	priorInquiryProcessed := m.state.InquiryProcessed
	result := m.runner.Run(ctx, utterance, m.state.CaseNumber, m.callSID)

	// A standalone escalation check must not close the processed flag; a
	// real inquiry (or an escalation after one) does.
	if !(result.Intent == policy.IntentEscalate && !priorInquiryProcessed) {
		m.state.InquiryProcessed = true
	}

	if result.Escalated {
		m.state.Escalated = true
		// The telephony transfer announces itself out of band; forwarding
		// response text here would talk over the transfer leg.
		log.Info().Str("call_sid", m.callSID).Msg("escalation_completed")
		return
	}

	if result.ResponseText != "" {
		if err := m.speaker.Say(ctx, result.ResponseText); err != nil {
			log.Error().Err(err).
				Str("call_sid", m.callSID).
				Msg("forwarding_response_failed")
		}
	}
}

func (m *Monitor) containsEscalationKeyword(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, kw := range m.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
