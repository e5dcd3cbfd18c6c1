// Package pipelinetest provides a scripted pipeline runner for tests of the
// packages that sit above the pipeline (monitor, server). It lives outside
// internal/testutil so that the pipeline's own tests can use testutil without
// an import cycle.
package pipelinetest

import (
	"context"
	"sync"

	"github.com/dativo-io/parley/internal/pipeline"
)

// RunnerCall records the arguments of one pipeline invocation.
type RunnerCall struct {
	Utterance  string
	CaseNumber string
	CallSID    string
}

// StubRunner implements the monitor's Runner interface with a scripted
// result sequence: call N gets Results[N], or the last result when the
// script runs out.
type StubRunner struct {
	Results []*pipeline.Result

	mu    sync.Mutex
	Calls []RunnerCall
}

// Run records the invocation and returns the next scripted result.
func (r *StubRunner) Run(_ context.Context, utterance, caseNumber, callSID string) *pipeline.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, RunnerCall{Utterance: utterance, CaseNumber: caseNumber, CallSID: callSID})

	if len(r.Results) == 0 {
		return &pipeline.Result{}
	}
	idx := len(r.Calls) - 1
	if idx >= len(r.Results) {
		idx = len(r.Results) - 1
	}
	return r.Results[idx]
}

// CallCount returns how many pipeline invocations were recorded.
func (r *StubRunner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}
