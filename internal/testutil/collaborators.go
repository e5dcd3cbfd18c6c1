package testutil

import (
	"context"
	"sync"

	"github.com/dativo-io/parley/internal/cases"
)

// TransferCall records one transfer attempt.
type TransferCall struct {
	CallSID     string
	Destination string
}

// MockTransferer implements the pipeline's Transferer interface, recording
// every attempt. Set Result/Err to steer the outcome.
type MockTransferer struct {
	Result bool
	Err    error

	mu    sync.Mutex
	Calls []TransferCall
}

// TransferCall records the attempt and returns the configured outcome.
func (m *MockTransferer) TransferCall(_ context.Context, callSID, destination string) (bool, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, TransferCall{CallSID: callSID, Destination: destination})
	m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.Result, nil
}

// CallCount returns how many transfers were attempted.
func (m *MockTransferer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// StubStatuses implements the pipeline's StatusLookup over a fixed map.
// Missing identifiers get the standard "unknown" record, matching the real
// store's contract. Set Err to simulate a broken backend.
type StubStatuses struct {
	ByNumber map[string]*cases.Status
	Err      error

	mu      sync.Mutex
	Lookups []string
}

// Lookup returns the stubbed status for caseNumber.
func (s *StubStatuses) Lookup(_ context.Context, caseNumber string) (*cases.Status, error) {
	s.mu.Lock()
	s.Lookups = append(s.Lookups, caseNumber)
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	if st, ok := s.ByNumber[caseNumber]; ok {
		return st, nil
	}
	return &cases.Status{
		CaseNumber: caseNumber,
		Status:     cases.StatusUnknown,
		Reason:     "Case not found in system",
	}, nil
}
