package testutil

import (
	"context"
	"sync"
)

// ScriptTranscript implements the monitor's Transcript interface over an
// appendable list of user utterances.
type ScriptTranscript struct {
	mu         sync.Mutex
	utterances []string
}

// Append adds a user utterance, as the speech-recognition side would.
func (t *ScriptTranscript) Append(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.utterances = append(t.utterances, text)
}

// LatestUserUtterance returns the newest utterance, if any.
func (t *ScriptTranscript) LatestUserUtterance() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.utterances) == 0 {
		return "", false
	}
	return t.utterances[len(t.utterances)-1], true
}

// RecordingSpeaker implements the monitor's Speaker interface, capturing
// everything queued for synthesis.
type RecordingSpeaker struct {
	Err error

	mu   sync.Mutex
	Said []string
}

// Say records the text and returns the configured error, if any.
func (s *RecordingSpeaker) Say(_ context.Context, text string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Said = append(s.Said, text)
	return nil
}

// Lines returns a copy of everything said so far.
func (s *RecordingSpeaker) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Said))
	copy(out, s.Said)
	return out
}
