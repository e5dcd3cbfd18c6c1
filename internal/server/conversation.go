package server

import (
	"context"
	"errors"
	"sync"
)

// ErrConversationEnded is returned when text is queued for a call whose
// spoken-output channel has already been closed.
var ErrConversationEnded = errors.New("conversation has ended")

// liveTranscript is the per-call transcript fed by the speech-recognition
// collaborator. The monitor only reads the tail; dedup against repeated
// reads happens in the monitor, not here.
type liveTranscript struct {
	mu         sync.Mutex
	utterances []string
}

func newLiveTranscript() *liveTranscript {
	return &liveTranscript{}
}

// Append adds one recognized user utterance.
func (t *liveTranscript) Append(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.utterances = append(t.utterances, text)
}

// LatestUserUtterance implements monitor.Transcript.
func (t *liveTranscript) LatestUserUtterance() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.utterances) == 0 {
		return "", false
	}
	return t.utterances[len(t.utterances)-1], true
}

// responseQueue is the per-call spoken-output channel. The monitor queues
// response text; the synthesis collaborator drains it.
type responseQueue struct {
	mu     sync.Mutex
	queued []string
	closed bool
}

func newResponseQueue() *responseQueue {
	return &responseQueue{}
}

// Say implements monitor.Speaker.
func (q *responseQueue) Say(_ context.Context, text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrConversationEnded
	}
	q.queued = append(q.queued, text)
	return nil
}

// Drain returns and clears everything queued for synthesis.
func (q *responseQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.queued
	q.queued = nil
	return out
}

// Close signals end of conversation; subsequent Say calls fail.
func (q *responseQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
