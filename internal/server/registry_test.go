package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativo-io/parley/internal/pipeline/pipelinetest"
)

func newTestRegistry(t *testing.T, idleTTL time.Duration) *Registry {
	t.Helper()
	r := NewRegistry(&pipelinetest.StubRunner{}, 10*time.Millisecond, nil, idleTTL)
	t.Cleanup(r.Stop)
	return r
}

func TestRegistryBeginEnd(t *testing.T) {
	r := newTestRegistry(t, time.Minute)

	require.NoError(t, r.Begin("CA100"))
	assert.Equal(t, 1, r.Active())
	assert.ErrorIs(t, r.Begin("CA100"), ErrCallExists)

	require.NoError(t, r.End("CA100"))
	assert.Equal(t, 0, r.Active())
	assert.ErrorIs(t, r.End("CA100"), ErrCallNotFound)
}

func TestRegistryUnknownCall(t *testing.T) {
	r := newTestRegistry(t, time.Minute)

	assert.ErrorIs(t, r.AddUtterance("CA404", "hello"), ErrCallNotFound)
	assert.ErrorIs(t, r.QueueResponse("CA404", "hello"), ErrCallNotFound)
	_, err := r.DrainResponses("CA404")
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestRegistryQueueAndDrain(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	require.NoError(t, r.Begin("CA100"))

	require.NoError(t, r.QueueResponse("CA100", "greeting"))
	require.NoError(t, r.QueueResponse("CA100", "second"))

	got, err := r.DrainResponses("CA100")
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "second"}, got)

	// Drained is drained.
	got, err = r.DrainResponses("CA100")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegistrySweep(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	require.NoError(t, r.Begin("CA-idle"))
	require.NoError(t, r.Begin("CA-busy"))

	// Activity on one call keeps it alive past the sweep horizon.
	future := time.Now().Add(2 * time.Minute)
	require.NoError(t, r.AddUtterance("CA-busy", "still here"))
	r.mu.Lock()
	r.calls["CA-busy"].lastActive = future
	r.mu.Unlock()

	purged := r.Sweep(future)
	assert.Equal(t, 1, purged)
	assert.Equal(t, 1, r.Active())
	assert.ErrorIs(t, r.AddUtterance("CA-idle", "x"), ErrCallNotFound)
}

func TestRegistryStopEndsAllCalls(t *testing.T) {
	r := NewRegistry(&pipelinetest.StubRunner{}, 10*time.Millisecond, nil, time.Minute)
	require.NoError(t, r.StartJanitor())
	require.NoError(t, r.Begin("CA1"))
	require.NoError(t, r.Begin("CA2"))

	r.Stop()
	assert.Equal(t, 0, r.Active())
}

func TestResponseQueueClosed(t *testing.T) {
	q := newResponseQueue()
	require.NoError(t, q.Say(context.Background(), "before"))
	q.Close()
	assert.ErrorIs(t, q.Say(context.Background(), "after"), ErrConversationEnded)
	assert.Equal(t, []string{"before"}, q.Drain())
}

func TestLiveTranscriptLatest(t *testing.T) {
	tr := newLiveTranscript()
	_, ok := tr.LatestUserUtterance()
	assert.False(t, ok)

	tr.Append("first")
	tr.Append("second")
	got, ok := tr.LatestUserUtterance()
	require.True(t, ok)
	assert.Equal(t, "second", got)
}
