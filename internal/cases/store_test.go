package cases

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "cases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLookupUnknownCase(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Lookup(context.Background(), "99999")
	require.NoError(t, err)
	assert.Equal(t, "99999", st.CaseNumber)
	assert.Equal(t, StatusUnknown, st.Status)
	assert.Equal(t, "Case not found in system", st.Reason)
}

func TestUpsertAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := &Status{
		CaseNumber:  "ABC-123",
		Status:      "open",
		Reason:      "Awaiting parts",
		OpenedDate:  "2024-03-01",
		LastUpdated: "2024-03-05",
	}
	require.NoError(t, s.Upsert(ctx, in))

	got, err := s.Lookup(ctx, "ABC-123")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	// Upsert replaces in place.
	in.Status = "closed"
	in.Reason = "Resolved"
	require.NoError(t, s.Upsert(ctx, in))

	got, err = s.Lookup(ctx, "ABC-123")
	require.NoError(t, err)
	assert.Equal(t, "closed", got.Status)
}

func TestSeedDemo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedDemo(ctx))

	st, err := s.Lookup(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "open", st.Status)
	assert.Equal(t, "Awaiting customer response", st.Reason)

	st, err = s.Lookup(ctx, "VIP-001")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", st.Status)
}

// Seeding a populated store is a no-op so restarts don't clobber edits.
func TestSeedDemoPreservesExistingData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedDemo(ctx))
	require.NoError(t, s.Upsert(ctx, &Status{CaseNumber: "12345", Status: "closed", Reason: "Done"}))

	require.NoError(t, s.SeedDemo(ctx))

	st, err := s.Lookup(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "closed", st.Status)
}
