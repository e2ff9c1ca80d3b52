package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webquiz/internal/domain"
)

func TestAttemptStoreSnapshotLifecycle(t *testing.T) {
	store := NewAttemptStore()

	_, ok := store.LoadSnapshot("q1")
	assert.False(t, ok)

	left := 42
	store.SaveSnapshot("q1", domain.Snapshot{QuizID: "q1", CurrentQuestion: 2, Score: 1, OverallTimeLeft: &left})

	snap, ok := store.LoadSnapshot("q1")
	require.True(t, ok)
	assert.Equal(t, 2, snap.CurrentQuestion)
	assert.Equal(t, 1, snap.Score)
	require.NotNil(t, snap.OverallTimeLeft)
	assert.Equal(t, 42, *snap.OverallTimeLeft)

	store.ClearSnapshot("q1")
	_, ok = store.LoadSnapshot("q1")
	assert.False(t, ok)
}

func TestAttemptStoreCompletionMarker(t *testing.T) {
	store := NewAttemptStore()

	assert.False(t, store.HasCompletion("q1"))

	store.SetCompletion("q1", domain.Completion{Score: 3, Total: 5, FinishedAt: time.Now()})
	assert.True(t, store.HasCompletion("q1"))
	assert.False(t, store.HasCompletion("q2"), "markers are per quiz")

	store.ClearCompletion("q1")
	assert.False(t, store.HasCompletion("q1"))
}

func TestAttemptStoreProviderReusesPerClient(t *testing.T) {
	provider := NewAttemptStoreProvider()

	first := provider.AttemptStore("client-a")
	first.SaveSnapshot("q1", domain.Snapshot{QuizID: "q1", CurrentQuestion: 1})

	// The same client gets the same store back after a reconnect.
	again := provider.AttemptStore("client-a")
	snap, ok := again.LoadSnapshot("q1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.CurrentQuestion)

	// A different client never sees it.
	other := provider.AttemptStore("client-b")
	_, ok = other.LoadSnapshot("q1")
	assert.False(t, ok)
}
