package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "runs.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	// Empty history
	runs, err := store.Latest(ctx, 3)
	assert.NoError(t, err)
	assert.Empty(t, runs)

	now := time.Now()
	require.NoError(t, store.Save(ctx, sampleRun("abc", now.Add(-time.Hour), 40)))
	require.NoError(t, store.Save(ctx, sampleRun("def", now, 41)))

	runs, err = store.Latest(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "def", runs[0].ID)

	// Verify persistence and order
	other, err := NewFileStore(path)
	require.NoError(t, err)
	runs, err = other.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "def", runs[0].ID)
	assert.Equal(t, "abc", runs[1].ID)

	assert.Error(t, store.Save(ctx, sampleRun("abc", now, 40)))
	assert.NoError(t, store.Close())
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Latest(context.Background(), 1)
	assert.ErrorContains(t, err, "failed to unmarshal runs")
}
