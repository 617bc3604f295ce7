// Package staging_test tests the on-disk segment store.
package staging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/voice-clone-service/internal/staging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore_PathFormat(t *testing.T) {
	t.Parallel()

	store := staging.NewDirStore("/tmp/voice_parts")

	assert.Equal(t, filepath.Join("/tmp/voice_parts", "part_0001.wav"), store.Path(1))
	assert.Equal(t, filepath.Join("/tmp/voice_parts", "part_0042.wav"), store.Path(42))
	assert.Equal(t, filepath.Join("/tmp/voice_parts", "part_1234.wav"), store.Path(1234))
}

func TestDirStore_InitIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), staging.DirName)
	store := staging.NewDirStore(dir)

	require.NoError(t, store.Init())
	require.NoError(t, store.Init())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDirStore_InitKeepsExistingArtifacts(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), staging.DirName)
	store := staging.NewDirStore(dir)
	require.NoError(t, store.Init())

	writeErr := os.WriteFile(store.Path(3), []byte("staged audio"), 0o600)
	require.NoError(t, writeErr)

	require.NoError(t, store.Init())

	completed, err := store.Completed(3)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestDirStore_Completed(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), staging.DirName)
	store := staging.NewDirStore(dir)
	require.NoError(t, store.Init())

	// Missing artifact.
	completed, err := store.Completed(1)
	require.NoError(t, err)
	assert.False(t, completed)

	// Empty artifact counts as incomplete.
	require.NoError(t, os.WriteFile(store.Path(1), nil, 0o600))

	completed, err = store.Completed(1)
	require.NoError(t, err)
	assert.False(t, completed)

	// Non-empty artifact is complete.
	require.NoError(t, os.WriteFile(store.Path(1), []byte("wav"), 0o600))

	completed, err = store.Completed(1)
	require.NoError(t, err)
	assert.True(t, completed)
}
