package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	ctx := context.Background()

	fs, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, fs.Save(ctx, "token", "tok-1"))
	require.NoError(t, fs.Save(ctx, "cart", "[]"))
	require.NoError(t, fs.Remove(ctx, "cart"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	value, ok, err := reopened.Load(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", value)

	_, ok, err = reopened.Load(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)

	_, ok, err := fs.Load(context.Background(), "token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStore_RemoveMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	assert.NoError(t, fs.Remove(context.Background(), "nope"))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no-op remove should not create the file")
}

func TestFileStore_RequiresPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
