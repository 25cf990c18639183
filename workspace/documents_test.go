package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ZTestA.PROC")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSaveWithoutUnsavedContentLeavesFileAlone(t *testing.T) {
	path := writeDoc(t, "on disk")
	d := NewDocuments(nil)

	require.NoError(t, d.Save(context.Background(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "on disk", string(data))
}

func TestSaveWritesUnsavedContent(t *testing.T) {
	path := writeDoc(t, "on disk")
	d := NewDocuments(nil)
	d.Update(path, []byte("edited"))
	assert.True(t, d.IsDirty(path))

	content, err := d.Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "edited", string(content))

	require.NoError(t, d.Save(context.Background(), path))
	assert.False(t, d.IsDirty(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestUpdateCopiesContent(t *testing.T) {
	path := writeDoc(t, "on disk")
	d := NewDocuments(nil)
	buf := []byte("edited")
	d.Update(path, buf)
	buf[0] = 'X'

	content, err := d.Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "edited", string(content))
}

func TestSaveMissingFileFails(t *testing.T) {
	d := NewDocuments(nil)
	err := d.Save(context.Background(), filepath.Join(t.TempDir(), "missing.PROC"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveCancelled(t *testing.T) {
	path := writeDoc(t, "on disk")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewDocuments(nil).Save(ctx, path), context.Canceled)
}

func TestPathsAreNormalized(t *testing.T) {
	path := writeDoc(t, "on disk")
	d := NewDocuments(nil)
	d.Update(filepath.Join(filepath.Dir(path), ".", "ZTestA.PROC"), []byte("edited"))
	assert.True(t, d.IsDirty(path))
}
