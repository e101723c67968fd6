package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	ref := Ref("doc-1", "report.pdf")
	assert.Equal(t, "doc-1/report.pdf", ref)

	require.NoError(t, s.Save(ctx, ref, []byte("%PDF")))
	assert.FileExists(t, filepath.Join(root, "doc-1", "report.pdf"))

	data, err := s.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)

	require.NoError(t, s.Delete(ctx, ref))
	assert.NoFileExists(t, filepath.Join(root, "doc-1", "report.pdf"))
	_, err = os.Stat(filepath.Join(root, "doc-1"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, s.Delete(ctx, ref))
}

func TestLocalStorage_RejectsEscapingRefs(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"", "../evil.pdf", "/etc/passwd", "a/../../b"} {
		assert.Error(t, s.Save(context.Background(), ref, []byte("x")), ref)
	}
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, "a/b.pdf", []byte("x")), context.Canceled)
}
