package identity

import (
	"os"
	"path/filepath"
	"testing"

	"coco/internal/cocoerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllEmptyWorkspace(t *testing.T) {
	s := New(t.TempDir())
	docs, err := s.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, docs.Self)
	assert.Empty(t, docs.User)
	assert.Empty(t, docs.Prefs)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	canonical, redirected, err := s.Write("self", SelfFile, "I am COCO.")
	require.NoError(t, err)
	assert.Equal(t, SelfFile, canonical)
	assert.False(t, redirected)

	docs, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "I am COCO.", docs.Self)
}

func TestWriteRedirectsOutsidePath(t *testing.T) {
	s := New(t.TempDir())
	canonical, redirected, err := s.Write("user", "nested/dir/USER_PROFILE.md", "profile text")
	require.NoError(t, err)
	assert.Equal(t, UserFile, canonical)
	assert.True(t, redirected)

	docs, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "profile text", docs.User)
}

func TestWriteUnknownKind(t *testing.T) {
	s := New(t.TempDir())
	_, _, err := s.Write("bogus", "x", "y")
	require.Error(t, err)
	assert.Equal(t, cocoerr.InvalidInput, cocoerr.KindOf(err))
}

func TestValidateLayoutDetectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, SelfFile), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coco.md"), []byte("b"), 0o644))

	err := s.ValidateLayout()
	require.Error(t, err)
	assert.Equal(t, cocoerr.FilesystemCorruption, cocoerr.KindOf(err))
}

func TestValidateLayoutCleanWorkspace(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, SelfFile), []byte("a"), 0o644))
	require.NoError(t, s.ValidateLayout())
}
