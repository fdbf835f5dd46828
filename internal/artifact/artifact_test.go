package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRejectsEscapes(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Resolve("cam01/pictures/img.jpg")
	assert.NoError(t, err)

	_, err = s.Resolve("/etc/passwd")
	assert.Error(t, err)

	_, err = s.Resolve("cam01/../../etc/passwd")
	assert.Error(t, err)
}

func TestEnsureCameraDirs(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	require.NoError(t, s.EnsureCameraDirs("cam01"))

	pictures, thumbs, videos := s.CameraDirs("cam01")
	for _, abs := range []string{pictures, thumbs, videos} {
		info, err := os.Stat(abs)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestStatAndQuiescent(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	abs := filepath.Join(root, "clip.h264")
	require.NoError(t, os.WriteFile(abs, []byte("data"), 0o644))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(abs, old, old))

	info, err := s.Stat("clip.h264")
	require.NoError(t, err)
	assert.Equal(t, int64(len("data")), info.Size)
	assert.True(t, info.Quiescent(time.Minute))
	assert.False(t, info.Quiescent(2*time.Hour))
}

func TestDerivedPath(t *testing.T) {
	assert.Equal(t, "cam01/videos/clip.mp4", DerivedPath("cam01/videos/clip.h264", ".mp4"))
}

func TestRemove(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	abs := filepath.Join(root, "clip.h264")
	require.NoError(t, os.WriteFile(abs, []byte("data"), 0o644))

	require.NoError(t, s.Remove("clip.h264"))
	_, err := os.Stat(abs)
	assert.True(t, os.IsNotExist(err))
}
