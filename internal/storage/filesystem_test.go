package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *FileSystem {
	t.Helper()
	root := t.TempDir()
	return NewFileSystem(filepath.Join(root, "uploads"), filepath.Join(root, "cropped"))
}

func TestEnsureSession(t *testing.T) {
	fs := newTestFS(t)

	up, out, err := fs.EnsureSession("sess-1")
	require.NoError(t, err)
	assert.DirExists(t, up)
	assert.DirExists(t, out)

	// Second call must not fail.
	_, _, err = fs.EnsureSession("sess-1")
	require.NoError(t, err)
}

func TestSaveUpload(t *testing.T) {
	fs := newTestFS(t)
	data := []byte("jpeg bytes here")

	path, n, err := fs.SaveUpload("sess-1", "123-photo.jpg", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, filepath.Join(fs.uploadBase, "sess-1", "123-photo.jpg"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)

	// No temp files may be left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenArtifact(t *testing.T) {
	fs := newTestFS(t)
	_, out, err := fs.EnsureSession("sess-1")
	require.NoError(t, err)

	data := []byte("cropped image")
	require.NoError(t, os.WriteFile(filepath.Join(out, "cropped-a.jpg"), data, 0644))

	rc, err := fs.OpenArtifact("sess-1", "cropped-a.jpg")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestOpenArtifact_NotFound(t *testing.T) {
	fs := newTestFS(t)
	_, _, err := fs.EnsureSession("sess-1")
	require.NoError(t, err)

	_, err = fs.OpenArtifact("sess-1", "nope.jpg")
	assert.Error(t, err)
}

func TestOpenArtifact_PathTraversal(t *testing.T) {
	fs := newTestFS(t)
	_, _, err := fs.EnsureSession("sess-1")
	require.NoError(t, err)

	// Plant a file outside the session directory that must stay unreachable.
	secret := filepath.Join(fs.outputBase, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0644))

	for _, name := range []string{
		"../secret.txt",
		"../../etc/passwd",
		"..",
		"/etc/passwd",
		"foo/../../secret.txt",
	} {
		_, err := fs.OpenArtifact("sess-1", name)
		assert.Error(t, err, "name %q must not resolve", name)
	}
}

func TestOpenArtifact_DirectoryName(t *testing.T) {
	fs := newTestFS(t)
	_, out, err := fs.EnsureSession("sess-1")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(out, "nested"), 0755))

	// Names resolving to the session directory itself or a subdirectory
	// are not artifacts and must be rejected.
	for _, name := range []string{".", "", "nested"} {
		_, err := fs.OpenArtifact("sess-1", name)
		assert.Error(t, err, "name %q must not open a directory", name)
	}
}

func TestOpenArtifact_OtherSession(t *testing.T) {
	fs := newTestFS(t)
	_, outA, err := fs.EnsureSession("sess-a")
	require.NoError(t, err)
	_, _, err = fs.EnsureSession("sess-b")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(outA, "bundle.zip"), []byte("zip"), 0644))

	_, err = fs.OpenArtifact("sess-b", "../sess-a/bundle.zip")
	assert.ErrorIs(t, err, ErrOutsideSession)
}

func TestRemoveUploads(t *testing.T) {
	fs := newTestFS(t)
	path, _, err := fs.SaveUpload("sess-1", "f.jpg", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, fs.RemoveUploads("sess-1"))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Idempotent.
	require.NoError(t, fs.RemoveUploads("sess-1"))
}

func TestRemoveSession(t *testing.T) {
	fs := newTestFS(t)
	up, out, err := fs.EnsureSession("sess-1")
	require.NoError(t, err)

	require.NoError(t, fs.RemoveSession("sess-1"))
	for _, dir := range []string{up, out} {
		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr))
	}
}
