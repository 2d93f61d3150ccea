package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideSession is returned when an artifact name resolves to a path
// outside the session's output directory.
var ErrOutsideSession = errors.New("artifact path escapes session directory")

// Compile-time check that FileSystem implements Storage.
var _ Storage = (*FileSystem)(nil)

// FileSystem implements Storage on the local filesystem. Uploads are stored
// at <uploadBase>/<sessionID>/<storedName>, outputs at
// <outputBase>/<sessionID>/<name>.
type FileSystem struct {
	uploadBase string
	outputBase string
}

// NewFileSystem creates a FileSystem storage rooted at the two base paths.
func NewFileSystem(uploadBase, outputBase string) *FileSystem {
	return &FileSystem{uploadBase: uploadBase, outputBase: outputBase}
}

func (fs *FileSystem) uploadDir(sessionID string) string {
	return filepath.Join(fs.uploadBase, sessionID)
}

// OutputDir returns the session's output directory path.
func (fs *FileSystem) OutputDir(sessionID string) string {
	return filepath.Join(fs.outputBase, sessionID)
}

// EnsureSession creates both session directories. MkdirAll tolerates the
// directory already existing, so concurrent allocation never fails on a race.
func (fs *FileSystem) EnsureSession(sessionID string) (string, string, error) {
	up := fs.uploadDir(sessionID)
	out := fs.OutputDir(sessionID)
	if err := os.MkdirAll(up, 0755); err != nil {
		return "", "", fmt.Errorf("creating upload directory %s: %w", up, err)
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return "", "", fmt.Errorf("creating output directory %s: %w", out, err)
	}
	return up, out, nil
}

// SaveUpload writes data to disk using atomic write (temp file + rename)
// and returns the final path and the number of bytes written.
func (fs *FileSystem) SaveUpload(sessionID, storedName string, data io.Reader) (string, int64, error) {
	dir := fs.uploadDir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Write to a temp file in the same directory for atomic rename.
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, data)
	if err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("writing data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("closing temp file: %w", err)
	}

	dst := filepath.Join(dir, storedName)
	if err := os.Rename(tmpPath, dst); err != nil {
		return "", 0, fmt.Errorf("renaming temp file to %s: %w", dst, err)
	}

	// Rename succeeded; prevent deferred cleanup from removing the final file.
	tmpPath = ""

	return dst, n, nil
}

// OpenArtifact opens an output file by name. The resolved path must stay
// inside the session's output directory; anything else is rejected before
// touching the filesystem.
func (fs *FileSystem) OpenArtifact(sessionID, name string) (io.ReadCloser, error) {
	dir := fs.OutputDir(sessionID)
	path := filepath.Join(dir, name)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", name, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if !strings.HasPrefix(abs, absDir+string(os.PathSeparator)) {
		return nil, ErrOutsideSession
	}

	// Only regular files are artifacts; names resolving to the session
	// directory itself or a subdirectory are not retrievable.
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact not found: %s/%s", sessionID, name)
		}
		return nil, fmt.Errorf("checking file %s: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("artifact not found: %s/%s", sessionID, name)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", abs, err)
	}
	return f, nil
}

// RemoveUploads deletes the session's upload directory. Idempotent.
func (fs *FileSystem) RemoveUploads(sessionID string) error {
	dir := fs.uploadDir(sessionID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing directory %s: %w", dir, err)
	}
	return nil
}

// RemoveSession deletes both session directories. Idempotent.
func (fs *FileSystem) RemoveSession(sessionID string) error {
	if err := fs.RemoveUploads(sessionID); err != nil {
		return err
	}
	dir := fs.OutputDir(sessionID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing directory %s: %w", dir, err)
	}
	return nil
}
