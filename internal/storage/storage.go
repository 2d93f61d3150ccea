package storage

import "io"

// Storage defines the interface for session-scoped file storage. Every path
// is partitioned by session id, so concurrent sessions never contend on the
// same file.
type Storage interface {
	// EnsureSession creates the session's upload and output directories
	// and returns their paths. Idempotent and safe under concurrent calls.
	EnsureSession(sessionID string) (uploadDir, outputDir string, err error)

	// SaveUpload writes one uploaded file into the session's upload
	// directory under storedName and returns its path and size.
	SaveUpload(sessionID, storedName string, data io.Reader) (string, int64, error)

	// OutputDir returns the session's output directory path.
	OutputDir(sessionID string) string

	// OpenArtifact opens a previously produced artifact by name, confined
	// to the session's output directory. Names that resolve outside the
	// session directory are rejected.
	OpenArtifact(sessionID, name string) (io.ReadCloser, error)

	// RemoveUploads deletes the session's upload directory.
	RemoveUploads(sessionID string) error

	// RemoveSession deletes everything stored for the session.
	RemoveSession(sessionID string) error
}
