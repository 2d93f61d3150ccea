// Package session mints session identities and enforces the retention
// policy over expired sessions.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trimwizard/trimwizard/internal/database"
	"github.com/trimwizard/trimwizard/internal/model"
	"github.com/trimwizard/trimwizard/internal/storage"
)

// Allocator mints one session per incoming batch request. Session ids are
// random UUIDs, so retrieval by id cannot be guessed or enumerated.
type Allocator struct {
	DB    database.Database
	Store storage.Storage
}

// Allocate creates a new session: a fresh id, both scoped directories, and
// the metadata row. Directory creation is idempotent.
func (a *Allocator) Allocate() (*model.Session, error) {
	id := uuid.New().String()

	uploadDir, outputDir, err := a.Store.EnsureSession(id)
	if err != nil {
		return nil, fmt.Errorf("provisioning session %s: %w", id, err)
	}

	sess := &model.Session{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		UploadRoot: uploadDir,
		OutputRoot: outputDir,
	}
	if err := a.DB.CreateSession(sess); err != nil {
		return nil, fmt.Errorf("recording session %s: %w", id, err)
	}
	return sess, nil
}
