package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trimwizard/trimwizard/internal/database"
	"github.com/trimwizard/trimwizard/internal/model"
	"github.com/trimwizard/trimwizard/internal/storage"
)

func newAllocator(t *testing.T) (*Allocator, *database.SQLiteDB, *storage.FileSystem) {
	t.Helper()
	root := t.TempDir()
	db, err := database.NewSQLiteDB(filepath.Join(root, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewFileSystem(filepath.Join(root, "uploads"), filepath.Join(root, "cropped"))
	return &Allocator{DB: db, Store: store}, db, store
}

func TestAllocate(t *testing.T) {
	alloc, db, _ := newAllocator(t)

	sess, err := alloc.Allocate()
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.DirExists(t, sess.UploadRoot)
	assert.DirExists(t, sess.OutputRoot)

	got, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestAllocate_UniqueIDs(t *testing.T) {
	alloc, _, _ := newAllocator(t)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		sess, err := alloc.Allocate()
		require.NoError(t, err)
		require.False(t, seen[sess.ID], "duplicate session id %s", sess.ID)
		seen[sess.ID] = true
	}
}

func TestSweepOnce(t *testing.T) {
	alloc, db, store := newAllocator(t)

	fresh, err := alloc.Allocate()
	require.NoError(t, err)

	// Back-date one session past the retention window.
	stale := &model.Session{
		ID:        "stale-session",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	_, _, err = store.EnsureSession(stale.ID)
	require.NoError(t, err)
	require.NoError(t, db.CreateSession(stale))

	sw := &Sweeper{DB: db, Store: store, Retention: 24 * time.Hour}
	n, err := sw.SweepOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = db.GetSession(stale.ID)
	assert.Error(t, err)
	_, statErr := os.Stat(store.OutputDir(stale.ID))
	assert.True(t, os.IsNotExist(statErr))

	// The fresh session survives.
	_, err = db.GetSession(fresh.ID)
	assert.NoError(t, err)
	assert.DirExists(t, fresh.OutputRoot)
}
