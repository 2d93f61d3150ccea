//go:build e2e

package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trimwizard/trimwizard/internal/config"
	"github.com/trimwizard/trimwizard/internal/database"
	"github.com/trimwizard/trimwizard/internal/router"
	"github.com/trimwizard/trimwizard/internal/session"
	"github.com/trimwizard/trimwizard/internal/storage"
)

type env struct {
	ts    *httptest.Server
	db    *database.SQLiteDB
	store *storage.FileSystem
}

// setupTestServer runs the full stack over a temp SQLite file and temp
// storage roots.
func setupTestServer(t *testing.T) *env {
	t.Helper()

	root := t.TempDir()
	db, err := database.NewSQLiteDB(filepath.Join(root, "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewFileSystem(filepath.Join(root, "uploads"), filepath.Join(root, "cropped"))

	cfg := &config.Config{
		UploadPath:   filepath.Join(root, "uploads"),
		OutputPath:   filepath.Join(root, "cropped"),
		MaxFiles:     20,
		MaxFileSize:  10 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png"},
		RejectPolicy: config.RejectAbort,
	}
	srv := router.New(db, store, cfg)
	ts := httptest.NewServer(srv.Router)
	cfg.BaseURL = ts.URL
	t.Cleanup(ts.Close)

	return &env{ts: ts, db: db, store: store}
}

// makeJPEG creates a valid JPEG image in memory.
func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func uploadBatch(t *testing.T, e *env, names []string) (string, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range names {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		hdr.Set("Content-Type", "image/jpeg")
		pw, err := writer.CreatePart(hdr)
		require.NoError(t, err)
		_, err = pw.Write(makeJPEG(t, 400, 300))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	resp, err := http.Post(e.ts.URL+"/upload", writer.FormDataContentType(), body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		SessionID    string `json:"sessionId"`
		DownloadLink string `json:"downloadLink"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.SessionID, out.DownloadLink
}

func TestFullPipeline(t *testing.T) {
	e := setupTestServer(t)

	sessionID, link := uploadBatch(t, e, []string{"one.jpg", "two.jpg"})
	require.NotEmpty(t, sessionID)

	// The download link resolves to a complete archive.
	dl, err := http.Get(link)
	require.NoError(t, err)
	defer dl.Body.Close()
	require.Equal(t, http.StatusOK, dl.StatusCode)

	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 2)

	// The batch report is retrievable afterwards.
	sr, err := http.Get(e.ts.URL + "/sessions/" + sessionID)
	require.NoError(t, err)
	sr.Body.Close()
	assert.Equal(t, http.StatusOK, sr.StatusCode)
}

func TestRetentionSweepEndsRetrieval(t *testing.T) {
	e := setupTestServer(t)

	sessionID, link := uploadBatch(t, e, []string{"keep.jpg"})

	// A zero-retention sweep expires the session immediately.
	sw := &session.Sweeper{DB: e.db, Store: e.store, Retention: -time.Second}
	n, err := sw.SweepOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dl, err := http.Get(link)
	require.NoError(t, err)
	dl.Body.Close()
	assert.Equal(t, http.StatusNotFound, dl.StatusCode)

	sr, err := http.Get(e.ts.URL + "/sessions/" + sessionID)
	require.NoError(t, err)
	sr.Body.Close()
	assert.Equal(t, http.StatusNotFound, sr.StatusCode)
}
