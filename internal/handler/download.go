package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/trimwizard/trimwizard/internal/api"
	"github.com/trimwizard/trimwizard/internal/storage"
)

// Download handles GET /download?sessionId=<id>&fileName=<name> -- streams
// a previously produced artifact. "file" is accepted as an alias for
// "fileName". Artifacts resolve strictly within the session's output
// directory; an unknown session is a 404, never a directory listing.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	fileName := r.URL.Query().Get("fileName")
	if fileName == "" {
		fileName = r.URL.Query().Get("file")
	}
	if sessionID == "" || fileName == "" {
		api.BadRequest(w, "Session ID or file name missing")
		return
	}

	if _, err := h.DB.GetSession(sessionID); err != nil {
		api.NotFound(w, "Session not found")
		return
	}

	rc, err := h.Store.OpenArtifact(sessionID, fileName)
	if err != nil {
		if errors.Is(err, storage.ErrOutsideSession) {
			api.BadRequest(w, "Invalid file name")
			return
		}
		api.NotFound(w, "File not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFor(fileName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(fileName)))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("streaming artifact interrupted", "session", sessionID, "file", fileName, "error", err)
	}
}

// contentTypeFor maps an artifact name to its MIME type by extension.
func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return "application/zip"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
