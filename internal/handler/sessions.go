package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/trimwizard/trimwizard/internal/api"
	"github.com/trimwizard/trimwizard/internal/model"
)

// sessionResponse is the persisted view of one batch.
type sessionResponse struct {
	SessionID string             `json:"sessionId"`
	CreatedAt time.Time          `json:"createdAt"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []model.CropResult `json:"results"`
}

// GetSession handles GET /sessions/{session_id} -- returns the stored
// batch report for a session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	sess, err := h.DB.GetSession(sessionID)
	if err != nil {
		api.NotFound(w, "Session not found")
		return
	}

	report, err := h.DB.GetReport(sessionID)
	if err != nil {
		slog.Error("loading batch report failed", "session", sessionID, "error", err)
		api.Internal(w, "failed to load batch report")
		return
	}

	api.WriteJSON(w, http.StatusOK, sessionResponse{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Results:   report.Results,
	})
}

// GetStats handles GET /stats -- service-wide totals.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.DB.Stats()
	if err != nil {
		slog.Error("loading stats failed", "error", err)
		api.Internal(w, "failed to load stats")
		return
	}
	api.WriteJSON(w, http.StatusOK, st)
}
