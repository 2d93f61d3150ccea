package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/trimwizard/trimwizard/internal/api"
	"github.com/trimwizard/trimwizard/internal/archive"
	"github.com/trimwizard/trimwizard/internal/crop"
	"github.com/trimwizard/trimwizard/internal/model"
)

// multipart form memory threshold; larger parts spill to temp files.
const maxFormMemory = 32 << 20

// uploadResponse is the body of a completed batch, in both packaging modes.
type uploadResponse struct {
	Message       string             `json:"message"`
	SessionID     string             `json:"sessionId"`
	DownloadLink  string             `json:"downloadLink,omitempty"`
	DownloadLinks []model.Artifact   `json:"downloadLinks,omitempty"`
	Succeeded     int                `json:"succeeded"`
	Failed        int                `json:"failed"`
	Results       []model.CropResult `json:"results"`
}

// UploadBatch handles POST /upload: one session per request, every file
// validated and stored, cropped per the batch policy, and packaged as a zip
// archive or a list of per-file links.
func (h *Handler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		api.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		api.BadRequest(w, "no files uploaded")
		return
	}

	policy, err := policyFromForm(r)
	if err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	sess, err := h.Alloc.Allocate()
	if err != nil {
		slog.Error("session allocation failed", "error", err)
		api.Internal(w, "failed to allocate session")
		return
	}

	files, skipped, err := h.receiveFiles(sess, parts)
	if err != nil {
		if errors.Is(err, ErrFileLimitExceeded) || errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrInvalidFileType) {
			api.BadRequest(w, err.Error())
			return
		}
		slog.Error("storing uploads failed", "session", sess.ID, "error", err)
		api.Internal(w, "failed to store uploads")
		return
	}

	ctx := r.Context()
	if h.Config.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Config.BatchTimeout)
		defer cancel()
	}

	report, err := h.Orch.Run(ctx, sess, files, policy)
	if err != nil {
		slog.Error("batch aborted", "session", sess.ID, "error", err)
		api.Internal(w, "batch processing aborted")
		return
	}

	for _, sk := range skipped {
		report.Results = append(report.Results, model.CropResult{
			OriginalName: sk.name,
			Reason:       sk.reason,
		})
		report.Failed++
	}

	if err := h.DB.SaveResults(sess.ID, report.Results); err != nil {
		slog.Error("recording batch report failed", "session", sess.ID, "error", err)
		api.Internal(w, "failed to record batch report")
		return
	}

	if report.Succeeded == 0 {
		api.WriteJSON(w, http.StatusBadRequest, uploadResponse{
			Message:   "no images cropped",
			SessionID: sess.ID,
			Failed:    report.Failed,
			Results:   report.Results,
		})
		return
	}

	resp := uploadResponse{
		Message:   "images cropped successfully",
		SessionID: sess.ID,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Results:   report.Results,
	}

	switch r.FormValue("packaging") {
	case "links":
		resp.DownloadLinks = archive.Index(h.Config.BaseURL, sess.ID, report.Results)
	default:
		dst := filepath.Join(sess.OutputRoot, archive.BundleName)
		if err := archive.Pack(report.Outputs(), dst); err != nil {
			slog.Error("packing archive failed", "session", sess.ID, "error", err)
			api.Internal(w, "failed to build archive")
			return
		}
		resp.DownloadLink = archive.DownloadURL(h.Config.BaseURL, sess.ID)
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

// policyFromForm derives the batch crop policy from the optional form
// fields. Margin fields select fixed margins, rectangle fields a fixed
// rectangle, mode=center-square the centered square; with no fields the
// batch falls back to randomised shrinking.
func policyFromForm(r *http.Request) (crop.Policy, error) {
	hasRect := hasAnyField(r, "cropWidth", "cropHeight", "x", "y")
	hasMargins := hasAnyField(r, "top", "bottom", "left", "right")

	var p crop.Policy
	switch {
	case r.FormValue("mode") == "center-square":
		p = crop.Policy{Kind: crop.KindCenterSquare}

	case hasRect && hasMargins:
		return crop.Policy{}, fmt.Errorf("margin and rectangle crop fields are mutually exclusive")

	case hasRect:
		if r.FormValue("cropWidth") == "" || r.FormValue("cropHeight") == "" {
			return crop.Policy{}, fmt.Errorf("missing crop params: cropWidth and cropHeight are required")
		}
		w, err := formInt(r, "cropWidth")
		if err != nil {
			return crop.Policy{}, err
		}
		ht, err := formInt(r, "cropHeight")
		if err != nil {
			return crop.Policy{}, err
		}
		x, err := formInt(r, "x")
		if err != nil {
			return crop.Policy{}, err
		}
		y, err := formInt(r, "y")
		if err != nil {
			return crop.Policy{}, err
		}
		p = crop.Policy{Kind: crop.KindFixedRect, Width: w, Height: ht, X: x, Y: y}

	case hasMargins:
		top, err := formInt(r, "top")
		if err != nil {
			return crop.Policy{}, err
		}
		bottom, err := formInt(r, "bottom")
		if err != nil {
			return crop.Policy{}, err
		}
		left, err := formInt(r, "left")
		if err != nil {
			return crop.Policy{}, err
		}
		right, err := formInt(r, "right")
		if err != nil {
			return crop.Policy{}, err
		}
		p = crop.Policy{Kind: crop.KindFixedMargins, Top: top, Bottom: bottom, Left: left, Right: right}

	default:
		p = crop.DefaultRandomShrink()
	}

	if err := p.Validate(); err != nil {
		return crop.Policy{}, fmt.Errorf("invalid crop policy: %w", err)
	}
	return p, nil
}

func hasAnyField(r *http.Request, names ...string) bool {
	for _, n := range names {
		if r.FormValue(n) != "" {
			return true
		}
	}
	return false
}

func formInt(r *http.Request, name string) (int, error) {
	v := r.FormValue(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %s: %q is not an integer", name, v)
	}
	return n, nil
}
