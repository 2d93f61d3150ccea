package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trimwizard/trimwizard/internal/config"
	"github.com/trimwizard/trimwizard/internal/crop"
	"github.com/trimwizard/trimwizard/internal/model"
)

// Receiver-level batch errors. Both abort before or roll back any persisted
// file, so a failed receive never leaves partial writes behind.
var (
	ErrFileLimitExceeded = errors.New("file limit exceeded")
	ErrFileTooLarge      = errors.New("file too large")
	ErrInvalidFileType   = errors.New("invalid file type")
)

// rejected records a file the receiver refused and why; class is the
// sentinel the refusal belongs to.
type rejected struct {
	name   string
	reason string
	class  error
}

// receiveFiles validates and persists every part of the multipart batch
// into the session's upload directory. The file count is checked before a
// single byte is written. Under the abort policy an invalid file fails the
// whole batch and removes anything already stored; under the skip policy
// the file is recorded as rejected and the batch continues.
func (h *Handler) receiveFiles(sess *model.Session, parts []*multipart.FileHeader) ([]model.UploadedFile, []rejected, error) {
	if len(parts) > h.Config.MaxFiles {
		return nil, nil, fmt.Errorf("%w: %d files exceed the limit of %d", ErrFileLimitExceeded, len(parts), h.Config.MaxFiles)
	}

	var accepted []model.UploadedFile
	var skipped []rejected

	for _, part := range parts {
		uploaded, rej, err := h.receiveOne(sess, part)
		if err != nil {
			h.Store.RemoveUploads(sess.ID)
			return nil, nil, err
		}
		if rej != nil {
			if h.Config.RejectPolicy == config.RejectAbort {
				h.Store.RemoveUploads(sess.ID)
				return nil, nil, fmt.Errorf("%w: %s (%s)", rej.class, rej.name, rej.reason)
			}
			skipped = append(skipped, *rej)
			continue
		}
		accepted = append(accepted, *uploaded)
	}

	return accepted, skipped, nil
}

// receiveOne validates one part and stores it. A non-nil rejection means the
// part was refused by policy; an error means an infrastructure failure.
func (h *Handler) receiveOne(sess *model.Session, part *multipart.FileHeader) (*model.UploadedFile, *rejected, error) {
	refuse := func(class error, reason string) (*model.UploadedFile, *rejected, error) {
		return nil, &rejected{name: part.Filename, reason: reason, class: class}, nil
	}

	if part.Size > h.Config.MaxFileSize {
		return refuse(ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes", h.Config.MaxFileSize))
	}

	declared := part.Header.Get("Content-Type")
	if !h.Config.AllowsType(declared) {
		return refuse(ErrInvalidFileType, fmt.Sprintf("type %q not allowed", declared))
	}

	f, err := part.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening part %s: %w", part.Filename, err)
	}
	defer f.Close()

	// Sniff the leading bytes: the declared type is caller-controlled and
	// must agree with the actual content.
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("reading part %s: %w", part.Filename, err)
	}
	if crop.DetectFormat(head[:n]) == "" {
		return refuse(ErrInvalidFileType, "content is not a supported image")
	}

	storedName := storedName(part.Filename)
	body := io.MultiReader(bytes.NewReader(head[:n]), f)
	path, size, err := h.Store.SaveUpload(sess.ID, storedName, body)
	if err != nil {
		return nil, nil, fmt.Errorf("storing %s: %w", part.Filename, err)
	}

	return &model.UploadedFile{
		OriginalName: part.Filename,
		MimeType:     declared,
		SizeBytes:    size,
		StoredPath:   path,
	}, nil, nil
}

// storedName builds a collision-resistant name for a stored upload: a
// timestamp and random prefix joined with the sanitised original name.
func storedName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixNano(), uuid.NewString()[:8], base)
}
