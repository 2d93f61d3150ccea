// Package batch drives the crop transform over all files of a session,
// collecting per-file outcomes without ever aborting on a single failure.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/trimwizard/trimwizard/internal/crop"
	"github.com/trimwizard/trimwizard/internal/model"
)

const (
	defaultParallelism = 4
	defaultFileTimeout = 30 * time.Second
)

// Orchestrator runs a session's batch. Each file's crop writes to a
// distinct output path, so crops run concurrently up to Parallelism with no
// synchronisation beyond the final join.
type Orchestrator struct {
	Cropper     *crop.Cropper
	Parallelism int
	FileTimeout time.Duration
}

// Run crops every file and returns a report with one result per input, in
// input order. Individual failures (degenerate geometry, decode errors,
// timeouts) are recorded and the batch continues; Run itself only fails on
// a cancelled batch context.
func (o *Orchestrator) Run(ctx context.Context, sess *model.Session, files []model.UploadedFile, policy crop.Policy) (*model.BatchReport, error) {
	parallelism := o.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	fileTimeout := o.FileTimeout
	if fileTimeout <= 0 {
		fileTimeout = defaultFileTimeout
	}

	outNames := outputNames(files)
	results := make([]model.CropResult, len(files))
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for i, f := range files {
		wg.Add(1)
		go func(i int, f model.UploadedFile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = o.cropOne(ctx, sess, f, outNames[i], policy, fileTimeout)
		}(i, f)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &model.BatchReport{SessionID: sess.ID, Results: results}
	for _, r := range results {
		if r.Ok {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

func (o *Orchestrator) cropOne(ctx context.Context, sess *model.Session, f model.UploadedFile, outName string, policy crop.Policy, timeout time.Duration) model.CropResult {
	fileCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outPath, err := o.Cropper.Crop(fileCtx, f.StoredPath, sess.OutputRoot, outName, policy)
	if err != nil {
		slog.Warn("crop failed", "session", sess.ID, "file", f.OriginalName, "error", err)
		return model.CropResult{OriginalName: f.OriginalName, Reason: reasonFor(err)}
	}

	return model.CropResult{
		OriginalName: f.OriginalName,
		OutputName:   filepath.Base(outPath),
		OutputPath:   outPath,
		Ok:           true,
	}
}

// outputNames derives "cropped-<original>" names for the whole batch,
// uniquified so two uploads sharing a name never overwrite each other's
// output.
func outputNames(files []model.UploadedFile) []string {
	names := make([]string, len(files))
	seen := make(map[string]int, len(files))
	for i, f := range files {
		base := filepath.Base(f.OriginalName)
		if base == "." || base == "/" || base == "" {
			base = "upload"
		}
		name := crop.OutputPrefix + base
		if n := seen[name]; n > 0 {
			ext := filepath.Ext(base)
			stem := base[:len(base)-len(ext)]
			name = fmt.Sprintf("%s%s-%d%s", crop.OutputPrefix, stem, n, ext)
		}
		seen[crop.OutputPrefix+base]++
		names[i] = name
	}
	return names
}

// reasonFor maps an error to the report-facing failure reason.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, crop.ErrTooSmall):
		return crop.ErrTooSmall.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}
