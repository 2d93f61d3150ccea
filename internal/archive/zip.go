// Package archive bundles a session's cropped outputs into a single zip
// file, or indexes them as individually retrievable artifacts.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/trimwizard/trimwizard/internal/model"
)

// BundleName is the fixed file name of a session's archive.
const BundleName = "bundle.zip"

// ErrNoOutputs is returned when packing is requested with nothing to pack.
// A zero-entry archive silently passed off as success would mask an empty
// batch, so the caller must handle this explicitly.
var ErrNoOutputs = errors.New("no outputs to pack")

// Pack streams the given files into a zip archive at dst. The archive is
// fully flushed and closed before Pack returns; a nil error means the file
// at dst is complete and readable.
func Pack(outputs []string, dst string) error {
	if len(outputs) == 0 {
		return ErrNoOutputs
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", dst, err)
	}

	zw := zip.NewWriter(f)
	for _, path := range outputs {
		if err := addEntry(zw, path); err != nil {
			zw.Close()
			f.Close()
			os.Remove(dst)
			return err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("closing archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("closing archive file: %w", err)
	}
	return nil
}

func addEntry(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("adding entry %s: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("writing entry %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Index builds the discrete-links view of a batch: one artifact per
// successful result, each retrievable through the download endpoint.
func Index(baseURL, sessionID string, results []model.CropResult) []model.Artifact {
	artifacts := make([]model.Artifact, 0, len(results))
	for _, r := range results {
		if !r.Ok {
			continue
		}
		artifacts = append(artifacts, model.Artifact{
			Name: r.OutputName,
			URL: fmt.Sprintf("%s/download?sessionId=%s&fileName=%s",
				baseURL, url.QueryEscape(sessionID), url.QueryEscape(r.OutputName)),
		})
	}
	return artifacts
}

// DownloadURL returns the retrieval link for a session's archive.
func DownloadURL(baseURL, sessionID string) string {
	return fmt.Sprintf("%s/download?sessionId=%s&fileName=%s",
		baseURL, url.QueryEscape(sessionID), BundleName)
}
