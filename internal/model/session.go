package model

import "time"

// Session represents the scoped context of one batch upload-and-crop request.
// All files derived from the batch live under its two scoped directories.
type Session struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	UploadRoot string    `json:"-"`
	OutputRoot string    `json:"-"`
}

// UploadedFile is one file accepted into a session.
type UploadedFile struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes"`
	StoredPath   string `json:"-"`
}

// CropResult records the outcome of cropping a single uploaded file.
// A failed result never aborts its batch.
type CropResult struct {
	OriginalName string `json:"originalName"`
	OutputName   string `json:"outputName,omitempty"`
	OutputPath   string `json:"-"`
	Ok           bool   `json:"ok"`
	Reason       string `json:"reason,omitempty"`
}

// BatchReport aggregates the per-file results of one session's batch.
type BatchReport struct {
	SessionID string       `json:"sessionId"`
	Results   []CropResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// Outputs returns the output paths of all successful results.
func (r *BatchReport) Outputs() []string {
	paths := make([]string, 0, r.Succeeded)
	for _, res := range r.Results {
		if res.Ok {
			paths = append(paths, res.OutputPath)
		}
	}
	return paths
}

// Artifact is one independently retrievable output of a session.
type Artifact struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
