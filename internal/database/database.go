package database

import (
	"time"

	"github.com/trimwizard/trimwizard/internal/model"
)

// Stats summarises all work the service has done.
type Stats struct {
	Sessions int `json:"sessions"`
	Cropped  int `json:"cropped"`
	Failed   int `json:"failed"`
}

// Database defines the persistence interface for session metadata and
// batch reports.
type Database interface {
	// Sessions
	CreateSession(s *model.Session) error
	GetSession(id string) (*model.Session, error)
	ListSessionsBefore(cutoff time.Time) ([]*model.Session, error)
	DeleteSession(id string) error

	// Batch reports
	SaveResults(sessionID string, results []model.CropResult) error
	GetReport(sessionID string) (*model.BatchReport, error)

	Stats() (Stats, error)

	Close() error
}
