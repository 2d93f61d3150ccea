package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/trimwizard/trimwizard/internal/database"
	"github.com/trimwizard/trimwizard/internal/storage"
)

// Sweeper deletes sessions older than the retention window, files and
// metadata both. It is the retention collaborator the pipeline itself
// stays out of.
type Sweeper struct {
	DB        database.Database
	Store     storage.Storage
	Retention time.Duration
	Interval  time.Duration
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(); err != nil {
				slog.Error("session sweep failed", "error", err)
			} else if n > 0 {
				slog.Info("swept expired sessions", "count", n)
			}
		}
	}
}

// SweepOnce removes all sessions past retention and returns how many were
// deleted. A failure on one session does not stop the sweep.
func (s *Sweeper) SweepOnce() (int, error) {
	cutoff := time.Now().UTC().Add(-s.Retention)
	expired, err := s.DB.ListSessionsBefore(cutoff)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, sess := range expired {
		if err := s.Store.RemoveSession(sess.ID); err != nil {
			slog.Warn("removing session files", "session", sess.ID, "error", err)
			continue
		}
		if err := s.DB.DeleteSession(sess.ID); err != nil {
			slog.Warn("removing session row", "session", sess.ID, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
