package handler

import (
	"github.com/trimwizard/trimwizard/internal/batch"
	"github.com/trimwizard/trimwizard/internal/config"
	"github.com/trimwizard/trimwizard/internal/database"
	"github.com/trimwizard/trimwizard/internal/session"
	"github.com/trimwizard/trimwizard/internal/storage"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	DB     database.Database
	Store  storage.Storage
	Config *config.Config
	Alloc  *session.Allocator
	Orch   *batch.Orchestrator
}
