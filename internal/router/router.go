package router

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/trimwizard/trimwizard/internal/api"
	"github.com/trimwizard/trimwizard/internal/batch"
	"github.com/trimwizard/trimwizard/internal/config"
	"github.com/trimwizard/trimwizard/internal/crop"
	"github.com/trimwizard/trimwizard/internal/database"
	"github.com/trimwizard/trimwizard/internal/handler"
	"github.com/trimwizard/trimwizard/internal/session"
	"github.com/trimwizard/trimwizard/internal/storage"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	DB     database.Database
	Store  storage.Storage
	Config *config.Config
	Router chi.Router
}

// New creates a new Server with a fully configured chi router.
func New(db database.Database, store storage.Storage, cfg *config.Config) *Server {
	s := &Server{DB: db, Store: store, Config: cfg}

	h := &handler.Handler{
		DB:     db,
		Store:  store,
		Config: cfg,
		Alloc:  &session.Allocator{DB: db, Store: store},
		Orch: &batch.Orchestrator{
			Cropper:     crop.New(),
			Parallelism: cfg.Parallelism,
			FileTimeout: cfg.CropTimeout,
		},
	}

	r := chi.NewRouter()

	// CORS — must be before other middleware to handle preflight OPTIONS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.MethodNotAllowed(api.MethodNotAllowed)

	// Health check.
	r.Get("/health", s.Health)

	// Batch pipeline. The body cap covers every file plus form overhead.
	r.Group(func(r chi.Router) {
		r.Use(api.BodyLimit(int64(cfg.MaxFiles)*cfg.MaxFileSize + (1 << 20)))
		r.Post("/upload", h.UploadBatch)
	})

	r.Get("/download", h.Download)
	r.Get("/sessions/{session_id}", h.GetSession)
	r.Get("/stats", h.GetStats)

	s.Router = r
	return s
}

// Health returns a simple health-check response.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}
