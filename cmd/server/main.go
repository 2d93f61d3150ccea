package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/trimwizard/trimwizard/internal/config"
	"github.com/trimwizard/trimwizard/internal/database"
	"github.com/trimwizard/trimwizard/internal/router"
	"github.com/trimwizard/trimwizard/internal/session"
	"github.com/trimwizard/trimwizard/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := storage.NewFileSystem(cfg.UploadPath, cfg.OutputPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := &session.Sweeper{
		DB:        db,
		Store:     store,
		Retention: cfg.Retention,
		Interval:  time.Hour,
	}
	go sweeper.Run(ctx)

	srv := router.New(db, store, cfg)

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "addr", cfg.ListenAddr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
