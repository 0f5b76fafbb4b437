package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promanage/internal/blob"
	"promanage/internal/config"
	"promanage/internal/seed"
	"promanage/internal/server"
	"promanage/internal/service"
	"promanage/internal/storage/sqlstore"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("unable to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	logger.Info("ProManage backend", slog.String("driver", string(cfg.DBDriver)))

	ctx := context.Background()
	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	if cfg.Seed {
		if _, err := seed.Users(ctx, store, logger); err != nil {
			logger.Error("seeding users failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var blobs service.Presigner
	if cfg.S3.Enabled() {
		p, err := blob.New(ctx, cfg.S3)
		if err != nil {
			logger.Error("unable to configure object storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		blobs = p
	} else {
		logger.Warn("object storage not configured; attachments disabled")
	}

	stores := service.NewStoreSet(store)
	projects := service.NewProjectService(stores, store, store, logger)
	svc := server.Services{
		Auth:        service.NewAuthService(store, []byte(cfg.JWTSecret), cfg.TokenTTL, logger),
		Projects:    projects,
		Dashboard:   service.NewDashboardService(stores),
		Collab:      service.NewCollabService(projects, store, store, store, logger),
		Attachments: service.NewAttachmentService(projects, store, blobs, store, logger),
	}

	srv := server.New(svc, store, logger, server.Options{
		StaticDir:   cfg.StaticDir,
		CORSOrigins: cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
