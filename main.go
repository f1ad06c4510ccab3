package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/video-summarizer/cache"
	"github.com/nijaru/video-summarizer/config"
	"github.com/nijaru/video-summarizer/db"
	"github.com/nijaru/video-summarizer/gemini"
	"github.com/nijaru/video-summarizer/handlers"
	"github.com/nijaru/video-summarizer/logger"
	"github.com/nijaru/video-summarizer/middleware"
	"github.com/nijaru/video-summarizer/pipeline"
	"github.com/nijaru/video-summarizer/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logCloser, err := logger.Setup(logger.Options{
		Dir:    cfg.LogDir,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}
	defer logCloser.Close()

	if err := config.ValidateConfig(cfg); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	uploads, err := storage.NewUploadStore(cfg.UploadDir)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create upload directory")
	}

	jobs, err := db.InitializeDB(cfg.DBPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer func() {
		if err := jobs.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close database")
		}
	}()

	ctx := context.Background()

	client, err := gemini.NewClient(ctx, cfg.APIKey, cfg.ModelName)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create Gemini client")
	}
	defer client.Close()

	summaryCache := cache.New(cfg.Cache)
	defer summaryCache.Close()
	if summaryCache.Enabled() {
		if err := summaryCache.Ping(ctx); err != nil {
			logrus.WithError(err).Warn("Redis unreachable, cache lookups will miss")
		}
	}

	var archive handlers.Archiver
	if cfg.Spaces.Enabled() {
		spaces, err := storage.NewSpacesClient(ctx, cfg.Spaces)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create Spaces client")
		}
		archive = spaces
	}

	svc := pipeline.NewService(client, pipeline.ConfigFrom(cfg))
	h := handlers.New(cfg, uploads, svc, jobs, summaryCache, archive)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitInterval)

	server := &http.Server{
		Addr: ":" + cfg.ServerPort,
		Handler: middleware.Chain(mux,
			middleware.LoggingMiddleware,
			middleware.Recovery,
			rateLimiter.Middleware,
		),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":    cfg.ServerPort,
			"model":   client.ModelName(),
			"uploads": uploads.Dir(),
			"cache":   summaryCache.Enabled(),
		}).Info("Listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatalf("Could not listen on :%s", cfg.ServerPort)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop

	logrus.Info("Shutting down the server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}
