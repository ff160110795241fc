package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/templemind/internal/ai"
	"github.com/vytor/templemind/internal/api"
	"github.com/vytor/templemind/internal/auth"
	"github.com/vytor/templemind/internal/config"
	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/db"
	"github.com/vytor/templemind/internal/jobs"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/minigame"
	"github.com/vytor/templemind/internal/repository/sqlstore"
	"github.com/vytor/templemind/internal/services"
	"github.com/vytor/templemind/internal/session"
	"github.com/vytor/templemind/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("TempleMind Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_driver=%s", cfg.DBDriver)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("result_worker_count=%d", cfg.ResultWorkerCount)
	log.Debug("result_queue_size=%d", cfg.ResultQueueSize)
	log.Debug("session_ttl=%s", cfg.SessionTTL)
	log.Debug("ai_model=%s", cfg.AIModel)
	log.Debug("content_dir=%s", cfg.ContentDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lib, err := content.Load(cfg.ContentDir)
	if err != nil {
		log.Error("failed to load content: %v", err)
		os.Exit(1)
	}

	// Open database
	openCtx, openCancel := context.WithTimeout(ctx, 30*time.Second)
	database, err := db.Open(openCtx, db.Options{Driver: cfg.DBDriver, Path: cfg.DBPath, URL: cfg.DatabaseURL})
	openCancel()
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	secret := cfg.TokenSecret
	if secret == "" {
		log.Warn("TOKEN_SECRET not set, identity tokens will not survive a restart")
		secret = auth.RandomSecret()
	}

	// A nil Completer keeps the companion on its fallback content.
	var completer ai.Completer
	if client := ai.New(ai.Config{BaseURL: cfg.AIBaseURL, APIKey: cfg.AIAPIKey, Model: cfg.AIModel, Timeout: cfg.AITimeout}); client.Enabled() {
		completer = client
	} else {
		log.Info("AI_API_KEY not set, companion uses fallback content")
	}

	profileRepo := sqlstore.NewProfileRepository(database)
	progressRepo := sqlstore.NewProgressRepository(database)
	resultRepo := sqlstore.NewResultRepository(database)
	chatRepo := sqlstore.NewChatRepository(database)

	// Initialize services
	profileService := services.NewProfileService(profileRepo, auth.NewTokens(secret, cfg.TokenTTL))
	progressService := services.NewProgressService(progressRepo, resultRepo, time.Now)

	resultPool := worker.NewPool("results", cfg.ResultWorkerCount, cfg.ResultQueueSize)
	resultPool.Start(ctx)

	manager := session.NewManager(minigame.NewFactory(lib), session.WithTTL(cfg.SessionTTL))
	go manager.Run(ctx, cfg.SweepInterval)

	gameService := services.NewGameService(manager, progressService, jobs.NewWorkerQueue(resultPool, progressService))
	companionService := services.NewCompanionService(ai.NewCompanion(completer, lib), chatRepo, progressService, lib)

	srv := &api.Server{
		ProfileService:   profileService,
		GameService:      gameService,
		ProgressService:  progressService,
		CompanionService: companionService,
		DB:               database,
		CORSOrigins:      cfg.CORSOrigins,
		SecureCookies:    cfg.SecureCookies,
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("disposing %d live sessions", manager.Len())
	manager.DisposeAll()

	// Queued results are still written after the listener closes.
	log.Debug("draining result pool (%d queued)", resultPool.QueueSize())
	if err := resultPool.Stop(shutdownCtx); err != nil {
		log.Error("result pool did not drain: %v", err)
	}

	log.Info("===========================================")
	log.Info("TempleMind Server Stopped")
	log.Info("===========================================")
}
