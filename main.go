package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epeers/debtimport/config"
	_ "github.com/epeers/debtimport/docs"
	"github.com/epeers/debtimport/internal/fixedwidth"
	"github.com/epeers/debtimport/internal/handlers"
	"github.com/epeers/debtimport/internal/jobs"
	"github.com/epeers/debtimport/internal/lock"
	"github.com/epeers/debtimport/internal/middleware"
	"github.com/epeers/debtimport/internal/services"
	"github.com/epeers/debtimport/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Debtor Import API
// @version 1.0
// @description Imports fixed-width debtor exposure files and keeps per-debtor and per-entity totals.
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg)

	// Create context for initialization
	ctx := context.Background()

	// Initialize store backend
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer backend.Close()

	// Import lock, shared through Redis when configured
	locker, closeLock, err := lock.Open(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer closeLock()

	parser, err := fixedwidth.Load(cfg.LayoutFile, cfg.SourceEncoding)
	if err != nil {
		log.Fatalf("Failed to load line layout: %v", err)
	}

	// Initialize services
	importSvc := services.NewImportService(parser, backend.Debtors, backend.Entities, cfg.DrainConcurrency)

	// Initialize handlers
	importHandler := handlers.NewImportHandler(importSvc, locker, cfg.UploadDir)
	healthHandler := handlers.NewHealthHandler(backend.Name)

	// Inbox scanner
	inbox := jobs.NewInboxScanner(cfg.InboxDir, importSvc, locker)
	scheduler, err := inbox.Start(cfg.InboxSchedule)
	if err != nil {
		log.Fatalf("Failed to start inbox scanner: %v", err)
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/health", healthHandler.Health)
	router.POST("/import/deudores", importHandler.ImportDebtors)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s (store: %s)", cfg.Port, backend.Name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Let a scheduled scan in progress finish
	<-scheduler.Stop().Done()

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Info("Server exited")
}
