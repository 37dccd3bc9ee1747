package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnTengye/contractintel/config"
	"github.com/AnTengye/contractintel/handler"
	"github.com/AnTengye/contractintel/middleware"
	"github.com/AnTengye/contractintel/pkg/logger"
	"github.com/AnTengye/contractintel/service"
	"github.com/gin-gonic/gin"
)

const apiVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize the contract store
	store, err := service.OpenStore(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open contract store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize file storage
	files, err := newFileStore(cfg)
	if err != nil {
		slog.Error("failed to initialize file storage", "error", err)
		os.Exit(1)
	}

	// Initialize extraction clients
	ocrSvc := service.NewOCRService(&cfg.OCR)

	geminiSvc, err := service.NewGeminiService(context.Background(), &cfg.Gemini)
	if err != nil {
		slog.Error("failed to initialize gemini service", "error", err)
		os.Exit(1)
	}

	// Pipeline orchestration
	processor := service.NewProcessor(store, files, ocrSvc, geminiSvc)
	supervisor := service.NewSupervisor(processor, cfg.Pipeline.MaxConcurrent)

	contractHandler := handler.NewContractHandler(store, files, processor, supervisor, cfg.Server.MaxFileSize)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())     // Request ID for tracing
	router.Use(middleware.Recovery())      // Panic recovery
	router.Use(middleware.RequestLogger()) // Access logging
	router.Use(corsMiddleware())           // CORS

	// Service banner and health check
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Contract Intelligence Parser API",
			"version": apiVersion,
			"status":  "operational",
		})
	})
	router.GET("/health", handler.Health)

	// Contract API
	api := router.Group("/api/v1")
	contracts := api.Group("/contracts")
	{
		contracts.POST("/upload", contractHandler.Upload)
		contracts.POST("/simple-parse", contractHandler.SimpleParse)
		contracts.GET("", contractHandler.List)
		contracts.GET("/:id", contractHandler.Get)
		contracts.GET("/:id/status", contractHandler.GetStatus)
		contracts.GET("/:id/download", contractHandler.Download)
		contracts.DELETE("/:id", contractHandler.Delete)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight pipeline runs reach a terminal state
	if err := supervisor.Shutdown(ctx); err != nil {
		slog.Warn("pipeline runs still in flight at shutdown", "error", err)
	}

	slog.Info("server exited gracefully")
}

// newFileStore selects the configured storage backend.
func newFileStore(cfg *config.Config) (service.FileStore, error) {
	switch cfg.Storage.Backend {
	case "minio":
		store, err := service.NewMinioStore(&cfg.Storage.Minio)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	case "disk":
		return service.NewDiskStore(cfg.Storage.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
