package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"hireflow/internal/api/routes"
	"hireflow/internal/auth"
	"hireflow/internal/background"
	"hireflow/internal/config"
	"hireflow/internal/importer"
	"hireflow/internal/llm"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting HireFlow server", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	ctx := context.Background()

	// Connect to Postgres and run migrations
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to postgres", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(cfg); err != nil {
		logger.Error("Failed to run migrations", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// Connect to Redis
	redisClient := utils.NewRedisClient(cfg)
	if err := redisClient.Ping(ctx); err != nil {
		logger.Error("Failed to connect to redis", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer redisClient.Close()

	// Start the LLM manager; the service runs degraded without it
	llmManager := llm.NewManager(cfg)
	if err := llmManager.Start(); err != nil {
		logger.Warn("LLM manager unavailable, running with fallbacks", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Background task manager for job imports
	taskManager := background.NewTaskManager(cfg)
	if err := taskManager.Start(ctx); err != nil {
		logger.Error("Failed to start task manager", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// Job importer is optional: it needs a Firecrawl key
	var imp *importer.Importer
	if cfg.Firecrawl.APIKey != "" {
		imp, err = importer.New(cfg, llmManager)
		if err != nil {
			logger.Warn("Job importer unavailable", map[string]interface{}{"error": err.Error()})
		}
	} else {
		logger.Info("Job import disabled: no Firecrawl API key configured")
	}

	e := echo.New()
	e.HideBanner = true

	routes.SetupRoutes(e, routes.Deps{
		Config:        cfg,
		Verifier:      auth.NewVerifier(cfg.Auth.JWTSecret),
		DB:            db,
		Redis:         redisClient,
		LLM:           llmManager,
		TaskManager:   taskManager,
		Importer:      imp,
		Applications:  postgres.NewApplicationRepo(db),
		Jobs:          postgres.NewJobRepo(db),
		Candidates:    postgres.NewCandidateRepo(db),
		Slots:         postgres.NewSlotRepo(db),
		Notifications: postgres.NewNotificationRepo(db),
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := taskManager.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping task manager", map[string]interface{}{"error": err.Error()})
		}
		if err := llmManager.Stop(); err != nil {
			logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
		}
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Server shutdown complete")
	}()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil {
		logger.Error("Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
