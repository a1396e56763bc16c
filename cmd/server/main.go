package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeatpanorama/vision-flow/internal/api"
	"github.com/codeatpanorama/vision-flow/internal/app"
	"github.com/codeatpanorama/vision-flow/internal/config"
	"github.com/codeatpanorama/vision-flow/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := app.SetupLogging(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	if !cfg.Log.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Printf("Starting check pipeline worker (category: %s, poll interval: %s, llm: %s)",
		cfg.Worker.DocumentCategory, cfg.Worker.PollInterval, cfg.LLM.Provider)

	pipeline, err := app.NewPipeline(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}
	defer pipeline.Close()

	scheduler, err := services.NewPollScheduler(pipeline.Orchestrator, cfg.Worker.PollInterval)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	scheduler.Start()

	var srv *http.Server
	if cfg.Server.Enabled {
		handlers := api.NewHandlers(pipeline.Mongo, pipeline.Images, cfg.Worker.DocumentCategory)
		router := api.SetupRoutes(handlers)

		srv = &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("Server starting on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
	} else {
		log.Printf("API_ENABLED=false, status API disabled")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received %s, shutting down", sig)

	// Waits for the task in flight
	scheduler.Stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] Server shutdown failed: %v", err)
		}
	}

	log.Printf("Shutdown complete")
}
