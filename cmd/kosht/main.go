package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kosht/internal/ai"
	"kosht/internal/auth"
	"kosht/internal/config"
	apphttp "kosht/internal/http"
	"kosht/internal/log"
	"kosht/internal/services"
	"kosht/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting kosht")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var categorizer ai.Categorizer
	if !cfg.AIDisabled {
		gemini, err := ai.NewGeminiCategorizer(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize Gemini categorizer", "error", err)
			os.Exit(1)
		}
		categorizer = gemini
		logger.Info("Gemini categorizer initialized", "model", cfg.GeminiModel)
	} else {
		logger.Info("AI categorization disabled")
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	srv := apphttp.NewServer(":"+cfg.Port,
		services.NewBudgetService(repo),
		services.NewTransactionService(repo, categorizer, cfg.DefaultCurrency),
		services.NewUserService(repo, issuer),
		issuer)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("HTTP server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("HTTP server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
