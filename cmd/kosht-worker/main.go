package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kosht/internal/ai"
	"kosht/internal/amqp"
	"kosht/internal/config"
	"kosht/internal/log"
	"kosht/internal/storage"
	"kosht/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting kosht-worker")

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
		logger.Info("AI categorization disabled - bank transactions land in OTHER")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, categorizer, cfg.SyncBatchSize, cfg.DefaultCurrency)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Consume the bank feed.
	g.Go(func() error {
		return amqpClient.ConsumeBankTransactions(ctx, func(msg *amqp.BankTransactionMessage) error {
			return syncWorker.HandleBankTransaction(ctx, msg)
		})
	})

	// Periodically retry AI categorization for rows ingested while the
	// model was unavailable.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := syncWorker.RecategorizeSweep(ctx); err != nil {
					logger.Error("Categorization sweep failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
