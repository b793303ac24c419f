package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/api_gateway"
	"github.com/wallet-lock-ledger/internal/api_gateway/service"
	"github.com/wallet-lock-ledger/internal/config"
	"github.com/wallet-lock-ledger/internal/data/postgres"
	"github.com/wallet-lock-ledger/internal/logger"
	"github.com/wallet-lock-ledger/internal/platform/messaging/producers"
	"github.com/wallet-lock-ledger/internal/platform/persistence"
	"github.com/wallet-lock-ledger/internal/processor"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	openingBalance, err := decimal.NewFromString(cfg.Lock.OpeningBalance)
	if err != nil {
		log.Error("Invalid opening balance", "value", cfg.Lock.OpeningBalance, "error", err)
		os.Exit(1)
	}

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for committed-transaction events
	kafkaProducer, err := producers.NewCommittedEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	walletGateway := postgres.NewWalletGateway(log, postgresDB)
	taskRepo := postgres.NewTaskRepository(log, postgresDB)
	userRepo := postgres.NewUserRepository(log, postgresDB)

	// Initialize the lock-and-commit pipeline
	compensator := processor.NewCompensator(walletGateway, taskRepo, cfg.Lock.UnlockRetryDelay, log)
	lockManager := processor.NewLockManager(walletGateway, cfg.Lock.AcquireBudget, log)
	committer := processor.NewCommitter(walletGateway, compensator, log)
	balanceReader := processor.NewBalanceReader(walletGateway, lockManager, committer, openingBalance, log)

	// Initialize services
	transactionService := service.NewTransactionService(log, userRepo, lockManager, committer, kafkaProducer)
	balanceService := service.NewBalanceService(userRepo, balanceReader)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, balanceService, transactionService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so in-flight commits drain
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
