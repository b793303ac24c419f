package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wallet-lock-ledger/internal/config"
	"github.com/wallet-lock-ledger/internal/data/postgres"
	"github.com/wallet-lock-ledger/internal/logger"
	"github.com/wallet-lock-ledger/internal/platform/persistence"
	"github.com/wallet-lock-ledger/internal/processor"
	"github.com/wallet-lock-ledger/internal/unlock_scheduler"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("unlock_scheduler")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Unlock Scheduler",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	walletGateway := postgres.NewWalletGateway(log, postgresDB)
	taskRepo := postgres.NewTaskRepository(log, postgresDB)

	// Initialize the compensator the poller fires tasks through
	compensator := processor.NewCompensator(walletGateway, taskRepo, cfg.Lock.UnlockRetryDelay, log)

	// Initialize the unlock task poller
	poller, err := unlock_scheduler.NewPoller(&cfg.Scheduler, taskRepo, compensator, log)
	if err != nil {
		log.Error("Failed to initialize unlock task poller", "error", err)
		os.Exit(1)
	}

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	<-quit
	log.Info("Shutdown signal received")

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("Poller stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Release the worker pool
	poller.Shutdown()

	// Shutdown postgres connection pool
	postgresDB.Close()

	log.Info("Unlock Scheduler shutdown completed successfully")
}
