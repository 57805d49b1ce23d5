package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/creamline/lendcore/internal/borrower"
	"github.com/creamline/lendcore/internal/config"
	"github.com/creamline/lendcore/internal/credit"
	"github.com/creamline/lendcore/internal/kyc"
	"github.com/creamline/lendcore/internal/loanstore"
	"github.com/creamline/lendcore/internal/portfolio"
	"github.com/creamline/lendcore/internal/risk"
	"github.com/creamline/lendcore/internal/server"
	"github.com/creamline/lendcore/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// The store is the single canonical holder; every engine below derives
	// from its emissions.
	store := loanstore.NewStore(zapLogger, loanstore.Config{
		LoansPerBorrower:      cfg.Engine.LoansPerBorrower,
		SeedSource:            cfg.Engine.SeedSource,
		DelinquencyCutoffDays: cfg.Engine.DelinquencyCutoffDays,
	})

	aggregator := portfolio.NewAggregator(zapLogger)
	riskEngine := risk.NewEngine(zapLogger)
	creditEngine := credit.NewEngine(zapLogger)
	workflow := kyc.NewWorkflow(zapLogger)
	projector := borrower.NewProjector(zapLogger)

	// Subscription order is delivery order on every emission
	store.Subscribe(aggregator.OnSnapshot)
	store.Subscribe(riskEngine.OnSnapshot)
	store.Subscribe(creditEngine.OnSnapshot)
	store.Subscribe(workflow.OnSnapshot)

	apiServer := server.NewServer(zapLogger, store, aggregator, riskEngine, creditEngine, workflow, projector)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiServer.Router(),
	}

	go func() {
		zapLogger.Info("Starting API server", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("Server exited properly")
}
