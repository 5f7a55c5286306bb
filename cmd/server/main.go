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

	"github.com/joho/godotenv"

	"github.com/altabank/ledger-service/internal/analytics"
	"github.com/altabank/ledger-service/internal/auth"
	"github.com/altabank/ledger-service/internal/config"
	"github.com/altabank/ledger-service/internal/db"
	"github.com/altabank/ledger-service/internal/domain"
	"github.com/altabank/ledger-service/internal/events"
	"github.com/altabank/ledger-service/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}
	cfg := config.Load()

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Println("database connection pool initialized")

	accountRepo := db.NewAccountRepository(pool.Pool)
	transactionRepo := db.NewTransactionRepository(pool.Pool)
	transferRepo := db.NewTransferRepository(pool.Pool)
	userRepo := db.NewUserRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool)

	// The event publisher and analytics mirror are optional; the postgres
	// ledger is the source of truth either way.
	var publisher domain.EventPublisher
	var operations server.OperationLister
	shutdownAnalytics := func() {}
	if cfg.AnalyticsEnabled {
		rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			log.Fatalf("failed to create event publisher: %v", err)
		}
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher

		clickhouseClient, err := analytics.NewClickHouseClient(cfg.ClickHouse)
		if err != nil {
			log.Fatalf("failed to initialize ClickHouse client: %v", err)
		}
		defer clickhouseClient.Close()
		if err := clickhouseClient.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate ClickHouse schema: %v", err)
		}

		operationRepo := analytics.NewOperationRepository(clickhouseClient)
		operations = analytics.NewService(operationRepo)

		consumer, err := analytics.NewRabbitMQConsumer(cfg.RabbitMQ, operationRepo)
		if err != nil {
			log.Fatalf("failed to create RabbitMQ consumer: %v", err)
		}
		defer consumer.Close()

		consumerCtx, cancelConsumer := context.WithCancel(ctx)
		shutdownAnalytics = cancelConsumer
		go func() {
			if err := consumer.Start(consumerCtx); err != nil {
				log.Printf("RabbitMQ consumer error: %v", err)
			}
		}()
		log.Println("analytics mirror initialized")
	}

	ledgerService := domain.NewLedgerService(accountRepo, transactionRepo, transferRepo, txManager, publisher)
	ledgerService.SetOperationTimeout(cfg.OperationTimeout)
	reportService := domain.NewReportService(transactionRepo, cfg.CurrencyCode)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager([]byte(cfg.JWT.Secret), cfg.JWT.TTL)
	userService := domain.NewUserService(userRepo, accountRepo, txManager, hasher, tokens, cfg.CurrencyCode)
	log.Println("domain services initialized")

	handler := server.NewHandler(ledgerService, reportService, userService, operations, cfg.CurrencyCode, cfg.JWT.TTL)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(handler, tokens),
	}

	go func() {
		log.Printf("ledger-service HTTP server starting on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	shutdownAnalytics()
	log.Println("HTTP server stopped")
}
