package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/bank-ledger/internal/config"
	"github.com/Dan9191/bank-ledger/internal/events"
	"github.com/Dan9191/bank-ledger/internal/handler"
	"github.com/Dan9191/bank-ledger/internal/integrations/cbr"
	"github.com/Dan9191/bank-ledger/internal/integrations/score"
	"github.com/Dan9191/bank-ledger/internal/middleware"
	"github.com/Dan9191/bank-ledger/internal/repository"
	"github.com/Dan9191/bank-ledger/internal/scheduler"
	"github.com/Dan9191/bank-ledger/internal/service"
	"github.com/Dan9191/bank-ledger/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open %s storage: %v", cfg.Storage, err)
	}
	defer closeStore()

	// Initialize layers
	svc := service.NewService(store, scoreGate(cfg), logger, cfg)
	if cfg.LoanRateSource == config.RateSourceCBR {
		svc.SetRateSource(cbr.NewCBRClient(cfg.CBRURL, logger))
	}

	var reminders *scheduler.Reminders
	if cfg.SMTPHost != "" {
		sender := email.NewSender(cfg, logger)
		svc.AddNotifier(sender)
		reminders = scheduler.NewReminders(store, sender, cfg.ReminderDaysAhead, logger)
		if err := reminders.Start(cfg.ReminderCron); err != nil {
			logger.Fatalf("Failed to start reminders: %v", err)
		}
	} else {
		logger.Warn("SMTP_HOST is not set, email notifications and reminders are disabled")
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := events.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		svc.AddNotifier(publisher)
	}

	h := handler.NewHandler(svc, logger)
	router := h.Router(middleware.AuthMiddleware(svc, logger))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if reminders != nil {
		<-reminders.Stop().Done()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewKVStore(repository.NewMemoryKV()), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := repository.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

func scoreGate(cfg *config.Config) score.Gate {
	if cfg.ScoreGate == config.ScoreGateFixed {
		return score.FixedGate{Score: cfg.ScoreFixedValue}
	}
	return score.NewRandomGate()
}
