package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/metabolixmd/telehealth-api/internal/api"
	"github.com/metabolixmd/telehealth-api/internal/api/middleware"
	"github.com/metabolixmd/telehealth-api/internal/config"
	"github.com/metabolixmd/telehealth-api/internal/db"
	"github.com/metabolixmd/telehealth-api/internal/idempotency"
	"github.com/metabolixmd/telehealth-api/internal/notification"
	"github.com/metabolixmd/telehealth-api/internal/observability"
	"github.com/metabolixmd/telehealth-api/internal/provider"
	"github.com/metabolixmd/telehealth-api/internal/repository"
	"github.com/metabolixmd/telehealth-api/internal/service"
	"github.com/metabolixmd/telehealth-api/internal/webhook"
	"github.com/metabolixmd/telehealth-api/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the webhook pipeline, HTTP server, and reconciliation
// worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// Redis is an optional fast path; the service runs without it.
	var redisClient redis.Cmdable
	if cfg.RedisURL != "" {
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		redisClient = client
	} else {
		logger.Info("redis not configured, idempotency uses database only")
	}

	store := repository.NewStore(pool)
	guard := idempotency.NewGuard(redisClient, store, cfg.ProcessedPaymentTTL)

	var orders provider.OrdersAPI
	if cfg.ProviderAccessToken != "" {
		orders = provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAccessToken, cfg.ProviderLookupTimeout)
	} else {
		logger.Warn("provider access token not configured, metadata resolution uses payment notes only")
	}
	resolver := service.NewMetadataResolver(orders, cfg.ProviderLookupTimeout)

	var mailer notification.Mailer
	if cfg.SMTPHost != "" {
		mailer = notification.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPFromName)
	}
	var smsSender notification.SMSSender
	if cfg.TwilioAccountSID != "" {
		smsSender = notification.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, cfg.TwilioBaseURL, nil)
	}
	notifier := service.NewNotifier(mailer, smsSender, cfg.AdminEmail, cfg.AdminPhone, cfg.NotificationTimeout)

	paymentSvc := service.NewPaymentService(store, guard, resolver, notifier)
	eventRouter := service.NewEventRouter(paymentSvc)
	verifier := webhook.NewVerifier(cfg.WebhookSignatureKey, cfg.WebhookNotificationURL, cfg.WebhookSHA256Header, cfg.WebhookSHA1Header)

	reconciliationSvc := service.NewReconciliationService(store, cfg.ReconciliationBatchSize)
	reconciliationWorker := worker.NewReconciliationWorker(reconciliationSvc).
		WithInterval(cfg.ReconciliationInterval)
	stopWorker := reconciliationWorker.Run(ctx)
	logger.Info("reconciliation worker started", zap.Duration("interval", cfg.ReconciliationInterval))

	routes := api.Routes(api.RouterConfig{
		DB:        pool,
		Redis:     redisClient,
		Store:     store,
		Verifier:  verifier,
		Router:    eventRouter,
		Logger:    logger,
		PublicRPS: cfg.PublicRateLimitRPS,
		AuthRPS:   cfg.AuthRateLimitRPS,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping reconciliation worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
