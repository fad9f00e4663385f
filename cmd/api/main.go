package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/casebridge/intake-platform/internal/api/router"
	"github.com/casebridge/intake-platform/internal/casefile"
	"github.com/casebridge/intake-platform/internal/channels/whatsapp"
	appconfig "github.com/casebridge/intake-platform/internal/config"
	"github.com/casebridge/intake-platform/internal/events"
	"github.com/casebridge/intake-platform/internal/intake"
	"github.com/casebridge/intake-platform/internal/intake/session"
	"github.com/casebridge/intake-platform/internal/language"
	"github.com/casebridge/intake-platform/internal/notify"
	"github.com/casebridge/intake-platform/internal/observability/metrics"
	"github.com/casebridge/intake-platform/internal/records"
	"github.com/casebridge/intake-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intake-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	intakeMetrics := metrics.NewIntakeMetrics(nil)

	// Session store: Redis for multi-instance deployments, in-memory
	// otherwise.
	var sessions session.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(client, cfg.SessionTTL, otel.Tracer("intake.session"))
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		sessions = session.NewMemoryStore(session.WithMemoryTTL(cfg.SessionTTL))
		logger.Warn("using in-memory session store, sessions are lost on restart")
	}

	// Dedup index and conversation records: Postgres when configured,
	// process-local fallbacks otherwise.
	var processed intake.DedupStore
	var recorder intake.MessageRecorder
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		processed = events.NewProcessedStore(pool)

		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		recorder = records.NewConversationStore(db)
		logger.Info("using postgres for dedup and conversation records")
	} else {
		processed = events.NewMemoryProcessedStore()
		logger.Warn("using in-memory dedup index, duplicates may reprocess after restart")
	}

	// Language detection cascade.
	detectorOpts := []language.DetectorOption{
		language.WithThreshold(cfg.ConfidenceThreshold),
	}
	if cfg.ClassifierEnabled && cfg.GeminiAPIKey != "" {
		classifier, err := language.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini classifier", "error", err)
			os.Exit(1)
		}
		defer classifier.Close()
		detectorOpts = append(detectorOpts,
			language.WithClassifier(classifier),
			language.WithClassifierTimeout(cfg.ClassifierTimeout),
		)
		logger.Info("language classifier enabled", "model", cfg.GeminiModelID)
	}
	detector := language.NewDetector(cfg.SupportedLanguages, logger, detectorOpts...)

	// Outbound channel client.
	dispatcher := whatsapp.NewClient(whatsapp.ClientConfig{
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		BaseURL:       cfg.WhatsAppAPIBaseURL,
		MaxAttempts:   cfg.SendRetryMaxAttempts,
		Logger:        logger,
	})

	// Case backend.
	var cases intake.CaseSubmitter
	if cfg.CaseBackendURL != "" {
		cases = casefile.NewClient(cfg.CaseBackendURL, cfg.CaseBackendToken)
	} else {
		cases = casefile.NewLogSubmitter(logger)
		logger.Warn("no case backend configured, submissions are logged locally")
	}

	// Operator alerts.
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	notifier := notify.NewOperatorAlerter(emailSender, cfg.OperatorEmail, logger)

	engine, err := intake.NewEngine(intake.EngineConfig{
		Sessions:   sessions,
		Detector:   detector,
		Dispatcher: dispatcher,
		Cases:      cases,
		Notifier:   notifier,
		Logger:     logger,
		SessionTTL: cfg.SessionTTL,
		RecapMax:   cfg.DescriptionRecapMax,
	})
	if err != nil {
		logger.Error("failed to create dialogue engine", "error", err)
		os.Exit(1)
	}

	processor := intake.NewProcessor(intake.ProcessorConfig{
		Engine:    engine,
		Processed: processed,
		Recorder:  recorder,
		Metrics:   intakeMetrics,
		Logger:    logger,
	})

	webhook := whatsapp.NewWebhookHandler(whatsapp.WebhookConfig{
		VerifyToken: cfg.WhatsAppVerifyToken,
		AppSecret:   cfg.WhatsAppAppSecret,
		Processor:   processor,
		Logger:      logger,
		Metrics:     intakeMetrics,
	})

	r := router.New(&router.Config{
		Logger:          logger,
		WhatsAppWebhook: webhook,
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
