package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"propertyops_backend/internal/archive"
	"propertyops_backend/internal/auth"
	"propertyops_backend/internal/config"
	"propertyops_backend/internal/events"
	apphttp "propertyops_backend/internal/http"
	"propertyops_backend/internal/http/router"
	"propertyops_backend/internal/notification"
	"propertyops_backend/internal/runlock"
	"propertyops_backend/internal/workorders"
	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/engine"
	"propertyops_backend/internal/workorders/service"
	"propertyops_backend/internal/workorders/triage"
	"propertyops_backend/platform/ai/gemini"
	"propertyops_backend/platform/db"
	"propertyops_backend/platform/logger"
	"propertyops_backend/platform/metrics"
	"propertyops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg.DatabaseURL, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Prometheus registry for the /metrics endpoint
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Vendor rules: file-backed when configured, built-in defaults otherwise
	rules, err := config.LoadVendorRules(cfg.VendorRulesPath)
	if err != nil {
		log.Error("failed to load vendor rules", "error", err, "path", cfg.VendorRulesPath)
		panic("failed to load vendor rules: " + err.Error())
	}
	log.Info("vendor rules loaded", "categories", rules.Len())

	// Redis-backed run lock so API, scheduler and CLI triggers cannot overlap
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	lock := runlock.New(redisClient, cfg.RunLockTTL)

	// Shared validator instance for dependency injection
	val := validator.New()

	// AI classifier; keyword-only triage when no API key is configured
	var classifier triage.Classifier
	if cfg.GeminiAPIKey != "" {
		geminiClassifier, err := gemini.NewClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, ruleCategories(rules), log)
		if err != nil {
			log.Error("failed to initialize gemini classifier", "error", err)
			panic("failed to initialize gemini classifier: " + err.Error())
		}
		classifier = geminiClassifier
		log.Info("gemini classifier initialized", "model", cfg.GeminiModel)
	} else {
		log.Warn("GEMINI_API_KEY not configured; running keyword-only triage")
	}

	// Contractor notifications: SMTP when configured, structured log otherwise
	var notifier engine.Notifier
	if cfg.EmailEnabled {
		notifier = notification.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort,
			cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFromAddress, cfg.EmailFromName)
		log.Info("smtp notifier initialized", "host", cfg.SMTPHost)
	} else {
		notifier = notification.NewLogNotifier(log)
		log.Warn("email not configured; assignment notifications go to the log")
	}

	// Run report archive (MinIO); disabled without an endpoint
	var archiver service.Archiver
	if cfg.ArchiveEnabled() {
		minioArchiver, err := archive.NewMinIOArchiver(cfg.S3Endpoint, cfg.S3AccessKey,
			cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
		if err != nil {
			log.Error("failed to initialize report archiver", "error", err)
			panic("failed to initialize report archiver: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure archive bucket", 5, 2*time.Second, func() error {
			return minioArchiver.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure archive bucket exists", "error", err, "bucket", cfg.S3Bucket)
			panic("failed to ensure archive bucket exists: " + err.Error())
		}
		archiver = minioArchiver
		log.Info("report archiver initialized", "bucket", cfg.S3Bucket)
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, cfg, val, log)

	workordersModule := workorders.NewModule(workorders.Deps{
		Pool:       pool,
		Config:     cfg,
		Rules:      rules,
		Validator:  val,
		Bus:        eventBus,
		Metrics:    m,
		Lock:       lock,
		Classifier: classifier,
		Notifier:   notifier,
		Archiver:   archiver,
		Logger:     log,
	})

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			workordersModule,
		},
	}

	ginEngine := router.New(app, metricsHandler)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- ginEngine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func ruleCategories(rules domain.RuleSet) []string {
	out := make([]string, 0, rules.Len())
	for _, rule := range rules.Rules() {
		out = append(out, string(rule.Category))
	}
	return out
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
