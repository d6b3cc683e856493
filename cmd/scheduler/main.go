package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"propertyops_backend/internal/archive"
	"propertyops_backend/internal/config"
	"propertyops_backend/internal/events"
	"propertyops_backend/internal/notification"
	"propertyops_backend/internal/runlock"
	"propertyops_backend/internal/scheduler"
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
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "schedule", cfg.RunSchedule)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	m := metrics.New(prometheus.NewRegistry())

	rules, err := config.LoadVendorRules(cfg.VendorRulesPath)
	if err != nil {
		log.Error("failed to load vendor rules", "error", err, "path", cfg.VendorRulesPath)
		panic("failed to load vendor rules: " + err.Error())
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	lock := runlock.New(redisClient, cfg.RunLockTTL)

	var classifier triage.Classifier
	if cfg.GeminiAPIKey != "" {
		geminiClassifier, err := gemini.NewClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, ruleCategories(rules), log)
		if err != nil {
			log.Error("failed to initialize gemini classifier", "error", err)
			panic("failed to initialize gemini classifier: " + err.Error())
		}
		classifier = geminiClassifier
	}

	var notifier engine.Notifier
	if cfg.EmailEnabled {
		notifier = notification.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort,
			cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFromAddress, cfg.EmailFromName)
	} else {
		notifier = notification.NewLogNotifier(log)
	}

	var archiver service.Archiver
	if cfg.ArchiveEnabled() {
		minioArchiver, err := archive.NewMinIOArchiver(cfg.S3Endpoint, cfg.S3AccessKey,
			cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
		if err != nil {
			log.Error("failed to initialize report archiver", "error", err)
			panic("failed to initialize report archiver: " + err.Error())
		}
		if err := minioArchiver.EnsureBucketExists(ctx); err != nil {
			log.Error("failed to ensure archive bucket exists", "error", err, "bucket", cfg.S3Bucket)
			panic("failed to ensure archive bucket exists: " + err.Error())
		}
		archiver = minioArchiver
	}

	workordersModule := workorders.NewModule(workorders.Deps{
		Pool:       pool,
		Config:     cfg,
		Rules:      rules,
		Validator:  validator.New(),
		Bus:        eventBus,
		Metrics:    m,
		Lock:       lock,
		Classifier: classifier,
		Notifier:   notifier,
		Archiver:   archiver,
		Logger:     log,
	})

	worker, err := scheduler.NewWorker(cfg, workordersModule.Service, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
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
		return errors.New(name + ": invalid retry attempts")
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
