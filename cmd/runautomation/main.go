// Command runautomation triggers a single automation run from the command
// line and prints the run summary. Useful for operators and cron-less setups.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"propertyops_backend/internal/archive"
	"propertyops_backend/internal/config"
	"propertyops_backend/internal/events"
	"propertyops_backend/internal/notification"
	"propertyops_backend/internal/runlock"
	"propertyops_backend/internal/workorders"
	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/engine"
	"propertyops_backend/internal/workorders/service"
	"propertyops_backend/internal/workorders/transport"
	"propertyops_backend/internal/workorders/triage"
	"propertyops_backend/platform/ai/gemini"
	"propertyops_backend/platform/db"
	"propertyops_backend/platform/logger"
	"propertyops_backend/platform/metrics"
	"propertyops_backend/platform/validator"
)

func main() {
	mode := flag.String("mode", "", "run mode override: native_only, external_only or hybrid")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect to database:", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	rules, err := config.LoadVendorRules(cfg.VendorRulesPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load vendor rules:", err)
		os.Exit(1)
	}

	var classifier triage.Classifier
	if cfg.GeminiAPIKey != "" {
		geminiClassifier, err := gemini.NewClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, ruleCategories(rules), log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to initialize gemini classifier:", err)
			os.Exit(1)
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
			fmt.Fprintln(os.Stderr, "failed to initialize report archiver:", err)
			os.Exit(1)
		}
		if err := minioArchiver.EnsureBucketExists(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "failed to ensure archive bucket exists:", err)
			os.Exit(1)
		}
		archiver = minioArchiver
	}

	workordersModule := workorders.NewModule(workorders.Deps{
		Pool:       pool,
		Config:     cfg,
		Rules:      rules,
		Validator:  validator.New(),
		Bus:        events.NewInMemoryBus(log),
		Metrics:    metrics.New(prometheus.NewRegistry()),
		Lock:       runlock.New(redisClient, cfg.RunLockTTL),
		Classifier: classifier,
		Notifier:   notifier,
		Archiver:   archiver,
		Logger:     log,
	})

	report, err := workordersModule.Service.TriggerRun(ctx, transport.TriggerRunRequest{Mode: *mode})
	if err != nil {
		fmt.Fprintln(os.Stderr, "automation run failed:", err)
		os.Exit(1)
	}

	fmt.Println(report.Summary)
}

func ruleCategories(rules domain.RuleSet) []string {
	out := make([]string, 0, rules.Len())
	for _, rule := range rules.Rules() {
		out = append(out, string(rule.Category))
	}
	return out
}
