package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"propertyops_backend/internal/workorders/domain"
)

type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string
	RedisAddr   string

	JWTAccessSecret string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	// Automation run settings.
	RunMode                     domain.RunMode
	AutoAssignThreshold         int
	OwnerApprovalThresholdCents int64
	EmergencyAutoAssign         bool
	NotifyOnAssignment          bool
	VendorRulesPath             string
	RunLockTTL                  time.Duration
	RunSchedule                 string

	// External work-order source; empty base URL disables the adapter.
	ExternalSourceBaseURL string
	ExternalSourceAPIKey  string

	// AI classifier; empty key runs keyword-only triage.
	GeminiAPIKey string
	GeminiModel  string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	// Report archive; empty endpoint disables archiving.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	mode, ok := domain.ParseRunMode(getEnv("RUN_MODE", string(domain.RunModeNativeOnly)))
	if !ok {
		return nil, fmt.Errorf("RUN_MODE must be one of native_only, external_only, hybrid")
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")
	smtpHost := getEnv("SMTP_HOST", "")

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),

		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:  mustDuration(getEnv("JWT_ACCESS_TTL", "15m")),
		RefreshTokenTTL: mustDuration(getEnv("JWT_REFRESH_TTL", "720h")),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		RunMode:                     mode,
		AutoAssignThreshold:         mustInt(getEnv("AUTO_ASSIGN_THRESHOLD", "70")),
		OwnerApprovalThresholdCents: mustInt64(getEnv("OWNER_APPROVAL_THRESHOLD_CENTS", "100000")),
		EmergencyAutoAssign:         strings.EqualFold(getEnv("EMERGENCY_AUTO_ASSIGN", "true"), "true"),
		NotifyOnAssignment:          strings.EqualFold(getEnv("NOTIFY_ON_ASSIGNMENT", "true"), "true"),
		VendorRulesPath:             getEnv("VENDOR_RULES_PATH", ""),
		RunLockTTL:                  mustDuration(getEnv("RUN_LOCK_TTL", "10m")),
		RunSchedule:                 getEnv("RUN_SCHEDULE", "@every 15m"),

		ExternalSourceBaseURL: getEnv("EXTERNAL_SOURCE_BASE_URL", ""),
		ExternalSourceAPIKey:  getEnv("EXTERNAL_SOURCE_API_KEY", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		EmailEnabled:     emailEnabled && smtpHost != "",
		SMTPHost:         smtpHost,
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "PropertyOps"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "automation-reports"),
		S3UseSSL:    strings.EqualFold(getEnv("S3_USE_SSL", "false"), "true"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.AutoAssignThreshold < 50 || cfg.AutoAssignThreshold > 100 {
		return nil, fmt.Errorf("AUTO_ASSIGN_THRESHOLD must be in [50,100]")
	}
	if cfg.OwnerApprovalThresholdCents <= 0 {
		return nil, fmt.Errorf("OWNER_APPROVAL_THRESHOLD_CENTS must be positive")
	}
	if (cfg.RunMode == domain.RunModeExternalOnly || cfg.RunMode == domain.RunModeHybrid) && cfg.ExternalSourceBaseURL == "" {
		return nil, fmt.Errorf("EXTERNAL_SOURCE_BASE_URL is required for run mode %s", cfg.RunMode)
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// GetJWTAccessSecret satisfies httpkit.JWTConfig.
func (c *Config) GetJWTAccessSecret() string {
	return c.JWTAccessSecret
}

func (c *Config) ExternalSourceEnabled() bool {
	return c.ExternalSourceBaseURL != ""
}

func (c *Config) ArchiveEnabled() bool {
	return c.S3Endpoint != ""
}
