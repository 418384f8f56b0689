package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	DeploymentMode     string
	AuthSecret         string
	AuthURL            string
	AppURL             string
	BaseURL            string
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	EncryptionKey      string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	BotProtectionKey      string
	ProtectionBypassToken string

	Locales       []string
	DefaultLocale string

	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     string
	CORSAllowedOrigins []string

	AuthRateLimitPerMin   int
	APIRateLimitPerMin    int
	RateLimitRedisEnabled bool
	RateLimitRedisPrefix  string

	SignInThrottleFreeAttempts int
	SignInThrottleBaseDelay    time.Duration
	SignInThrottleMaxDelay     time.Duration
	SignInThrottleResetWindow  time.Duration

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	SessionCacheEnabled bool
	SessionCacheTTL     time.Duration

	AvatarStorageEnabled bool
	AvatarMaxBytes       int64
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOBucket          string
	MinIOUseSSL          bool
	MinIOPublicBaseURL   string

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

// Load reads the optional dotenv file named by ENV_FILE (default .env) and
// then the process environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := LoadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	env := strings.ToLower(getEnv("APP_ENV", "development"))
	port := getEnv("HTTP_PORT", "8080")
	cfg := &Config{
		Env:                        env,
		HTTPPort:                   port,
		DatabaseURL:                os.Getenv("DATABASE_URL"),
		DeploymentMode:             strings.ToLower(getEnv("DEPLOYMENT_MODE", "selfhost")),
		AuthSecret:                 os.Getenv("AUTH_SECRET"),
		AuthURL:                    strings.TrimSpace(os.Getenv("AUTH_URL")),
		AppURL:                     strings.TrimSpace(os.Getenv("APP_URL")),
		GitHubClientID:             os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret:         os.Getenv("GITHUB_CLIENT_SECRET"),
		GoogleClientID:             os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:         os.Getenv("GOOGLE_CLIENT_SECRET"),
		EncryptionKey:              strings.TrimSpace(os.Getenv("ENCRYPTION_KEY")),
		BootstrapAdminEmail:        strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		BootstrapAdminPassword:     os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		BotProtectionKey:           os.Getenv("BOT_PROTECTION_KEY"),
		ProtectionBypassToken:      os.Getenv("PROTECTION_BYPASS_TOKEN"),
		Locales:                    splitCSV(getEnv("LOCALES", "en,zh,fr")),
		DefaultLocale:              getEnv("DEFAULT_LOCALE", "en"),
		CookieDomain:               os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:               getEnvBool("COOKIE_SECURE", !isLocalLikeEnv(env)),
		CookieSameSite:             strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		AuthRateLimitPerMin:        getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:         getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		RateLimitRedisEnabled:      getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:       getEnv("RATE_LIMIT_REDIS_PREFIX", "lmring:rl"),
		SignInThrottleFreeAttempts: getEnvInt("SIGN_IN_THROTTLE_FREE_ATTEMPTS", 5),
		RedisAddr:                  os.Getenv("REDIS_ADDR"),
		RedisPassword:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                    getEnvInt("REDIS_DB", 0),
		SessionCacheEnabled:        getEnvBool("SESSION_CACHE_ENABLED", false),
		AvatarStorageEnabled:       getEnvBool("AVATAR_STORAGE_ENABLED", false),
		AvatarMaxBytes:             int64(getEnvInt("AVATAR_MAX_BYTES", 2<<20)),
		MinIOEndpoint:              os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:             os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:             os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:                getEnv("MINIO_BUCKET", "avatars"),
		MinIOUseSSL:                getEnvBool("MINIO_USE_SSL", false),
		MinIOPublicBaseURL:         strings.TrimRight(os.Getenv("MINIO_PUBLIC_BASE_URL"), "/"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "lmring"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}
	cfg.BaseURL = resolveBaseURL(cfg.AuthURL, cfg.AppURL, port)

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"SESSION_CACHE_TTL", "5m", &cfg.SessionCacheTTL},
		{"SIGN_IN_THROTTLE_BASE_DELAY", "2s", &cfg.SignInThrottleBaseDelay},
		{"SIGN_IN_THROTTLE_MAX_DELAY", "5m", &cfg.SignInThrottleMaxDelay},
		{"SIGN_IN_THROTTLE_RESET_WINDOW", "30m", &cfg.SignInThrottleResetWindow},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "2s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks everything except the AUTH_SECRET length, which the auth
// configuration builder owns.
func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.DeploymentMode != "saas" && c.DeploymentMode != "selfhost" {
		errs = append(errs, "DEPLOYMENT_MODE must be one of saas, selfhost")
	}
	if c.AuthSecret == "" {
		errs = append(errs, "AUTH_SECRET is required")
	}
	if !isValidEncryptionKey(c.EncryptionKey) {
		errs = append(errs, "ENCRYPTION_KEY must be 64 hex characters")
	}
	if !isValidAppEnv(c.Env) {
		errs = append(errs, "APP_ENV must be one of development, test, production")
	}
	if len(c.Locales) == 0 {
		errs = append(errs, "LOCALES must list at least one locale")
	} else if !contains(c.Locales, c.DefaultLocale) {
		errs = append(errs, "DEFAULT_LOCALE must be one of LOCALES")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if (c.RateLimitRedisEnabled || c.SessionCacheEnabled) && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when redis-backed rate limiting or session cache is enabled")
	}
	if c.SessionCacheEnabled && c.SessionCacheTTL <= 0 {
		errs = append(errs, "SESSION_CACHE_TTL must be > 0")
	}
	if c.AvatarStorageEnabled {
		if c.MinIOEndpoint == "" || c.MinIOAccessKey == "" || c.MinIOSecretKey == "" || c.MinIOBucket == "" {
			errs = append(errs, "MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required when AVATAR_STORAGE_ENABLED=true")
		}
		if c.AvatarMaxBytes <= 0 {
			errs = append(errs, "AVATAR_MAX_BYTES must be > 0")
		}
	}
	switch c.CookieSameSite {
	case "lax", "strict", "none":
	default:
		errs = append(errs, "COOKIE_SAMESITE must be one of lax, strict, none")
	}
	if c.CookieSameSite == "none" && !c.CookieSecure && !isLocalLikeEnv(c.Env) {
		errs = append(errs, "COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}
	if c.IsProduction() {
		if !c.CookieSecure {
			errs = append(errs, "COOKIE_SECURE must be true in production")
		}
		if isLocalhostURL(c.BaseURL) {
			errs = append(errs, "AUTH_URL or APP_URL must point to a public host in production")
		}
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ShutdownTimeout <= 0 || c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownObservabilityTimeout <= 0 {
		errs = append(errs, "shutdown timeouts must be > 0")
	} else if c.ShutdownHTTPDrainTimeout+c.ShutdownObservabilityTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT + SHUTDOWN_OBSERVABILITY_TIMEOUT must not exceed SHUTDOWN_TIMEOUT")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// BaseURLMismatch reports an AUTH_URL that differs from APP_URL, which
// usually breaks OAuth callbacks.
func (c *Config) BaseURLMismatch() bool {
	return c.AuthURL != "" && c.AppURL != "" && strings.TrimRight(c.AuthURL, "/") != strings.TrimRight(c.AppURL, "/")
}

// LoadDotEnv loads KEY=VALUE pairs from path without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func resolveBaseURL(authURL, appURL, port string) string {
	if authURL != "" {
		return strings.TrimRight(authURL, "/")
	}
	if appURL != "" {
		return strings.TrimRight(appURL, "/")
	}
	if os.Getenv("VERCEL_ENV") == "production" {
		if v := os.Getenv("VERCEL_PROJECT_PRODUCTION_URL"); v != "" {
			return "https://" + v
		}
	}
	if v := os.Getenv("VERCEL_URL"); v != "" {
		return "https://" + v
	}
	return "http://localhost:" + port
}

func isValidEncryptionKey(v string) bool {
	if len(v) != 64 {
		return false
	}
	_, err := hex.DecodeString(v)
	return err == nil
}

func isLocalhostURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1", "":
		return true
	default:
		return false
	}
}

func isValidAppEnv(env string) bool {
	switch env {
	case "development", "test", "production":
		return true
	default:
		return false
	}
}

func isLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
