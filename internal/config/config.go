package config

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string
	HTTPAddr    string

	DBDriver string
	DBDSN    string

	// IdentitySecret keys the HMACs over identity tokens and subnets.
	// Rotating it unlinks all prior vote rows.
	IdentitySecret string

	AdminUsername     string
	AdminPasswordHash string
	AdminTokenSecret  string
	AdminTokenTTL     time.Duration
	AdminAllowlist    []string

	VoteSubnetWindow time.Duration

	CORSOrigins       []string
	APIRateLimitRPM   int
	RedisAddr         string
	RateLimitFailOpen bool

	SecureCookies bool
	LogLevelName  string

	QuestionListLimit int

	ShutdownTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration
	EnableOTelHTTP            bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "debate.sqlite3"),

		IdentitySecret: os.Getenv("IDENTITY_SECRET"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminTokenSecret:  os.Getenv("ADMIN_TOKEN_SECRET"),
		AdminAllowlist:    splitCSV(os.Getenv("ADMIN_ALLOWLIST")),

		CORSOrigins: splitCSV(os.Getenv("CORS_ORIGINS")),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		SecureCookies: getEnv("APP_ENV", "development") != "development",
		LogLevelName:  getEnv("LOG_LEVEL", "info"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "debate-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", getEnv("APP_ENV", "development")),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	var err error
	if cfg.AdminTokenTTL, err = getDuration("ADMIN_TOKEN_TTL", 2*time.Hour); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.VoteSubnetWindow, err = getDuration("VOTE_SUBNET_WINDOW", 24*time.Hour); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.OTELMetricsExportInterval, err = getDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.APIRateLimitRPM, err = getInt("API_RATE_LIMIT_RPM", 120); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.QuestionListLimit, err = getInt("QUESTION_LIST_LIMIT", 50); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.RateLimitFailOpen, err = getBool("RATE_LIMIT_FAIL_OPEN", true); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.OTELMetricsEnabled, err = getBool("OTEL_METRICS_ENABLED", false); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.OTELTracesEnabled, err = getBool("OTEL_TRACES_ENABLED", false); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.OTELLogsEnabled, err = getBool("OTEL_LOGS_ENABLED", false); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.OTELExporterOTLPInsecure, err = getBool("OTEL_EXPORTER_OTLP_INSECURE", true); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	if cfg.EnableOTelHTTP, err = getBool("OTEL_HTTP_ENABLED", false); err != nil {
		return nil, recordLoadResult(cfg, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, recordLoadResult(cfg, err)
	}
	return cfg, recordLoadResult(cfg, nil)
}

// ValidationError is a config value rejected by Validate. Var names the
// environment variable the operator has to fix.
type ValidationError struct {
	Var    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate config: %s", e.Reason)
}

// ParseError is an environment variable that did not parse as its type.
type ParseError struct {
	Var string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Var, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

func (c *Config) Validate() error {
	if c.IdentitySecret == "" {
		if c.Environment != "development" {
			return &ValidationError{Var: "IDENTITY_SECRET", Reason: "IDENTITY_SECRET is required outside development"}
		}
		c.IdentitySecret = "dev-only-identity-secret"
	}
	if c.AdminTokenSecret == "" {
		if c.Environment != "development" {
			return &ValidationError{Var: "ADMIN_TOKEN_SECRET", Reason: "ADMIN_TOKEN_SECRET is required outside development"}
		}
		c.AdminTokenSecret = "dev-only-admin-token-secret"
	}
	if c.AdminPasswordHash == "" && c.Environment != "development" {
		return &ValidationError{Var: "ADMIN_PASSWORD_HASH", Reason: "ADMIN_PASSWORD_HASH is required outside development"}
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return &ValidationError{Var: "DB_DRIVER", Reason: fmt.Sprintf("unsupported DB_DRIVER %q", c.DBDriver)}
	}
	if c.VoteSubnetWindow <= 0 {
		return &ValidationError{Var: "VOTE_SUBNET_WINDOW", Reason: "VOTE_SUBNET_WINDOW must be positive"}
	}
	if c.APIRateLimitRPM <= 0 {
		return &ValidationError{Var: "API_RATE_LIMIT_RPM", Reason: "API_RATE_LIMIT_RPM must be positive"}
	}
	return nil
}

func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.LogLevelName) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func recordLoadResult(cfg *Config, err error) error {
	recordConfigLoad(context.Background(), cfg, err)
	return err
}

// LoadEnvFile loads KEY=VALUE lines into the process environment, keeping any
// variables that are already set. A missing file is a no-op.
func LoadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open env file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set env %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read env file: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ParseError{Var: key, Err: err}
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ParseError{Var: key, Err: err}
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &ParseError{Var: key, Err: err}
	}
	return b, nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
