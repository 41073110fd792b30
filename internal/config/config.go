// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// MonitoringConfig holds the thresholds and sizes of the performance and
// health monitors.
type MonitoringConfig struct {
	SlowQueryThreshold     time.Duration // SLOW_QUERY_THRESHOLD (default 1s)
	VerySlowQueryThreshold time.Duration // VERY_SLOW_QUERY_THRESHOLD (default 5s)
	QueryHistorySize       int           // QUERY_HISTORY_SIZE (default 1000)
	StatsCacheTTL          time.Duration // STATS_CACHE_TTL (default 60s)

	HealthCheckInterval time.Duration // HEALTH_CHECK_INTERVAL (default 30s)
	HealthHistorySize   int           // HEALTH_HISTORY_SIZE (default 100)
	UptimeWindow        int           // UPTIME_WINDOW (default 50)
	HealthProbeTimeout  time.Duration // HEALTH_PROBE_TIMEOUT (default 5s)

	// ReportSchedule is a cron spec for the periodic performance report.
	// Empty disables the report.
	ReportSchedule string // REPORT_SCHEDULE (default "@every 5m")
}

// OpsAuthConfig protects the operational diagnostics endpoints.
type OpsAuthConfig struct {
	JWTSecret    string // HS256 shared secret (OPS_JWT_SECRET)
	APIKey       string // static key (OPS_API_KEY)
	APIKeyHeader string // header carrying the key (default X-API-Key)
}

// Enabled returns true when at least one credential is configured.
func (o OpsAuthConfig) Enabled() bool {
	return o.JWTSecret != "" || o.APIKey != ""
}

// Config holds the configuration for the HTTP API and its database.
type Config struct {
	MetaDBPath   string // path to the SQLite donation store
	ListenAddr   string // HTTP listen address (default ":8080")
	LogLevel     string // log level: debug, info, warn, error (default "info")
	Env          string // environment: "development" (default) or "production"
	ReadPoolSize int    // read pool connections (default 4)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	Monitoring MonitoringConfig
	OpsAuth    OpsAuthConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		MetaDBPath:         "donor_analytics.sqlite",
		ListenAddr:         ":8080",
		LogLevel:           "info",
		Env:                "development",
		ReadPoolSize:       4,
		RateLimitRPS:       100,
		RateLimitBurst:     200,
		CORSAllowedOrigins: []string{"*"},
		Monitoring: MonitoringConfig{
			SlowQueryThreshold:     time.Second,
			VerySlowQueryThreshold: 5 * time.Second,
			QueryHistorySize:       1000,
			StatsCacheTTL:          time.Minute,
			HealthCheckInterval:    30 * time.Second,
			HealthHistorySize:      100,
			UptimeWindow:           50,
			HealthProbeTimeout:     5 * time.Second,
			ReportSchedule:         "@every 5m",
		},
		OpsAuth: OpsAuthConfig{APIKeyHeader: "X-API-Key"},
	}
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	m := c.Monitoring
	var errs []error
	if m.SlowQueryThreshold <= 0 {
		errs = append(errs, fmt.Errorf("SLOW_QUERY_THRESHOLD must be positive"))
	}
	if m.VerySlowQueryThreshold <= m.SlowQueryThreshold {
		errs = append(errs, fmt.Errorf("VERY_SLOW_QUERY_THRESHOLD (%s) must exceed SLOW_QUERY_THRESHOLD (%s)",
			m.VerySlowQueryThreshold, m.SlowQueryThreshold))
	}
	if m.QueryHistorySize <= 0 {
		errs = append(errs, fmt.Errorf("QUERY_HISTORY_SIZE must be positive"))
	}
	if m.StatsCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("STATS_CACHE_TTL must be positive"))
	}
	if m.HealthCheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("HEALTH_CHECK_INTERVAL must be positive"))
	}
	if m.HealthHistorySize < 2 {
		errs = append(errs, fmt.Errorf("HEALTH_HISTORY_SIZE must be at least 2 to detect transitions"))
	}
	if m.UptimeWindow <= 0 {
		errs = append(errs, fmt.Errorf("UPTIME_WINDOW must be positive"))
	} else if m.UptimeWindow > m.HealthHistorySize {
		errs = append(errs, fmt.Errorf("UPTIME_WINDOW (%d) must not exceed HEALTH_HISTORY_SIZE (%d)",
			m.UptimeWindow, m.HealthHistorySize))
	}
	if m.HealthProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HEALTH_PROBE_TIMEOUT must be positive"))
	}
	if c.ReadPoolSize <= 0 {
		errs = append(errs, fmt.Errorf("READ_POOL_SIZE must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	// Production mode: insecure defaults are fatal errors.
	if c.IsProduction() {
		if !c.OpsAuth.Enabled() {
			errs = append(errs, fmt.Errorf("OPS_JWT_SECRET or OPS_API_KEY must be set in production (ENV=production)"))
		}
		if len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
			errs = append(errs, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)"))
		}
	}
	return errors.Join(errs...)
}

// LoadFromEnv loads configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and environment variables, in increasing precedence.
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if !cfg.OpsAuth.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "ops auth is not configured: diagnostics write endpoints are open. Set OPS_JWT_SECRET or OPS_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.MetaDBPath, "META_DB_PATH")
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Env, "ENV")
	c.setInt(&c.ReadPoolSize, "READ_POOL_SIZE")

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimitRPS = f
		} else {
			c.warnInvalid("RATE_LIMIT_RPS", v)
		}
	}
	c.setInt(&c.RateLimitBurst, "RATE_LIMIT_BURST")

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}

	m := &c.Monitoring
	c.setDuration(&m.SlowQueryThreshold, "SLOW_QUERY_THRESHOLD")
	c.setDuration(&m.VerySlowQueryThreshold, "VERY_SLOW_QUERY_THRESHOLD")
	c.setInt(&m.QueryHistorySize, "QUERY_HISTORY_SIZE")
	c.setDuration(&m.StatsCacheTTL, "STATS_CACHE_TTL")
	c.setDuration(&m.HealthCheckInterval, "HEALTH_CHECK_INTERVAL")
	c.setInt(&m.HealthHistorySize, "HEALTH_HISTORY_SIZE")
	c.setInt(&m.UptimeWindow, "UPTIME_WINDOW")
	c.setDuration(&m.HealthProbeTimeout, "HEALTH_PROBE_TIMEOUT")
	if v, ok := os.LookupEnv("REPORT_SCHEDULE"); ok {
		m.ReportSchedule = strings.TrimSpace(v)
	}

	setString(&c.OpsAuth.JWTSecret, "OPS_JWT_SECRET")
	setString(&c.OpsAuth.APIKey, "OPS_API_KEY")
	setString(&c.OpsAuth.APIKeyHeader, "OPS_API_KEY_HEADER")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		c.warnInvalid(key, v)
		return
	}
	*dst = n
}

func (c *Config) setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := ParseDuration(v)
	if err != nil {
		c.warnInvalid(key, v)
		return
	}
	*dst = d
}

func (c *Config) warnInvalid(key, value string) {
	c.Warnings = append(c.Warnings, fmt.Sprintf("ignoring invalid %s=%q", key, value))
}

// ParseDuration accepts Go duration syntax ("1.5s", "250ms") or a bare
// integer number of milliseconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
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
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
