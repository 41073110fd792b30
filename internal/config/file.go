package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML files. Absent keys leave the current
// value untouched.
type fileConfig struct {
	MetaDBPath         *string  `yaml:"meta_db_path"`
	ListenAddr         *string  `yaml:"listen_addr"`
	LogLevel           *string  `yaml:"log_level"`
	Env                *string  `yaml:"env"`
	ReadPoolSize       *int     `yaml:"read_pool_size"`
	RateLimitRPS       *float64 `yaml:"rate_limit_rps"`
	RateLimitBurst     *int     `yaml:"rate_limit_burst"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	Monitoring struct {
		SlowQueryThreshold     *string `yaml:"slow_query_threshold"`
		VerySlowQueryThreshold *string `yaml:"very_slow_query_threshold"`
		QueryHistorySize       *int    `yaml:"query_history_size"`
		StatsCacheTTL          *string `yaml:"stats_cache_ttl"`
		HealthCheckInterval    *string `yaml:"health_check_interval"`
		HealthHistorySize      *int    `yaml:"health_history_size"`
		UptimeWindow           *int    `yaml:"uptime_window"`
		HealthProbeTimeout     *string `yaml:"health_probe_timeout"`
		ReportSchedule         *string `yaml:"report_schedule"`
	} `yaml:"monitoring"`

	OpsAuth struct {
		JWTSecret    *string `yaml:"jwt_secret"`
		APIKey       *string `yaml:"api_key"`
		APIKeyHeader *string `yaml:"api_key_header"`
	} `yaml:"ops_auth"`
}

// ApplyFile overlays the YAML file at path onto c.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	assign(&c.MetaDBPath, fc.MetaDBPath)
	assign(&c.ListenAddr, fc.ListenAddr)
	assign(&c.LogLevel, fc.LogLevel)
	assign(&c.Env, fc.Env)
	assign(&c.ReadPoolSize, fc.ReadPoolSize)
	assign(&c.RateLimitRPS, fc.RateLimitRPS)
	assign(&c.RateLimitBurst, fc.RateLimitBurst)
	if len(fc.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = fc.CORSAllowedOrigins
	}

	m, fm := &c.Monitoring, fc.Monitoring
	durations := []struct {
		key string
		dst *time.Duration
		src *string
	}{
		{"monitoring.slow_query_threshold", &m.SlowQueryThreshold, fm.SlowQueryThreshold},
		{"monitoring.very_slow_query_threshold", &m.VerySlowQueryThreshold, fm.VerySlowQueryThreshold},
		{"monitoring.stats_cache_ttl", &m.StatsCacheTTL, fm.StatsCacheTTL},
		{"monitoring.health_check_interval", &m.HealthCheckInterval, fm.HealthCheckInterval},
		{"monitoring.health_probe_timeout", &m.HealthProbeTimeout, fm.HealthProbeTimeout},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.key, err)
		}
		*d.dst = v
	}
	assign(&m.QueryHistorySize, fm.QueryHistorySize)
	assign(&m.HealthHistorySize, fm.HealthHistorySize)
	assign(&m.UptimeWindow, fm.UptimeWindow)
	assign(&m.ReportSchedule, fm.ReportSchedule)

	assign(&c.OpsAuth.JWTSecret, fc.OpsAuth.JWTSecret)
	assign(&c.OpsAuth.APIKey, fc.OpsAuth.APIKey)
	assign(&c.OpsAuth.APIKeyHeader, fc.OpsAuth.APIKeyHeader)
	return nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
