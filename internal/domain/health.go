package domain

import "time"

// PoolSnapshot is an observed view of the driver-owned connection pool.
type PoolSnapshot struct {
	Size      int `json:"size"`
	Available int `json:"available"`
	Used      int `json:"used"`
	Pending   int `json:"pending"`
}

// HealthCheckResult is the outcome of a single connectivity probe.
type HealthCheckResult struct {
	Timestamp time.Time    `json:"timestamp"`
	Healthy   bool         `json:"healthy"`
	Pool      PoolSnapshot `json:"pool"`
	LatencyMs float64      `json:"latency_ms"`
	Error     string       `json:"error,omitempty"`
}

// QueryCounters are the health monitor's coarse query totals.
type QueryCounters struct {
	TotalQueries  int64   `json:"total_queries"`
	TotalTimeMs   float64 `json:"total_time_ms"`
	SlowQueries   int64   `json:"slow_queries"`
	AverageTimeMs float64 `json:"average_time_ms"`
}

// UptimeStatus reports process uptime and recent probe availability.
type UptimeStatus struct {
	StartedAt         time.Time          `json:"started_at"`
	Uptime            string             `json:"uptime"`
	UptimeSeconds     int64              `json:"uptime_seconds"`
	Hours             int64              `json:"hours"`
	Minutes           int64              `json:"minutes"`
	Seconds           int64              `json:"seconds"`
	HealthyPercentage float64            `json:"healthy_percentage"`
	ChecksConsidered  int                `json:"checks_considered"`
	Monitoring        bool               `json:"monitoring"`
	LastCheck         *HealthCheckResult `json:"last_check,omitempty"`
	Queries           QueryCounters      `json:"queries"`
}
