package domain

import "time"

// QueryPerformanceMetrics is one record per executed query.
type QueryPerformanceMetrics struct {
	QueryHash       string    `json:"query_hash"`
	Query           string    `json:"query"`
	ExecutionTimeMs float64   `json:"execution_time_ms"`
	Timestamp       time.Time `json:"timestamp"`
	Params          any       `json:"params,omitempty"`
	IsSlowQuery     bool      `json:"is_slow_query"`
	IsVerySlowQuery bool      `json:"is_very_slow_query"`
	Failed          bool      `json:"failed"`
}

// Percentiles holds execution-time percentiles in milliseconds.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// PerformanceStatistics is derived from the retained query history.
// Instances handed out by the performance monitor are shared and must be
// treated as read-only.
type PerformanceStatistics struct {
	TotalQueries           int         `json:"total_queries"`
	AverageExecutionTimeMs float64     `json:"average_execution_time_ms"`
	SlowQueries            int         `json:"slow_queries"`
	VerySlowQueries        int         `json:"very_slow_queries"`
	FastQueries            int         `json:"fast_queries"`
	TimeoutQueries         int         `json:"timeout_queries"`
	Percentiles            Percentiles `json:"percentiles"`
}

// PerformanceTrend summarises the queries recorded inside a time window.
type PerformanceTrend struct {
	WindowStart            time.Time `json:"window_start"`
	WindowEnd              time.Time `json:"window_end"`
	WindowMinutes          int       `json:"window_minutes"`
	QueryCount             int       `json:"query_count"`
	AverageExecutionTimeMs float64   `json:"average_execution_time_ms"`
	SlowQueryRate          float64   `json:"slow_query_rate"`
}
