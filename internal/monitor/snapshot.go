package monitor

import (
	"context"

	"github.com/vinitkumargoel/statusmon/internal/alerts"
	"github.com/vinitkumargoel/statusmon/internal/percentile"
	"github.com/vinitkumargoel/statusmon/internal/routestats"
)

// ProbeResult is the outcome of an injected health probe.
type ProbeResult struct {
	Connected bool   `json:"connected"`
	Name      string `json:"name,omitempty"`
}

// Probe asynchronously checks an external dependency, e.g. a database.
type Probe func(ctx context.Context) (ProbeResult, error)

// AlwaysConnected is the default probe: connected, zero latency.
func AlwaysConnected(context.Context) (ProbeResult, error) {
	return ProbeResult{Connected: true}, nil
}

// Health is a probe outcome paired with its measured latency.
type Health struct {
	Connected bool    `json:"connected"`
	LatencyMs float64 `json:"latency_ms"`
	Name      string  `json:"name,omitempty"`
}

// RateLimitStats counts rate-limiter decisions.
type RateLimitStats struct {
	Total   int64 `json:"total"`
	Blocked int64 `json:"blocked"`
}

// WorkerInfo describes one reporting process inside an aggregated snapshot.
type WorkerInfo struct {
	WorkerID       string  `json:"worker_id"`
	PID            int     `json:"pid"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryMB       float64 `json:"memory_mb"`
	RequestsPerSec float64 `json:"requests_per_sec"`
	TotalRequests  int64   `json:"total_requests"`
	ResponseTimeMs float64 `json:"response_time_ms"`
}

// Snapshot is one immutable point-in-time composite of all tracked
// metrics.
type Snapshot struct {
	TimestampMs       int64            `json:"timestamp_ms"`
	UptimeSec         float64          `json:"uptime_sec"`
	TotalRequests     int64            `json:"total_requests"`
	ActiveConnections int64            `json:"active_connections"`
	RequestsPerSec    float64          `json:"requests_per_sec"`
	CPUPercent        float64          `json:"cpu_percent"`
	MemoryMB          float64          `json:"memory_mb"`
	MemoryPct         float64          `json:"memory_pct"`
	ResponseTimeMs    float64          `json:"response_time_ms"`
	ErrorRatePct      float64          `json:"error_rate_pct"`
	SchedulerLagMs    float64          `json:"scheduler_lag_ms"`
	StatusCodes       map[string]int64 `json:"status_codes"`
	RateLimit         RateLimitStats   `json:"rate_limit"`
	Percentiles       percentile.Set   `json:"percentiles"`

	TopRoutes     []routestats.RouteStats `json:"top_routes"`
	SlowestRoutes []routestats.RouteStats `json:"slowest_routes"`
	ErrorRoutes   []routestats.RouteStats `json:"error_routes"`
	RecentErrors  []routestats.ErrorEntry `json:"recent_errors"`

	Alerts alerts.Flags `json:"alerts"`
	Health Health       `json:"health"`

	// Filled by the cluster aggregator on the coordinating process.
	Workers     []WorkerInfo `json:"workers,omitempty"`
	WorkerCount int          `json:"worker_count"`
}
