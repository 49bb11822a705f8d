// Package alerts compares the latest metric values against configured
// thresholds.
package alerts

// Thresholds configures the alert level per monitored metric.
type Thresholds struct {
	CPUPercent     float64 `mapstructure:"cpu" yaml:"cpu" json:"cpu"`
	MemoryPct      float64 `mapstructure:"memory" yaml:"memory" json:"memory"`
	ResponseTimeMs float64 `mapstructure:"response_time_ms" yaml:"response_time_ms" json:"response_time_ms"`
	ErrorRatePct   float64 `mapstructure:"error_rate_pct" yaml:"error_rate_pct" json:"error_rate_pct"`
	SchedulerLagMs float64 `mapstructure:"scheduler_lag_ms" yaml:"scheduler_lag_ms" json:"scheduler_lag_ms"`
}

// DefaultThresholds returns the stock alert configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUPercent:     80,
		MemoryPct:      90,
		ResponseTimeMs: 500,
		ErrorRatePct:   5,
		SchedulerLagMs: 100,
	}
}

// Values carries the latest observation per monitored metric.
type Values struct {
	CPUPercent     float64
	MemoryPct      float64
	ResponseTimeMs float64
	ErrorRatePct   float64
	SchedulerLagMs float64
}

// Capabilities describes which metric categories the host environment
// provides. Request-derived metrics (response time, error rate) are
// always available.
type Capabilities struct {
	CPU          bool
	Memory       bool
	SchedulerLag bool
}

// Flags reports which metrics currently exceed their thresholds.
type Flags struct {
	CPU          bool `json:"cpu"`
	Memory       bool `json:"memory"`
	ResponseTime bool `json:"response_time"`
	ErrorRate    bool `json:"error_rate"`
	SchedulerLag bool `json:"scheduler_lag"`
}

// Evaluate raises a flag for every available metric strictly above its
// threshold. Metrics outside the capability set never raise theirs.
func Evaluate(v Values, t Thresholds, caps Capabilities) Flags {
	return Flags{
		CPU:          caps.CPU && v.CPUPercent > t.CPUPercent,
		Memory:       caps.Memory && v.MemoryPct > t.MemoryPct,
		ResponseTime: v.ResponseTimeMs > t.ResponseTimeMs,
		ErrorRate:    v.ErrorRatePct > t.ErrorRatePct,
		SchedulerLag: caps.SchedulerLag && v.SchedulerLagMs > t.SchedulerLagMs,
	}
}
