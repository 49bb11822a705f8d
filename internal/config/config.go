package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vinitkumargoel/statusmon/internal/alerts"
)

// ClusterMode selects how the process participates in a multi-process
// deployment.
type ClusterMode string

const (
	ClusterModeOff         ClusterMode = "off"
	ClusterModeAuto        ClusterMode = "auto"
	ClusterModeWorker      ClusterMode = "worker"
	ClusterModeCoordinator ClusterMode = "coordinator"
)

// Config is the full configuration surface of the monitor.
type Config struct {
	UpdateInterval  time.Duration     `mapstructure:"update_interval" yaml:"update_interval"`
	Retention       time.Duration     `mapstructure:"retention" yaml:"retention"`
	MaxRecentErrors int               `mapstructure:"max_recent_errors" yaml:"max_recent_errors"`
	MaxRoutes       int               `mapstructure:"max_routes" yaml:"max_routes"`
	SampleBuffer    int               `mapstructure:"sample_buffer" yaml:"sample_buffer"`
	Thresholds      alerts.Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
	Cluster         ClusterConfig     `mapstructure:"cluster" yaml:"cluster"`
	Tracing         TracingConfig     `mapstructure:"tracing" yaml:"tracing"`
	Logging         LogConfig         `mapstructure:"logging" yaml:"logging"`

	// Demo workload knobs for the CLI.
	Simulate    bool          `mapstructure:"simulate" yaml:"simulate"`
	SimulateRPS int           `mapstructure:"simulate_rps" yaml:"simulate_rps"`
	RunDuration time.Duration `mapstructure:"run_duration" yaml:"run_duration"`

	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// ClusterConfig wires cross-process reporting.
type ClusterConfig struct {
	Mode           ClusterMode   `mapstructure:"mode" yaml:"mode"`
	CoordinatorURL string        `mapstructure:"coordinator_url" yaml:"coordinator_url"`
	ListenAddr     string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	LockFile       string        `mapstructure:"lock_file" yaml:"lock_file"`
	StaleAfter     time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
}

// TracingConfig configures the optional OTLP trace exporter.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Protocol    string  `mapstructure:"protocol" yaml:"protocol"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
}

// Enabled reports whether an exporter endpoint is configured.
func (t TracingConfig) Enabled() bool {
	return t.Endpoint != ""
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		UpdateInterval:  time.Second,
		Retention:       60 * time.Second,
		MaxRecentErrors: 10,
		MaxRoutes:       10,
		SampleBuffer:    1000,
		Thresholds:      alerts.DefaultThresholds(),
		Cluster: ClusterConfig{
			Mode:       ClusterModeOff,
			StaleAfter: 10 * time.Second,
		},
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SimulateRPS: 50,
	}
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.UpdateInterval, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.Retention, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxRecentErrors, validation.Min(1)),
		validation.Field(&c.MaxRoutes, validation.Min(1)),
		validation.Field(&c.SampleBuffer, validation.Min(2)),
		validation.Field(&c.SimulateRPS, validation.Min(0)),
		validation.Field(&c.Cluster),
		validation.Field(&c.Tracing),
		validation.Field(&c.Logging),
	)
}

// Validate checks cluster wiring for the selected mode.
func (c ClusterConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Mode, validation.In(
			ClusterModeOff, ClusterModeAuto, ClusterModeWorker, ClusterModeCoordinator,
		)),
		validation.Field(&c.CoordinatorURL,
			validation.Required.When(c.Mode == ClusterModeWorker).Error("coordinator_url is required in worker mode"),
		),
		validation.Field(&c.ListenAddr,
			validation.Required.When(c.Mode == ClusterModeCoordinator).Error("listen_addr is required in coordinator mode"),
		),
		validation.Field(&c.StaleAfter, validation.Min(time.Second)),
	)
}

// Validate checks exporter settings.
func (t TracingConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Protocol, validation.In("", "grpc", "http")),
		validation.Field(&t.SampleRate, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Validate checks logger settings.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("", "debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("", "text", "json")),
	)
}
