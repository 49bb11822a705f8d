package config_test

import (
	"testing"
	"time"

	"github.com/vinitkumargoel/statusmon/internal/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	if cfg.UpdateInterval != time.Second {
		t.Errorf("expected 1s update interval, got %s", cfg.UpdateInterval)
	}
	if cfg.Retention != 60*time.Second {
		t.Errorf("expected 60s retention, got %s", cfg.Retention)
	}
	if cfg.MaxRecentErrors != 10 || cfg.MaxRoutes != 10 {
		t.Errorf("expected caps of 10, got %d and %d", cfg.MaxRecentErrors, cfg.MaxRoutes)
	}
	if cfg.SampleBuffer != 1000 {
		t.Errorf("expected sample buffer 1000, got %d", cfg.SampleBuffer)
	}
	if cfg.Cluster.Mode != config.ClusterModeOff {
		t.Errorf("expected cluster off by default, got %s", cfg.Cluster.Mode)
	}
	if cfg.Cluster.StaleAfter != 10*time.Second {
		t.Errorf("expected 10s stale window, got %s", cfg.Cluster.StaleAfter)
	}
	if cfg.Tracing.Enabled() {
		t.Error("tracing must be disabled by default")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero update interval", func(c *config.Config) { c.UpdateInterval = 0 }},
		{"sub-10ms update interval", func(c *config.Config) { c.UpdateInterval = time.Millisecond }},
		{"sub-second retention", func(c *config.Config) { c.Retention = 500 * time.Millisecond }},
		{"zero max routes", func(c *config.Config) { c.MaxRoutes = 0 }},
		{"one-sample buffer", func(c *config.Config) { c.SampleBuffer = 1 }},
		{"unknown cluster mode", func(c *config.Config) { c.Cluster.Mode = "sidecar" }},
		{"worker without coordinator", func(c *config.Config) { c.Cluster.Mode = config.ClusterModeWorker }},
		{"coordinator without listen addr", func(c *config.Config) { c.Cluster.Mode = config.ClusterModeCoordinator }},
		{"bad tracing protocol", func(c *config.Config) { c.Tracing.Protocol = "udp" }},
		{"sample rate above one", func(c *config.Config) { c.Tracing.SampleRate = 1.5 }},
		{"unknown log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateAcceptsClusterRoles(t *testing.T) {
	cfg := config.Default()
	cfg.Cluster.Mode = config.ClusterModeWorker
	cfg.Cluster.CoordinatorURL = "ws://127.0.0.1:9180/"
	if err := cfg.Validate(); err != nil {
		t.Errorf("worker config must validate: %v", err)
	}

	cfg = config.Default()
	cfg.Cluster.Mode = config.ClusterModeCoordinator
	cfg.Cluster.ListenAddr = "127.0.0.1:9180"
	if err := cfg.Validate(); err != nil {
		t.Errorf("coordinator config must validate: %v", err)
	}
}
