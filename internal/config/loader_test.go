package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinitkumargoel/statusmon/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	loader := config.NewLoader()
	cfg, err := loader.Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := config.Default()
	if cfg.UpdateInterval != want.UpdateInterval || cfg.Retention != want.Retention {
		t.Errorf("expected defaults, got interval %s retention %s", cfg.UpdateInterval, cfg.Retention)
	}
	if cfg.Thresholds != want.Thresholds {
		t.Errorf("expected default thresholds, got %+v", cfg.Thresholds)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	loader := config.NewLoader()
	cfg, err := loader.Load([]string{
		"--update-interval", "2s",
		"--retention", "5m",
		"--max-routes", "25",
		"--cluster-mode", "worker",
		"--coordinator-url", "ws://10.0.0.1:9180/",
		"--log-level", "debug",
		"-d", "30s",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UpdateInterval != 2*time.Second {
		t.Errorf("expected 2s interval, got %s", cfg.UpdateInterval)
	}
	if cfg.Retention != 5*time.Minute {
		t.Errorf("expected 5m retention, got %s", cfg.Retention)
	}
	if cfg.MaxRoutes != 25 {
		t.Errorf("expected 25 routes, got %d", cfg.MaxRoutes)
	}
	if cfg.Cluster.Mode != config.ClusterModeWorker {
		t.Errorf("expected worker mode, got %s", cfg.Cluster.Mode)
	}
	if cfg.Cluster.CoordinatorURL != "ws://10.0.0.1:9180/" {
		t.Errorf("unexpected coordinator url %q", cfg.Cluster.CoordinatorURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
	if cfg.RunDuration != 30*time.Second {
		t.Errorf("expected 30s run duration, got %s", cfg.RunDuration)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statusmon.yaml")
	content := []byte(`
update_interval: 3s
max_recent_errors: 50
thresholds:
  cpu: 70
  error_rate_pct: 2
cluster:
  mode: coordinator
  listen_addr: 127.0.0.1:9999
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UpdateInterval != 3*time.Second {
		t.Errorf("expected 3s interval from file, got %s", cfg.UpdateInterval)
	}
	if cfg.MaxRecentErrors != 50 {
		t.Errorf("expected 50 recent errors, got %d", cfg.MaxRecentErrors)
	}
	if cfg.Thresholds.CPUPercent != 70 {
		t.Errorf("expected cpu threshold 70, got %g", cfg.Thresholds.CPUPercent)
	}
	if cfg.Thresholds.MemoryPct != 90 {
		t.Errorf("expected untouched memory threshold 90, got %g", cfg.Thresholds.MemoryPct)
	}
	if cfg.Cluster.Mode != config.ClusterModeCoordinator || cfg.Cluster.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("unexpected cluster config %+v", cfg.Cluster)
	}
	if cfg.ConfigFile != path {
		t.Errorf("expected config path recorded, got %q", cfg.ConfigFile)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	loader := config.NewLoader()
	if _, err := loader.Load([]string{"--config", "/nonexistent/statusmon.yaml"}); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("STATUSMON_MAX_ROUTES", "77")
	t.Setenv("STATUSMON_LOGGING_FORMAT", "json")

	loader := config.NewLoader()
	cfg, err := loader.Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxRoutes != 77 {
		t.Errorf("expected env override 77, got %d", cfg.MaxRoutes)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json format from env, got %q", cfg.Logging.Format)
	}
}

func TestLoadHelp(t *testing.T) {
	loader := config.NewLoader()
	if _, err := loader.Load([]string{"--help"}); !errors.Is(err, config.ErrHelpRequested) {
		t.Errorf("expected ErrHelpRequested, got %v", err)
	}
}

func TestLoadUnknownFlag(t *testing.T) {
	loader := config.NewLoader()
	if _, err := loader.Load([]string{"--no-such-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
