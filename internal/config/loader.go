package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader resolves configuration from flags, environment, and config files.
// Precedence: explicit flags, then environment (STATUSMON_*), then the
// config file, then defaults.
type Loader struct{}

// ErrHelpRequested is returned when the user asks for usage information.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration sources into a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			_ = cmd.Help()
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			_ = cmd.Help()
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STATUSMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	for key, flagName := range flagBindings {
		if err := v.BindPFlag(key, flagSet.Lookup(flagName)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = configPath

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("update_interval", defaults.UpdateInterval)
	v.SetDefault("retention", defaults.Retention)
	v.SetDefault("max_recent_errors", defaults.MaxRecentErrors)
	v.SetDefault("max_routes", defaults.MaxRoutes)
	v.SetDefault("sample_buffer", defaults.SampleBuffer)
	v.SetDefault("thresholds.cpu", defaults.Thresholds.CPUPercent)
	v.SetDefault("thresholds.memory", defaults.Thresholds.MemoryPct)
	v.SetDefault("thresholds.response_time_ms", defaults.Thresholds.ResponseTimeMs)
	v.SetDefault("thresholds.error_rate_pct", defaults.Thresholds.ErrorRatePct)
	v.SetDefault("thresholds.scheduler_lag_ms", defaults.Thresholds.SchedulerLagMs)
	v.SetDefault("cluster.mode", string(defaults.Cluster.Mode))
	v.SetDefault("cluster.stale_after", defaults.Cluster.StaleAfter)
	v.SetDefault("tracing.protocol", defaults.Tracing.Protocol)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("simulate_rps", defaults.SimulateRPS)
}
