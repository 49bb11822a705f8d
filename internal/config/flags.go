package config

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags on a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a throwaway cobra command used only for parsing.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "statusmon",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Collection flags
	flags.Duration("update-interval", time.Second, "Interval between history rollover ticks")
	flags.Duration("retention", 60*time.Second, "How long time-series points are retained")
	flags.Int("max-recent-errors", 10, "Cap on the recent-error log")
	flags.Int("max-routes", 10, "Cap on ranked route lists in snapshots")
	flags.Int("sample-buffer", 1000, "Cap on the raw latency sample buffer")

	// Cluster flags
	flags.String("cluster-mode", string(ClusterModeOff), "Cluster role: off, auto, worker, or coordinator")
	flags.String("coordinator-url", "", "WebSocket URL of the coordinating process")
	flags.String("listen-addr", "", "Listen address for worker reports (coordinator role)")
	flags.String("lock-file", "", "Lock file used for coordinator auto-detection")
	flags.Duration("stale-after", 10*time.Second, "Age beyond which a worker report is evicted")

	// Observability flags
	flags.String("log-level", "info", "Log level: debug, info, warn, or error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("otlp-endpoint", "", "OTLP endpoint for trace export (empty disables tracing)")
	flags.String("otlp-protocol", "grpc", "OTLP transport: grpc or http")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling ratio between 0.0 and 1.0")
	flags.Bool("otlp-insecure", false, "Disable TLS verification for the OTLP exporter")

	// Demo workload flags
	flags.Bool("simulate", false, "Drive the monitor with a synthetic paced workload")
	flags.Int("simulate-rps", 50, "Synthetic workload request rate")
	flags.DurationP("duration", "d", 0, "How long to run before exiting (0 means until interrupted)")
}

// flagBindings maps viper keys to flag names.
var flagBindings = map[string]string{
	"update_interval":         "update-interval",
	"retention":               "retention",
	"max_recent_errors":       "max-recent-errors",
	"max_routes":              "max-routes",
	"sample_buffer":           "sample-buffer",
	"cluster.mode":            "cluster-mode",
	"cluster.coordinator_url": "coordinator-url",
	"cluster.listen_addr":     "listen-addr",
	"cluster.lock_file":       "lock-file",
	"cluster.stale_after":     "stale-after",
	"logging.level":           "log-level",
	"logging.format":          "log-format",
	"tracing.endpoint":        "otlp-endpoint",
	"tracing.protocol":        "otlp-protocol",
	"tracing.sample_rate":     "trace-sample-rate",
	"tracing.insecure":        "otlp-insecure",
	"simulate":                "simulate",
	"simulate_rps":            "simulate-rps",
	"run_duration":            "duration",
}
