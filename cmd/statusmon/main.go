package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vinitkumargoel/statusmon/internal/cluster"
	"github.com/vinitkumargoel/statusmon/internal/config"
	"github.com/vinitkumargoel/statusmon/internal/logging"
	"github.com/vinitkumargoel/statusmon/internal/monitor"
	"github.com/vinitkumargoel/statusmon/internal/tracing"
	"github.com/vinitkumargoel/statusmon/internal/transport"
)

const (
	snapshotEvery      = 10 * time.Second
	defaultListenAddr  = "127.0.0.1:9180"
	defaultCoordinator = "ws://127.0.0.1:9180/"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 && args[0] == "config" {
		return printConfig(args[1:])
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if cfg.RunDuration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.RunDuration)
		defer cancel()
	}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	m := monitor.New(*cfg,
		monitor.WithLogger(logger),
		monitor.WithTracer(provider.Tracer()),
	)
	m.Start()
	defer m.Stop()

	agg, cleanup, err := wireCluster(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Simulate {
		go simulate(ctx, m, cfg.SimulateRPS)
	}

	enc := json.NewEncoder(os.Stdout)
	ticker := time.NewTicker(snapshotEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return enc.Encode(currentSnapshot(context.Background(), m, agg))
		case <-ticker.C:
			if err := enc.Encode(currentSnapshot(ctx, m, agg)); err != nil {
				return err
			}
		}
	}
}

func currentSnapshot(ctx context.Context, m *monitor.Monitor, agg *cluster.Aggregator) monitor.Snapshot {
	snap := m.Snapshot(ctx)
	if agg != nil {
		snap = agg.AggregatedSnapshot(snap)
	}
	return snap
}

// wireCluster resolves the cluster role and connects the process to the
// rest of the deployment. The returned cleanup is always safe to call.
func wireCluster(ctx context.Context, cfg *config.Config, m *monitor.Monitor, logger *slog.Logger) (*cluster.Aggregator, func(), error) {
	mode := cfg.Cluster.Mode
	cleanup := func() {}

	if mode == config.ClusterModeOff {
		return nil, cleanup, nil
	}

	if mode == config.ClusterModeAuto {
		role, lk, err := cluster.DetectRole(cfg.Cluster.LockFile)
		if err != nil {
			return nil, cleanup, err
		}
		if role == cluster.RoleCoordinator {
			mode = config.ClusterModeCoordinator
			cleanup = func() { _ = lk.Unlock() }
		} else {
			mode = config.ClusterModeWorker
		}
		logger.Info("cluster role resolved", "role", string(role))
	}

	switch mode {
	case config.ClusterModeCoordinator:
		agg := cluster.NewAggregator(cfg.Cluster.StaleAfter, cfg.MaxRoutes, cluster.WithLogger(logger))
		listener := transport.NewListener(agg.HandleFrame, logger)
		addr := cfg.Cluster.ListenAddr
		if addr == "" {
			addr = defaultListenAddr
		}
		if err := listener.Start(addr); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		prev := cleanup
		return agg, func() { _ = listener.Close(); prev() }, nil

	case config.ClusterModeWorker:
		url := cfg.Cluster.CoordinatorURL
		if url == "" {
			url = defaultCoordinator
		}
		client := transport.NewClient(url, logger)
		reporter := cluster.NewReporter(m, client, cfg.UpdateInterval, cluster.WithReporterLogger(logger))
		reporter.Start(ctx)
		prev := cleanup
		return nil, func() {
			reporter.Stop()
			_ = client.Close()
			prev()
		}, nil
	}

	return nil, cleanup, nil
}

func printConfig(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
