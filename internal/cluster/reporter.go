package cluster

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vinitkumargoel/statusmon/internal/history"
	"github.com/vinitkumargoel/statusmon/internal/monitor"
)

// Source provides the local telemetry a worker reports upstream.
type Source interface {
	Snapshot(ctx context.Context) monitor.Snapshot
	Charts() history.ChartBundle
}

// Sender delivers one encoded frame to the coordinating process.
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

// Reporter periodically sends worker-metrics messages over a Sender.
// Delivery is fire-and-forget: a failed send is dropped without retry or
// backpressure.
type Reporter struct {
	workerID string
	pid      int
	source   Source
	sender   Sender
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// ReporterOption customizes a Reporter.
type ReporterOption func(*Reporter)

// WithReporterLogger injects the process logger.
func WithReporterLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l.With("component", "reporter")
		}
	}
}

// WithWorkerID overrides the generated worker ID.
func WithWorkerID(id string) ReporterOption {
	return func(r *Reporter) {
		if id != "" {
			r.workerID = id
		}
	}
}

// NewReporter creates a Reporter with a fresh ULID worker identity. A
// non-positive interval falls back to one second.
func NewReporter(source Source, sender Sender, interval time.Duration, opts ...ReporterOption) *Reporter {
	if interval <= 0 {
		interval = time.Second
	}
	r := &Reporter{
		workerID: ulid.Make().String(),
		pid:      os.Getpid(),
		source:   source,
		sender:   sender,
		interval: interval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WorkerID returns this process's cluster identity.
func (r *Reporter) WorkerID() string {
	return r.workerID
}

// Start launches the periodic report loop. Calling Start on a running
// Reporter is a no-op.
func (r *Reporter) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.ReportOnce(ctx)
			}
		}
	}()

	if r.logger != nil {
		r.logger.Info("reporter started", "worker_id", r.workerID, "interval", r.interval)
	}
}

// Stop halts the report loop.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	close(r.done)
}

// ReportOnce builds and sends a single worker report. Send failures are
// logged at debug level and otherwise discarded.
func (r *Reporter) ReportOnce(ctx context.Context) {
	snap := r.source.Snapshot(ctx)
	data, err := EncodeMessage(Message{
		WorkerID: r.workerID,
		PID:      r.pid,
		Snapshot: PartialFromSnapshot(snap),
		Charts:   r.source.Charts(),
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("dropped report", "error", err)
		}
		return
	}
	if err := r.sender.Send(ctx, data); err != nil {
		if r.logger != nil {
			r.logger.Debug("dropped report", "error", err)
		}
	}
}
