package monitor

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vinitkumargoel/statusmon/internal/alerts"
	"github.com/vinitkumargoel/statusmon/internal/config"
	"github.com/vinitkumargoel/statusmon/internal/history"
	"github.com/vinitkumargoel/statusmon/internal/percentile"
	"github.com/vinitkumargoel/statusmon/internal/routestats"
	"github.com/vinitkumargoel/statusmon/internal/tracing"
)

// Monitor collects request telemetry and composes snapshots. All methods
// are safe for concurrent use.
type Monitor struct {
	mu sync.Mutex

	routes *routestats.Table
	hist   *history.Store
	est    *percentile.Estimator

	thresholds alerts.Thresholds
	maxRoutes  int
	interval   time.Duration

	totalRequests int64
	activeConns   int64
	statusCodes   map[string]int64
	rateLimit     RateLimitStats

	// Per-tick accumulators, reset on rollover.
	tickRequests   int64
	tickDurationMs float64

	schedLagMs float64
	lastTick   time.Time
	started    time.Time
	running    bool

	probe      Probe
	sampler    SystemSampler
	normalizer routestats.Normalizer
	clock      func() time.Time
	logger     *slog.Logger
	tracer     trace.Tracer

	ticker *time.Ticker
	done   chan struct{}
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithProbe injects the health probe awaited during snapshot building.
func WithProbe(p Probe) Option {
	return func(m *Monitor) {
		if p != nil {
			m.probe = p
		}
	}
}

// WithSampler injects the host metrics sampler.
func WithSampler(s SystemSampler) Option {
	return func(m *Monitor) {
		if s != nil {
			m.sampler = s
		}
	}
}

// WithNormalizer replaces the default path normalizer.
func WithNormalizer(n routestats.Normalizer) Option {
	return func(m *Monitor) {
		if n != nil {
			m.normalizer = n
		}
	}
}

// WithClock injects the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.clock = now
		}
	}
}

// WithLogger injects the process logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l.With("component", "monitor")
		}
	}
}

// WithTracer injects the tracer used around snapshot building.
func WithTracer(t trace.Tracer) Option {
	return func(m *Monitor) {
		if t != nil {
			m.tracer = t
		}
	}
}

// New creates a Monitor from the configuration. The rollover ticker stays
// idle until Start.
func New(cfg config.Config, opts ...Option) *Monitor {
	m := &Monitor{
		thresholds:  cfg.Thresholds,
		maxRoutes:   cfg.MaxRoutes,
		interval:    cfg.UpdateInterval,
		statusCodes: make(map[string]int64),
		probe:       AlwaysConnected,
		sampler:     RuntimeSampler{},
		clock:       time.Now,
		tracer:      noop.NewTracerProvider().Tracer("statusmon"),
	}
	if m.interval <= 0 {
		m.interval = time.Second
	}
	if m.maxRoutes <= 0 {
		m.maxRoutes = 10
	}
	for _, opt := range opts {
		opt(m)
	}

	m.routes = routestats.NewTable(m.normalizer, cfg.MaxRecentErrors, m.clock)
	m.hist = history.NewStore(cfg.Retention, m.clock)
	m.est = percentile.NewEstimator(cfg.SampleBuffer)
	m.started = m.clock()
	m.lastTick = m.started
	return m
}

// RequestStarted records the beginning of a request.
func (m *Monitor) RequestStarted(path, method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes.RecordStart(path, method)
	m.activeConns++
}

// RequestCompleted records a finished request with its total duration and
// response status.
func (m *Monitor) RequestCompleted(path, method string, durationMs float64, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.routes.RecordComplete(path, method, durationMs, statusCode)
	m.totalRequests++
	m.statusCodes[strconv.Itoa(statusCode)]++
	if m.activeConns > 0 {
		m.activeConns--
	}
	m.tickRequests++
	m.tickDurationMs += durationMs
	m.est.Add(durationMs)
}

// RateLimitEvent records one rate-limiter decision.
func (m *Monitor) RateLimitEvent(blocked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimit.Total++
	if blocked {
		m.rateLimit.Blocked++
	}
}

// Start launches the periodic rollover ticker. Calling Start on a running
// Monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.lastTick = m.clock()
	m.done = make(chan struct{})
	m.ticker = time.NewTicker(m.interval)
	done, ticker := m.done, m.ticker
	m.mu.Unlock()

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.Rollover()
			}
		}
	}()

	if m.logger != nil {
		m.logger.Info("monitor started", "interval", m.interval)
	}
}

// Stop halts the rollover ticker. Collected state stays readable.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.ticker.Stop()
	close(m.done)
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("monitor stopped")
	}
}

// Rollover folds the per-tick accumulators into the history store and
// resets them. The ticker calls this once per interval; tests call it
// directly with an injected clock.
func (m *Monitor) Rollover() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	elapsed := now.Sub(m.lastTick)
	if lag := elapsed - m.interval; lag > 0 {
		m.schedLagMs = float64(lag) / float64(time.Millisecond)
	} else {
		m.schedLagMs = 0
	}

	secs := elapsed.Seconds()
	if secs <= 0 {
		secs = m.interval.Seconds()
	}
	rps := float64(m.tickRequests) / secs

	avgMs := 0.0
	if m.tickRequests > 0 {
		avgMs = m.tickDurationMs / float64(m.tickRequests)
	}

	caps := m.sampler.Capabilities()
	cpu, memMB := 0.0, 0.0
	if caps.CPU {
		cpu = m.sampler.CPUPercent()
	}
	if caps.Memory {
		memMB = m.sampler.MemoryMB()
	}

	m.hist.Append(history.SeriesRPS, rps)
	m.hist.Append(history.SeriesResponseTime, avgMs)
	m.hist.Append(history.SeriesCPU, cpu)
	m.hist.Append(history.SeriesMemory, memMB)
	m.hist.Append(history.SeriesErrorRate, m.errorRateLocked())
	m.hist.Append(history.SeriesActiveConnections, float64(m.activeConns))
	m.hist.Append(history.SeriesSchedulerLag, m.schedLagMs)

	m.tickRequests = 0
	m.tickDurationMs = 0
	m.lastTick = now
}

// Snapshot composes an immutable view of all tracked metrics. The health
// probe is awaited first; a probe error degrades to a disconnected result
// instead of propagating.
func (m *Monitor) Snapshot(ctx context.Context) Snapshot {
	ctx, span := m.tracer.Start(ctx, "monitor.snapshot")
	health := m.probeHealth(ctx)

	m.mu.Lock()
	now := m.clock()
	caps := m.sampler.Capabilities()

	cpu, memMB, memPct := 0.0, 0.0, 0.0
	if caps.CPU {
		cpu = m.sampler.CPUPercent()
	}
	if caps.Memory {
		memMB = m.sampler.MemoryMB()
		memPct = m.sampler.MemoryPct()
	}

	pcts := m.est.Compute()
	errorRate := m.errorRateLocked()

	codes := make(map[string]int64, len(m.statusCodes))
	for code, count := range m.statusCodes {
		codes[code] = count
	}

	snap := Snapshot{
		TimestampMs:       now.UnixMilli(),
		UptimeSec:         now.Sub(m.started).Seconds(),
		TotalRequests:     m.totalRequests,
		ActiveConnections: m.activeConns,
		RequestsPerSec:    m.hist.Latest(history.SeriesRPS),
		CPUPercent:        cpu,
		MemoryMB:          memMB,
		MemoryPct:         memPct,
		ResponseTimeMs:    round2(pcts.Avg),
		ErrorRatePct:      errorRate,
		SchedulerLagMs:    m.schedLagMs,
		StatusCodes:       codes,
		RateLimit:         m.rateLimit,
		Percentiles:       pcts,
		TopRoutes:         m.routes.TopByCount(m.maxRoutes),
		SlowestRoutes:     m.routes.SlowestByAvg(m.maxRoutes),
		ErrorRoutes:       m.routes.MostErrors(m.maxRoutes),
		RecentErrors:      m.routes.RecentErrors(),
		Alerts: alerts.Evaluate(alerts.Values{
			CPUPercent:     cpu,
			MemoryPct:      memPct,
			ResponseTimeMs: pcts.Avg,
			ErrorRatePct:   errorRate,
			SchedulerLagMs: m.schedLagMs,
		}, m.thresholds, caps),
		Health: health,
	}
	m.mu.Unlock()

	tracing.EndSpan(span, nil,
		attribute.Int64("statusmon.total_requests", snap.TotalRequests),
		attribute.Float64("statusmon.error_rate_pct", snap.ErrorRatePct),
	)
	return snap
}

// Charts returns a copy of every rolled time series.
func (m *Monitor) Charts() history.ChartBundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.Charts()
}

func (m *Monitor) probeHealth(ctx context.Context) Health {
	start := m.clock()
	result, err := m.probe(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.Debug("health probe failed", "error", err)
		}
		return Health{}
	}
	latency := m.clock().Sub(start)
	return Health{
		Connected: result.Connected,
		LatencyMs: float64(latency) / float64(time.Millisecond),
		Name:      result.Name,
	}
}

// errorRateLocked is sum(route errors)/totalRequests*100, 0 when idle.
// Callers hold m.mu.
func (m *Monitor) errorRateLocked() float64 {
	if m.totalRequests == 0 {
		return 0
	}
	return round2(float64(m.routes.TotalErrors()) / float64(m.totalRequests) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
