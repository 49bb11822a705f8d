// Package cluster merges telemetry reported by multiple cooperating
// processes into one coordinator-side view.
//
// Merging is best-effort, lossy, and pull-based: the aggregator folds
// whatever the last known per-process reports happen to be whenever a
// consumer asks for the combined view. There is no ordering validation,
// no acknowledgment, and no retry anywhere in the protocol.
package cluster

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vinitkumargoel/statusmon/internal/history"
	"github.com/vinitkumargoel/statusmon/internal/monitor"
	"github.com/vinitkumargoel/statusmon/internal/routestats"
)

// DefaultStaleAfter is the worker eviction age when none is configured.
const DefaultStaleAfter = 10 * time.Second

// WorkerRecord is the last known report from one worker process. Each
// report overwrites the previous one wholesale.
type WorkerRecord struct {
	WorkerID string
	PID      int
	Snapshot PartialSnapshot
	Charts   history.ChartBundle
	LastSeen time.Time
}

// Aggregator folds worker reports into aggregated snapshots and charts.
// Stale workers are evicted on read, never by a background sweep.
type Aggregator struct {
	mu         sync.Mutex
	staleAfter time.Duration
	maxRoutes  int
	workers    map[string]*WorkerRecord
	now        func() time.Time
	logger     *slog.Logger
}

// AggregatorOption customizes an Aggregator.
type AggregatorOption func(*Aggregator)

// WithClock injects the time source, used by tests.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger injects the process logger.
func WithLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l.With("component", "cluster")
		}
	}
}

// NewAggregator creates an Aggregator. Non-positive staleAfter and
// maxRoutes fall back to DefaultStaleAfter and 10.
func NewAggregator(staleAfter time.Duration, maxRoutes int, opts ...AggregatorOption) *Aggregator {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if maxRoutes <= 0 {
		maxRoutes = 10
	}
	a := &Aggregator{
		staleAfter: staleAfter,
		maxRoutes:  maxRoutes,
		workers:    make(map[string]*WorkerRecord),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ingest upserts the record for workerID, overwriting any previous report
// and stamping it with the current time.
func (a *Aggregator) Ingest(workerID string, pid int, snap PartialSnapshot, charts history.ChartBundle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.workers[workerID] = &WorkerRecord{
		WorkerID: workerID,
		PID:      pid,
		Snapshot: snap,
		Charts:   charts,
		LastSeen: a.now(),
	}
}

// HandleFrame decodes one inbound channel frame and ingests it. Foreign
// or malformed frames are dropped without signal.
func (a *Aggregator) HandleFrame(data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		if a.logger != nil {
			a.logger.Debug("dropped frame", "error", err)
		}
		return
	}
	a.Ingest(msg.WorkerID, msg.PID, msg.Snapshot, msg.Charts)
}

// WorkerCount returns the number of workers after evicting stale ones.
func (a *Aggregator) WorkerCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.evictStaleLocked()
	return len(a.workers)
}

// AggregatedSnapshot folds every fresh worker report into the local
// snapshot. With no fresh workers the local snapshot is returned
// unchanged.
func (a *Aggregator) AggregatedSnapshot(local monitor.Snapshot) monitor.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.evictStaleLocked()
	if len(a.workers) == 0 {
		return local
	}

	out := local
	var rps, cpu, responseTime, errorRate float64
	var totalRequests, activeConns int64
	codes := make(map[string]int64)
	var rateLimit monitor.RateLimitStats
	merged := make(map[string]*routestats.RouteStats)

	roster := make([]monitor.WorkerInfo, 0, len(a.workers))
	for _, rec := range a.sortedLocked() {
		s := rec.Snapshot
		rps += f64(s.RequestsPerSec)
		totalRequests += i64(s.TotalRequests)
		activeConns += i64(s.ActiveConnections)
		cpu += f64(s.CPUPercent)
		responseTime += f64(s.ResponseTimeMs)
		errorRate += f64(s.ErrorRatePct)
		for code, count := range s.StatusCodes {
			codes[code] += count
		}
		if s.RateLimit != nil {
			rateLimit.Total += s.RateLimit.Total
			rateLimit.Blocked += s.RateLimit.Blocked
		}
		for _, route := range dedupeRoutes(s.TopRoutes, s.SlowestRoutes, s.ErrorRoutes) {
			foldRoute(merged, route)
		}
		roster = append(roster, monitor.WorkerInfo{
			WorkerID:       rec.WorkerID,
			PID:            rec.PID,
			CPUPercent:     f64(s.CPUPercent),
			MemoryMB:       f64(s.MemoryMB),
			RequestsPerSec: f64(s.RequestsPerSec),
			TotalRequests:  i64(s.TotalRequests),
			ResponseTimeMs: f64(s.ResponseTimeMs),
		})
	}

	n := float64(len(a.workers))
	out.RequestsPerSec = rps
	out.TotalRequests = totalRequests
	out.ActiveConnections = activeConns
	out.CPUPercent = round2(cpu / n)
	out.ResponseTimeMs = round2(responseTime / n)
	out.ErrorRatePct = round2(errorRate / n)
	out.StatusCodes = codes
	out.RateLimit = rateLimit

	routes := flattenRoutes(merged)
	out.TopRoutes = routestats.TopByCount(routes, a.maxRoutes)
	out.SlowestRoutes = routestats.SlowestByAvg(routes, a.maxRoutes)
	out.ErrorRoutes = routestats.MostErrors(routes, a.maxRoutes)

	out.Workers = roster
	out.WorkerCount = len(a.workers)
	return out
}

// AggregatedCharts merges the local chart bundle with every fresh
// worker's bundle. Points sharing an exact timestamp combine according to
// the series' merge mode; unmatched points stay as singletons. With no
// fresh workers the local bundle is returned unmodified.
func (a *Aggregator) AggregatedCharts(local history.ChartBundle) history.ChartBundle {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.evictStaleLocked()
	if len(a.workers) == 0 {
		return local
	}

	names := make(map[string]struct{}, len(local))
	for name := range local {
		names[name] = struct{}{}
	}
	for _, rec := range a.workers {
		for name := range rec.Charts {
			names[name] = struct{}{}
		}
	}

	out := make(history.ChartBundle, len(names))
	for name := range names {
		bins := make(map[int64]*chartBin)
		accumulate(bins, local[name])
		for _, rec := range a.workers {
			accumulate(bins, rec.Charts[name])
		}
		out[name] = resolveBins(bins, history.MergeModeFor(name))
	}
	return out
}

type chartBin struct {
	sum float64
	n   int
}

func accumulate(bins map[int64]*chartBin, series history.TimeSeries) {
	for _, p := range series {
		bin := bins[p.TimestampMs]
		if bin == nil {
			bin = &chartBin{}
			bins[p.TimestampMs] = bin
		}
		bin.sum += p.Value
		bin.n++
	}
}

func resolveBins(bins map[int64]*chartBin, mode history.MergeMode) history.TimeSeries {
	points := make(history.TimeSeries, 0, len(bins))
	for ts, bin := range bins {
		value := bin.sum
		if mode == history.MergeAverage && bin.n > 0 {
			value = bin.sum / float64(bin.n)
		}
		points = append(points, history.Point{TimestampMs: ts, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].TimestampMs < points[j].TimestampMs })
	return points
}

func (a *Aggregator) evictStaleLocked() {
	cutoff := a.now().Add(-a.staleAfter)
	for id, rec := range a.workers {
		if rec.LastSeen.Before(cutoff) {
			delete(a.workers, id)
			if a.logger != nil {
				a.logger.Info("evicted stale worker", "worker_id", id, "last_seen", rec.LastSeen)
			}
		}
	}
}

// sortedLocked returns records ordered by worker ID so folds and rosters
// are deterministic. Callers hold a.mu.
func (a *Aggregator) sortedLocked() []*WorkerRecord {
	out := make([]*WorkerRecord, 0, len(a.workers))
	for _, rec := range a.workers {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}

// dedupeRoutes unions one worker's three ranked lists, keeping the first
// occurrence per key. The same entry appearing in several lists must not
// be counted twice.
func dedupeRoutes(lists ...[]routestats.RouteStats) []routestats.RouteStats {
	seen := make(map[string]struct{})
	var out []routestats.RouteStats
	for _, list := range lists {
		for _, route := range list {
			key := route.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, route)
		}
	}
	return out
}

// foldRoute sums one worker's route entry into the merged set: counts and
// totals add, min falls, max rises, avg is recomputed.
func foldRoute(merged map[string]*routestats.RouteStats, route routestats.RouteStats) {
	existing, ok := merged[route.Key()]
	if !ok {
		clone := route
		merged[route.Key()] = &clone
		return
	}
	if route.Count > 0 {
		if existing.Count == 0 || route.MinTimeMs < existing.MinTimeMs {
			existing.MinTimeMs = route.MinTimeMs
		}
	}
	existing.Count += route.Count
	existing.TotalTimeMs += route.TotalTimeMs
	existing.ErrorCount += route.ErrorCount
	if existing.Count > 0 {
		existing.AvgTimeMs = existing.TotalTimeMs / float64(existing.Count)
	}
	if route.MaxTimeMs > existing.MaxTimeMs {
		existing.MaxTimeMs = route.MaxTimeMs
	}
	if route.LastAccessMs > existing.LastAccessMs {
		existing.LastAccessMs = route.LastAccessMs
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func flattenRoutes(merged map[string]*routestats.RouteStats) []routestats.RouteStats {
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]routestats.RouteStats, 0, len(keys))
	for _, key := range keys {
		out = append(out, *merged[key])
	}
	return out
}
