// Package history keeps fixed-retention time series for tracked metrics.
package history

import "time"

// Point is one immutable timestamped observation.
type Point struct {
	TimestampMs int64   `json:"t"`
	Value       float64 `json:"v"`
}

// TimeSeries is an append-only sequence of points with non-decreasing
// timestamps. No retained point is older than the store's retention
// window after any insert.
type TimeSeries []Point

// ChartBundle maps a metric name to its time series for one process.
type ChartBundle map[string]TimeSeries

// Series names the monitor rolls into the store each tick.
const (
	SeriesCPU               = "cpu"
	SeriesMemory            = "memory"
	SeriesResponseTime      = "responseTime"
	SeriesRPS               = "rps"
	SeriesErrorRate         = "errorRate"
	SeriesActiveConnections = "activeConnections"
	SeriesSchedulerLag      = "schedulerLag"
)

// MergeMode declares how points sharing a timestamp combine across
// processes.
type MergeMode int

const (
	MergeAverage MergeMode = iota
	MergeSum
)

// MergeModeFor returns the cross-process merge policy for a series.
// Request throughput sums across workers; every other series averages.
func MergeModeFor(name string) MergeMode {
	if name == SeriesRPS {
		return MergeSum
	}
	return MergeAverage
}

// DefaultRetention bounds series age when no retention is configured.
const DefaultRetention = 60 * time.Second

// Store holds named rolling time series. It is not safe for concurrent
// use; the owning collector serializes access.
type Store struct {
	retention time.Duration
	series    map[string]TimeSeries
	now       func() time.Time
}

// NewStore creates an empty Store. A non-positive retention falls back to
// DefaultRetention and a nil clock to time.Now.
func NewStore(retention time.Duration, now func() time.Time) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		retention: retention,
		series:    make(map[string]TimeSeries),
		now:       now,
	}
}

// Append pushes a point stamped with the current time, then trims points
// older than the retention window from the front. Retention is enforced
// only on write: a series that stops receiving appends keeps its stale
// tail until the next one.
func (s *Store) Append(name string, value float64) {
	now := s.now()
	points := append(s.series[name], Point{TimestampMs: now.UnixMilli(), Value: value})

	cutoff := now.Add(-s.retention).UnixMilli()
	start := 0
	for start < len(points) && points[start].TimestampMs < cutoff {
		start++
	}
	s.series[name] = points[start:]
}

// Latest returns the most recent value for the series, or 0 if it is
// empty or unknown.
func (s *Store) Latest(name string) float64 {
	points := s.series[name]
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Value
}

// Series returns a copy of the named series.
func (s *Store) Series(name string) TimeSeries {
	return append(TimeSeries(nil), s.series[name]...)
}

// Charts returns a copy of every tracked series.
func (s *Store) Charts() ChartBundle {
	out := make(ChartBundle, len(s.series))
	for name, points := range s.series {
		out[name] = append(TimeSeries(nil), points...)
	}
	return out
}
