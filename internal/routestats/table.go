package routestats

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// RouteStats aggregates request statistics for one (method, path) key.
// MinTimeMs starts at +Inf and only decreases; MaxTimeMs only increases;
// AvgTimeMs always equals TotalTimeMs/Count while Count > 0.
type RouteStats struct {
	Path         string  `json:"path"`
	Method       string  `json:"method"`
	Count        int64   `json:"count"`
	TotalTimeMs  float64 `json:"total_time_ms"`
	AvgTimeMs    float64 `json:"avg_time_ms"`
	MinTimeMs    float64 `json:"min_time_ms"`
	MaxTimeMs    float64 `json:"max_time_ms"`
	ErrorCount   int64   `json:"error_count"`
	LastAccessMs int64   `json:"last_access_ms"`
}

// Key returns the uniqueness key for this entry.
func (r RouteStats) Key() string {
	return r.Method + " " + r.Path
}

// ErrorEntry is one recorded error response, most recent first in the log.
type ErrorEntry struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Path        string `json:"path"`
	Method      string `json:"method"`
	StatusCode  int    `json:"status_code"`
	Message     string `json:"message"`
}

// DefaultMaxRecentErrors caps the bounded error log when no cap is given.
const DefaultMaxRecentErrors = 10

// Table tracks per-route aggregates keyed by (method, normalized path).
// It is not safe for concurrent use; the owning collector serializes access.
type Table struct {
	normalize Normalizer
	maxErrors int
	entries   map[string]*RouteStats
	order     map[string]int
	seq       int
	errors    []ErrorEntry
	now       func() time.Time
}

// NewTable creates an empty Table. A nil normalizer falls back to
// NormalizePath, a non-positive maxErrors to DefaultMaxRecentErrors and a
// nil clock to time.Now.
func NewTable(normalize Normalizer, maxErrors int, now func() time.Time) *Table {
	if normalize == nil {
		normalize = NormalizePath
	}
	if maxErrors <= 0 {
		maxErrors = DefaultMaxRecentErrors
	}
	if now == nil {
		now = time.Now
	}
	return &Table{
		normalize: normalize,
		maxErrors: maxErrors,
		entries:   make(map[string]*RouteStats),
		order:     make(map[string]int),
		now:       now,
	}
}

// RecordStart ensures an entry exists for the route. Counters stay
// untouched until the request completes.
func (t *Table) RecordStart(path, method string) {
	t.entry(path, method)
}

// RecordComplete folds one finished request into the matching entry.
// Status codes >= 400 count as errors and are prepended to the bounded
// error log, dropping the oldest entry beyond the cap.
func (t *Table) RecordComplete(path, method string, durationMs float64, statusCode int) {
	e := t.entry(path, method)
	e.Count++
	e.TotalTimeMs += durationMs
	e.AvgTimeMs = e.TotalTimeMs / float64(e.Count)
	if durationMs < e.MinTimeMs {
		e.MinTimeMs = durationMs
	}
	if durationMs > e.MaxTimeMs {
		e.MaxTimeMs = durationMs
	}
	e.LastAccessMs = t.now().UnixMilli()

	if statusCode >= 400 {
		e.ErrorCount++
		t.pushError(ErrorEntry{
			TimestampMs: e.LastAccessMs,
			Path:        e.Path,
			Method:      e.Method,
			StatusCode:  statusCode,
			Message:     errorMessage(statusCode),
		})
	}
}

func (t *Table) entry(path, method string) *RouteStats {
	normalized := t.normalize(path)
	key := method + " " + normalized
	if e, ok := t.entries[key]; ok {
		return e
	}
	e := &RouteStats{
		Path:      normalized,
		Method:    method,
		MinTimeMs: math.Inf(1),
	}
	t.entries[key] = e
	t.order[key] = t.seq
	t.seq++
	return e
}

func (t *Table) pushError(entry ErrorEntry) {
	t.errors = append([]ErrorEntry{entry}, t.errors...)
	if len(t.errors) > t.maxErrors {
		t.errors = t.errors[:t.maxErrors]
	}
}

func errorMessage(statusCode int) string {
	text := http.StatusText(statusCode)
	if text == "" {
		return "HTTP " + strconv.Itoa(statusCode)
	}
	return "HTTP " + strconv.Itoa(statusCode) + " " + text
}

// Len returns the number of tracked routes.
func (t *Table) Len() int {
	return len(t.entries)
}

// TotalErrors sums the error count across every tracked route.
func (t *Table) TotalErrors() int64 {
	var total int64
	for _, e := range t.entries {
		total += e.ErrorCount
	}
	return total
}

// RecentErrors returns a copy of the bounded error log, most recent first.
func (t *Table) RecentErrors() []ErrorEntry {
	return append([]ErrorEntry(nil), t.errors...)
}

// TopByCount returns up to n entries ranked by descending request count.
func (t *Table) TopByCount(n int) []RouteStats {
	return TopByCount(t.snapshot(), n)
}

// SlowestByAvg returns up to n entries with completed requests, ranked by
// descending average time.
func (t *Table) SlowestByAvg(n int) []RouteStats {
	return SlowestByAvg(t.snapshot(), n)
}

// MostErrors returns up to n entries with errors, ranked by descending
// error count.
func (t *Table) MostErrors(n int) []RouteStats {
	return MostErrors(t.snapshot(), n)
}

// snapshot copies every entry in insertion order, so the stable ranking
// sorts break ties by first-seen order.
func (t *Table) snapshot() []RouteStats {
	keys := make([]string, 0, len(t.entries))
	for key := range t.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return t.order[keys[i]] < t.order[keys[j]] })

	out := make([]RouteStats, 0, len(keys))
	for _, key := range keys {
		out = append(out, sanitize(*t.entries[key]))
	}
	return out
}

// sanitize clears the +Inf min sentinel on entries that never completed,
// keeping copies JSON-encodable.
func sanitize(r RouteStats) RouteStats {
	if r.Count == 0 {
		r.MinTimeMs = 0
	}
	return r
}

// TopByCount ranks entries by descending count. Ties keep input order.
func TopByCount(entries []RouteStats, n int) []RouteStats {
	ranked := append([]RouteStats(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	return capList(ranked, n)
}

// SlowestByAvg ranks entries with Count > 0 by descending average time.
// Ties keep input order.
func SlowestByAvg(entries []RouteStats, n int) []RouteStats {
	ranked := make([]RouteStats, 0, len(entries))
	for _, e := range entries {
		if e.Count > 0 {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].AvgTimeMs > ranked[j].AvgTimeMs })
	return capList(ranked, n)
}

// MostErrors ranks entries with ErrorCount > 0 by descending error count.
// Ties keep input order.
func MostErrors(entries []RouteStats, n int) []RouteStats {
	ranked := make([]RouteStats, 0, len(entries))
	for _, e := range entries {
		if e.ErrorCount > 0 {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ErrorCount > ranked[j].ErrorCount })
	return capList(ranked, n)
}

func capList(entries []RouteStats, n int) []RouteStats {
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
