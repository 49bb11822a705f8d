// Package percentile computes rank-based latency statistics from a
// bounded buffer of raw response-time samples.
package percentile

import "sort"

// Set holds the derived latency statistics for one computation.
type Set struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Avg float64 `json:"avg"`
}

// DefaultCapacity is the sample buffer cap when none is configured.
const DefaultCapacity = 1000

// Estimator keeps the most recent raw samples. Once the buffer passes its
// cap, only the newest half of the cap survives; after a traffic burst the
// retained samples skew toward the newest requests.
type Estimator struct {
	capacity int
	samples  []float64
}

// NewEstimator creates an Estimator. A non-positive capacity falls back
// to DefaultCapacity.
func NewEstimator(capacity int) *Estimator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Estimator{
		capacity: capacity,
		samples:  make([]float64, 0, capacity),
	}
}

// Add records one raw response-time sample in milliseconds.
func (e *Estimator) Add(sampleMs float64) {
	e.samples = append(e.samples, sampleMs)
	if len(e.samples) > e.capacity {
		keep := e.capacity / 2
		e.samples = append(e.samples[:0], e.samples[len(e.samples)-keep:]...)
	}
}

// Len returns the number of retained samples.
func (e *Estimator) Len() int {
	return len(e.samples)
}

// Compute derives nearest-rank p50/p95/p99 and the arithmetic mean over
// the retained buffer. An empty buffer yields all zeros.
func (e *Estimator) Compute() Set {
	n := len(e.samples)
	if n == 0 {
		return Set{}
	}

	sorted := append([]float64(nil), e.samples...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return Set{
		P50: sorted[rankIndex(n, 0.50)],
		P95: sorted[rankIndex(n, 0.95)],
		P99: sorted[rankIndex(n, 0.99)],
		Avg: sum / float64(n),
	}
}

// rankIndex is floor(n*q) clamped to the last index.
func rankIndex(n int, q float64) int {
	idx := int(float64(n) * q)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
