package monitor

import (
	"runtime"

	"github.com/vinitkumargoel/statusmon/internal/alerts"
)

// SystemSampler reports host-level metrics. Implementations declare which
// categories they can actually provide; the snapshot builder zero-fills
// the rest.
type SystemSampler interface {
	Capabilities() alerts.Capabilities
	CPUPercent() float64
	MemoryMB() float64
	MemoryPct() float64
}

// RuntimeSampler reads memory from the Go runtime. Process CPU usage has
// no portable runtime source, so the CPU capability is absent.
type RuntimeSampler struct{}

func (RuntimeSampler) Capabilities() alerts.Capabilities {
	return alerts.Capabilities{Memory: true, SchedulerLag: true}
}

func (RuntimeSampler) CPUPercent() float64 { return 0 }

func (RuntimeSampler) MemoryMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / (1 << 20)
}

func (RuntimeSampler) MemoryPct() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.Sys == 0 {
		return 0
	}
	return float64(ms.HeapAlloc) / float64(ms.Sys) * 100
}
