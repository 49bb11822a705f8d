package cluster

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/vinitkumargoel/statusmon/internal/history"
	"github.com/vinitkumargoel/statusmon/internal/monitor"
	"github.com/vinitkumargoel/statusmon/internal/routestats"
)

// MessageTypeWorkerMetrics identifies worker report frames on the wire.
const MessageTypeWorkerMetrics = "worker-metrics"

// ErrUnknownMessage marks frames that are not worker reports.
var ErrUnknownMessage = errors.New("cluster: unknown message type")

// PartialSnapshot is the subset of snapshot fields a worker reports.
// Every field is optional on the wire; absent values default to zero.
type PartialSnapshot struct {
	RequestsPerSec    *float64                `json:"requests_per_sec,omitempty"`
	TotalRequests     *int64                  `json:"total_requests,omitempty"`
	ActiveConnections *int64                  `json:"active_connections,omitempty"`
	CPUPercent        *float64                `json:"cpu_percent,omitempty"`
	MemoryMB          *float64                `json:"memory_mb,omitempty"`
	ResponseTimeMs    *float64                `json:"response_time_ms,omitempty"`
	ErrorRatePct      *float64                `json:"error_rate_pct,omitempty"`
	StatusCodes       map[string]int64        `json:"status_codes,omitempty"`
	RateLimit         *monitor.RateLimitStats `json:"rate_limit,omitempty"`
	TopRoutes         []routestats.RouteStats `json:"top_routes,omitempty"`
	SlowestRoutes     []routestats.RouteStats `json:"slowest_routes,omitempty"`
	ErrorRoutes       []routestats.RouteStats `json:"error_routes,omitempty"`
}

// PartialFromSnapshot projects a full local snapshot into the wire shape.
func PartialFromSnapshot(s monitor.Snapshot) PartialSnapshot {
	return PartialSnapshot{
		RequestsPerSec:    &s.RequestsPerSec,
		TotalRequests:     &s.TotalRequests,
		ActiveConnections: &s.ActiveConnections,
		CPUPercent:        &s.CPUPercent,
		MemoryMB:          &s.MemoryMB,
		ResponseTimeMs:    &s.ResponseTimeMs,
		ErrorRatePct:      &s.ErrorRatePct,
		StatusCodes:       s.StatusCodes,
		RateLimit:         &s.RateLimit,
		TopRoutes:         s.TopRoutes,
		SlowestRoutes:     s.SlowestRoutes,
		ErrorRoutes:       s.ErrorRoutes,
	}
}

// Message is one periodic worker report.
type Message struct {
	Type     string              `json:"type"`
	WorkerID string              `json:"worker_id"`
	PID      int                 `json:"pid"`
	Snapshot PartialSnapshot     `json:"snapshot"`
	Charts   history.ChartBundle `json:"charts"`
}

// EncodeMessage serializes a worker report for the channel.
func EncodeMessage(msg Message) ([]byte, error) {
	msg.Type = MessageTypeWorkerMetrics
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("cluster: encode worker message: %w", err)
	}
	return data, nil
}

// DecodeMessage parses a worker report frame. The type field is sniffed
// before the full decode so foreign frames are rejected cheaply with
// ErrUnknownMessage.
func DecodeMessage(data []byte) (Message, error) {
	if gjson.GetBytes(data, "type").String() != MessageTypeWorkerMetrics {
		return Message{}, ErrUnknownMessage
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("cluster: decode worker message: %w", err)
	}
	return msg, nil
}

func f64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func i64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
