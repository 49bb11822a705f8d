package cluster_test

import (
	"errors"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/vinitkumargoel/statusmon/internal/cluster"
	"github.com/vinitkumargoel/statusmon/internal/monitor"
	"github.com/vinitkumargoel/statusmon/internal/routestats"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := cluster.Message{
		WorkerID: "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		PID:      1234,
		Snapshot: cluster.PartialSnapshot{
			RequestsPerSec: f64p(12.5),
			TotalRequests:  i64p(800),
			StatusCodes:    map[string]int64{"200": 700, "500": 100},
			TopRoutes: []routestats.RouteStats{
				{Path: "/api/users", Method: "GET", Count: 500, AvgTimeMs: 12},
			},
		},
	}

	data, err := cluster.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := gjson.GetBytes(data, "type").String(); got != cluster.MessageTypeWorkerMetrics {
		t.Errorf("expected type stamped on encode, got %q", got)
	}

	decoded, err := cluster.DecodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.WorkerID != msg.WorkerID || decoded.PID != msg.PID {
		t.Errorf("identity fields lost: %+v", decoded)
	}
	if *decoded.Snapshot.RequestsPerSec != 12.5 || *decoded.Snapshot.TotalRequests != 800 {
		t.Errorf("snapshot fields lost: %+v", decoded.Snapshot)
	}
	if len(decoded.Snapshot.TopRoutes) != 1 || decoded.Snapshot.TopRoutes[0].Path != "/api/users" {
		t.Errorf("routes lost: %+v", decoded.Snapshot.TopRoutes)
	}
}

func TestDecodeRejectsForeignTypes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"wrong type", []byte(`{"type":"heartbeat","worker_id":"w1"}`)},
		{"missing type", []byte(`{"worker_id":"w1"}`)},
		{"empty", []byte(``)},
		{"not json", []byte(`<xml/>`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := cluster.DecodeMessage(tt.data); !errors.Is(err, cluster.ErrUnknownMessage) {
				t.Errorf("expected ErrUnknownMessage, got %v", err)
			}
		})
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	// Right type, broken body.
	data := []byte(`{"type":"worker-metrics","pid":"not-a-number"}`)
	if _, err := cluster.DecodeMessage(data); err == nil {
		t.Fatal("expected decode error")
	} else if errors.Is(err, cluster.ErrUnknownMessage) {
		t.Fatal("malformed known-type frames must not map to ErrUnknownMessage")
	}
}

func TestPartialFromSnapshot(t *testing.T) {
	snap := monitor.Snapshot{
		RequestsPerSec: 9,
		TotalRequests:  90,
		CPUPercent:     33,
		StatusCodes:    map[string]int64{"200": 90},
	}
	partial := cluster.PartialFromSnapshot(snap)
	if *partial.RequestsPerSec != 9 || *partial.TotalRequests != 90 || *partial.CPUPercent != 33 {
		t.Errorf("unexpected projection %+v", partial)
	}
	if partial.StatusCodes["200"] != 90 {
		t.Errorf("status codes lost: %+v", partial.StatusCodes)
	}
}

func TestAbsentFieldsDefaultToZeroInAggregate(t *testing.T) {
	agg := cluster.NewAggregator(0, 0)
	// A report carrying only a worker identity still counts as a worker.
	agg.Ingest("sparse", 1, cluster.PartialSnapshot{}, nil)

	out := agg.AggregatedSnapshot(monitor.Snapshot{})
	if out.WorkerCount != 1 {
		t.Fatalf("expected sparse worker counted, got %d", out.WorkerCount)
	}
	if out.RequestsPerSec != 0 || out.TotalRequests != 0 || out.CPUPercent != 0 {
		t.Errorf("absent fields must fold as zero, got %+v", out)
	}
}
