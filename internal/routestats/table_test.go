package routestats_test

import (
	"testing"
	"time"

	"github.com/vinitkumargoel/statusmon/internal/routestats"
)

func fixedClock() func() time.Time {
	base := time.Unix(1_700_000_000, 0)
	return func() time.Time { return base }
}

func TestRecordCompleteAggregates(t *testing.T) {
	table := routestats.NewTable(nil, 0, fixedClock())

	table.RecordComplete("/api/users", "GET", 10, 200)
	table.RecordComplete("/api/users", "GET", 30, 200)
	table.RecordComplete("/api/users", "GET", 20, 200)

	top := table.TopByCount(10)
	if len(top) != 1 {
		t.Fatalf("expected 1 route, got %d", len(top))
	}
	r := top[0]
	if r.Count != 3 {
		t.Errorf("expected count 3, got %d", r.Count)
	}
	if r.AvgTimeMs != 20 {
		t.Errorf("expected avg 20, got %g", r.AvgTimeMs)
	}
	if r.MinTimeMs != 10 {
		t.Errorf("expected min 10, got %g", r.MinTimeMs)
	}
	if r.MaxTimeMs != 30 {
		t.Errorf("expected max 30, got %g", r.MaxTimeMs)
	}
	if r.TotalTimeMs != 60 {
		t.Errorf("expected total 60, got %g", r.TotalTimeMs)
	}
}

func TestRoutesMergedByNormalizedPath(t *testing.T) {
	table := routestats.NewTable(nil, 0, fixedClock())

	table.RecordComplete("/api/users/17", "GET", 5, 200)
	table.RecordComplete("/api/users/42", "GET", 15, 200)
	table.RecordComplete("/api/users/550e8400-e29b-41d4-a716-446655440000", "GET", 25, 200)

	if table.Len() != 1 {
		t.Fatalf("expected numeric and uuid ids to collapse to one route, got %d", table.Len())
	}
	r := table.TopByCount(1)[0]
	if r.Path != "/api/users/:id" {
		t.Errorf("expected normalized path /api/users/:id, got %q", r.Path)
	}
	if r.Count != 3 {
		t.Errorf("expected merged count 3, got %d", r.Count)
	}
}

func TestSameRouteDifferentMethodsKeptApart(t *testing.T) {
	table := routestats.NewTable(nil, 0, fixedClock())

	table.RecordComplete("/api/orders", "GET", 5, 200)
	table.RecordComplete("/api/orders", "POST", 50, 201)

	if table.Len() != 2 {
		t.Fatalf("expected 2 routes, got %d", table.Len())
	}
}

func TestErrorsCountedAtFourHundred(t *testing.T) {
	table := routestats.NewTable(nil, 0, fixedClock())

	table.RecordComplete("/a", "GET", 1, 399)
	table.RecordComplete("/a", "GET", 1, 400)
	table.RecordComplete("/a", "GET", 1, 500)

	if got := table.TotalErrors(); got != 2 {
		t.Errorf("expected 2 errors, got %d", got)
	}
	errs := table.RecentErrors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(errs))
	}
	// Most recent first.
	if errs[0].StatusCode != 500 {
		t.Errorf("expected newest entry status 500, got %d", errs[0].StatusCode)
	}
	if errs[0].Message != "HTTP 500 Internal Server Error" {
		t.Errorf("unexpected message %q", errs[0].Message)
	}
}

func TestErrorLogBounded(t *testing.T) {
	table := routestats.NewTable(nil, 3, fixedClock())

	for status := 400; status < 410; status++ {
		table.RecordComplete("/a", "GET", 1, status)
	}

	errs := table.RecentErrors()
	if len(errs) != 3 {
		t.Fatalf("expected log capped at 3, got %d", len(errs))
	}
	if errs[0].StatusCode != 409 || errs[2].StatusCode != 407 {
		t.Errorf("expected newest three statuses 409..407, got %d..%d", errs[0].StatusCode, errs[2].StatusCode)
	}
}

func TestStartedButNeverCompleted(t *testing.T) {
	table := routestats.NewTable(nil, 0, fixedClock())

	table.RecordStart("/pending", "GET")

	top := table.TopByCount(10)
	if len(top) != 1 {
		t.Fatalf("expected started route to appear, got %d routes", len(top))
	}
	if top[0].Count != 0 {
		t.Errorf("expected count 0, got %d", top[0].Count)
	}
	if top[0].MinTimeMs != 0 {
		t.Errorf("expected min sanitized to 0, got %g", top[0].MinTimeMs)
	}
	if got := table.SlowestByAvg(10); len(got) != 0 {
		t.Errorf("route without completions must not rank by average, got %d", len(got))
	}
}

func TestRankings(t *testing.T) {
	table := routestats.NewTable(nil, 0, fixedClock())

	for i := 0; i < 5; i++ {
		table.RecordComplete("/busy", "GET", 10, 200)
	}
	for i := 0; i < 3; i++ {
		table.RecordComplete("/slow", "GET", 100, 200)
	}
	table.RecordComplete("/flaky", "GET", 50, 500)
	table.RecordComplete("/flaky", "GET", 50, 502)

	top := table.TopByCount(2)
	if len(top) != 2 || top[0].Path != "/busy" || top[1].Path != "/slow" {
		t.Errorf("unexpected top order: %+v", paths(top))
	}
	slow := table.SlowestByAvg(1)
	if len(slow) != 1 || slow[0].Path != "/slow" {
		t.Errorf("unexpected slowest: %+v", paths(slow))
	}
	bad := table.MostErrors(10)
	if len(bad) != 1 || bad[0].Path != "/flaky" || bad[0].ErrorCount != 2 {
		t.Errorf("unexpected most-errors: %+v", bad)
	}
}

func TestRankingTiesKeepInsertionOrder(t *testing.T) {
	table := routestats.NewTable(nil, 0, fixedClock())

	table.RecordComplete("/first", "GET", 10, 200)
	table.RecordComplete("/second", "GET", 10, 200)
	table.RecordComplete("/third", "GET", 10, 200)

	top := table.TopByCount(3)
	want := []string{"/first", "/second", "/third"}
	for i, p := range paths(top) {
		if p != want[i] {
			t.Fatalf("expected stable order %v, got %v", want, paths(top))
		}
	}
}

func TestRouteCountsSumMatchesCompletions(t *testing.T) {
	table := routestats.NewTable(nil, 0, fixedClock())

	completions := 0
	for i := 0; i < 7; i++ {
		table.RecordComplete("/a", "GET", 1, 200)
		completions++
	}
	for i := 0; i < 4; i++ {
		table.RecordComplete("/b", "POST", 1, 500)
		completions++
	}

	var sum int64
	for _, r := range table.TopByCount(-1) {
		sum += r.Count
	}
	if sum != int64(completions) {
		t.Errorf("expected route counts to sum to %d, got %d", completions, sum)
	}
}

func paths(entries []routestats.RouteStats) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}
