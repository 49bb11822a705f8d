// Package monitor collects request-level telemetry for a running server
// process and composes point-in-time snapshots of it.
//
// The central [Monitor] type owns all mutable collection state: the
// per-route analytics table, the rolling history store, the raw latency
// sample buffer, and instantaneous counters. Collaborators feed it request
// lifecycle events:
//
//	m := monitor.New(cfg)
//	m.Start()
//
//	m.RequestStarted("/api/users/42", "GET")
//	m.RequestCompleted("/api/users/42", "GET", 12.5, 200)
//
//	snap := m.Snapshot(ctx)
//
// On a fixed tick the accumulated per-interval counters roll into the
// history store and reset; [Monitor.Charts] exposes the resulting series
// for charting and cross-process aggregation.
//
// All collection paths are in-memory and total: probe failures surface as
// a disconnected health result and never abort snapshot building.
package monitor
