package main

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vinitkumargoel/statusmon/internal/monitor"
)

type simRoute struct {
	method    string
	path      string
	baseMs    float64
	jitterMs  float64
	errorRate float64
}

var simRoutes = []simRoute{
	{method: http.MethodGet, path: "/api/users", baseMs: 12, jitterMs: 20, errorRate: 0.01},
	{method: http.MethodGet, path: "/api/users/42", baseMs: 8, jitterMs: 10, errorRate: 0.02},
	{method: http.MethodPost, path: "/api/orders", baseMs: 45, jitterMs: 60, errorRate: 0.05},
	{method: http.MethodGet, path: "/api/orders/9f8b1c2d3e4f5a6b7c8d9e0f", baseMs: 30, jitterMs: 40, errorRate: 0.03},
	{method: http.MethodGet, path: "/health", baseMs: 1, jitterMs: 2, errorRate: 0},
	{method: http.MethodDelete, path: "/api/sessions/550e8400-e29b-41d4-a716-446655440000", baseMs: 18, jitterMs: 15, errorRate: 0.08},
}

// simulate drives a synthetic request stream through the monitor so the
// process produces meaningful output without an instrumented host app.
func simulate(ctx context.Context, m *monitor.Monitor, rps int) {
	if rps <= 0 {
		rps = 50
	}
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		route := simRoutes[rng.Intn(len(simRoutes))]
		m.RequestStarted(route.path, route.method)

		duration := route.baseMs + rng.Float64()*route.jitterMs
		status := http.StatusOK
		switch {
		case rng.Float64() < route.errorRate:
			status = http.StatusInternalServerError
			duration *= 3
		case route.method == http.MethodPost && rng.Float64() < 0.3:
			status = http.StatusCreated
		}
		if rng.Float64() < 0.002 {
			status = http.StatusTooManyRequests
			m.RateLimitEvent(true)
		} else if rng.Float64() < 0.01 {
			m.RateLimitEvent(false)
		}

		m.RequestCompleted(route.path, route.method, duration, status)
	}
}
