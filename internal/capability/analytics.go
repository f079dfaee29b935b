package capability

import (
	"context"
	"math/rand"

	"github.com/oankit/cf-ai-observability-agent/internal/intent"
)

// AnalyticsProvider simulates an aggregate traffic analytics backend
// (the GraphQL Analytics API in a real deployment).
type AnalyticsProvider struct{}

func (AnalyticsProvider) Name() intent.Capability { return intent.CapabilityAnalytics }

func (AnalyticsProvider) Call(_ context.Context, _ string, params map[string]any) (map[string]any, error) {
	window := stringParam(params, "window", "24h")
	metric := stringParam(params, "metric", "requests")

	requests := 180000 + rand.Intn(40000)
	errors := 1200 + rand.Intn(800)

	return map[string]any{
		"window": window,
		"metric": metric,
		"totals": map[string]any{
			"requests":   requests,
			"errors":     errors,
			"error_rate": float64(errors) / float64(requests),
		},
		"latency_ms": map[string]any{
			"p50": 42 + rand.Intn(10),
			"p95": 180 + rand.Intn(60),
			"p99": 450 + rand.Intn(200),
		},
		"bandwidth_gb": 12.4 + rand.Float64()*4,
		"top_paths": []map[string]any{
			{"path": "/api/products", "requests": requests / 4},
			{"path": "/api/checkout", "requests": requests / 9},
			{"path": "/", "requests": requests / 12},
		},
	}, nil
}
