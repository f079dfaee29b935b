package capability

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/oankit/cf-ai-observability-agent/internal/intent"
)

// LogsProvider simulates an edge log search backend. Real deployments
// would replace this with a Workers Logs / Logpush query client; the data
// shape is what the synthesizer consumes either way.
type LogsProvider struct{}

func (LogsProvider) Name() intent.Capability { return intent.CapabilityLogs }

var sampleLogMessages = []struct {
	level   string
	message string
	service string
}{
	{"error", "upstream connect timeout after 5000ms", "api-gateway"},
	{"error", "TypeError: Cannot read properties of undefined (reading 'id')", "worker-checkout"},
	{"error", "KV namespace read failed: 429 Too Many Requests", "worker-sessions"},
	{"warn", "request exceeded 50ms CPU budget, throttling", "worker-render"},
	{"warn", "cache MISS ratio above 40% for /api/products", "edge-cache"},
	{"info", "deployment v2.14.1 activated", "worker-checkout"},
	{"info", "scheduled cron completed in 312ms", "worker-cleanup"},
	{"error", "D1 query timeout: SELECT * FROM orders WHERE status = ?", "worker-orders"},
}

func (LogsProvider) Call(_ context.Context, _ string, params map[string]any) (map[string]any, error) {
	window := stringParam(params, "window", "1h")
	level := strings.ToLower(stringParam(params, "level", ""))
	filter := strings.ToLower(stringParam(params, "filter", ""))

	now := time.Now()
	var entries []map[string]any
	for i, s := range sampleLogMessages {
		if level != "" && !levelAtLeast(s.level, level) {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(s.message), filter) {
			continue
		}
		entries = append(entries, map[string]any{
			"timestamp": now.Add(-time.Duration(i*7+rand.Intn(5)) * time.Minute).UTC().Format(time.RFC3339),
			"level":     s.level,
			"message":   s.message,
			"service":   s.service,
		})
	}

	return map[string]any{
		"window":  window,
		"matched": len(entries),
		"entries": entries,
	}, nil
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func levelAtLeast(have, want string) bool {
	h, ok1 := levelRank[have]
	w, ok2 := levelRank[want]
	if !ok1 || !ok2 {
		return true
	}
	return h >= w
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
