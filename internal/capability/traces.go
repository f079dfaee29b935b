package capability

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/oankit/cf-ai-observability-agent/internal/intent"
)

// TracesProvider simulates a distributed tracing backend.
type TracesProvider struct{}

func (TracesProvider) Name() intent.Capability { return intent.CapabilityTraces }

var sampleSpans = []struct {
	name    string
	service string
	baseMS  int
}{
	{"HTTP GET /api/products", "api-gateway", 120},
	{"kv.get session", "worker-sessions", 18},
	{"d1.query orders", "worker-orders", 340},
	{"fetch origin", "api-gateway", 95},
	{"render template", "worker-render", 60},
}

func (TracesProvider) Call(_ context.Context, _ string, params map[string]any) (map[string]any, error) {
	minDuration := 0.0
	if v, ok := params["min_duration_ms"].(float64); ok {
		minDuration = v
	}

	traceID := stringParam(params, "trace_id", "")
	if traceID == "" {
		traceID = uuid.NewString()
	}

	now := time.Now()
	var spans []map[string]any
	var total int
	for i, s := range sampleSpans {
		dur := s.baseMS + rand.Intn(s.baseMS/2+1)
		if float64(dur) < minDuration {
			continue
		}
		total += dur
		spans = append(spans, map[string]any{
			"span_id":     fmt.Sprintf("span-%02d", i+1),
			"name":        s.name,
			"service":     s.service,
			"duration_ms": dur,
			"started_at":  now.Add(-time.Duration(total) * time.Millisecond).UTC().Format(time.RFC3339Nano),
			"status":      spanStatus(dur),
		})
	}

	return map[string]any{
		"trace_id":          traceID,
		"span_count":        len(spans),
		"total_duration_ms": total,
		"spans":             spans,
	}, nil
}

func spanStatus(durationMS int) string {
	if durationMS > 300 {
		return "slow"
	}
	return "ok"
}
