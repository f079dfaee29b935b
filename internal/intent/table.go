package intent

import (
	"fmt"

	"github.com/oankit/cf-ai-observability-agent/internal/provider"
)

// Descriptors is the static capability table offered to the classification
// oracle. Each entry describes one backend data source and its typed
// parameter schema.
var Descriptors = []provider.CapabilitySchema{
	{
		Name:        "query_logs",
		Description: "Search application and edge logs. Use for questions about errors, exceptions, warnings, specific log lines, or events in a time window.",
		Parameters: map[string]any{
			"level": map[string]any{
				"type":        "string",
				"description": "Minimum log level to include: debug, info, warn, or error.",
			},
			"window": map[string]any{
				"type":        "string",
				"description": "Time window to search, e.g. '1h', '24h'.",
			},
			"filter": map[string]any{
				"type":        "string",
				"description": "Free-text filter applied to log messages.",
			},
		},
	},
	{
		Name:        "query_analytics",
		Description: "Fetch aggregate traffic and performance analytics. Use for questions about request volume, error rates, latency percentiles, or bandwidth.",
		Parameters: map[string]any{
			"metric": map[string]any{
				"type":        "string",
				"description": "Metric of interest: requests, errors, latency, or bandwidth.",
			},
			"window": map[string]any{
				"type":        "string",
				"description": "Aggregation window, e.g. '1h', '24h', '7d'.",
			},
		},
	},
	{
		Name:        "query_traces",
		Description: "Retrieve distributed trace data. Use for questions about slow requests, span durations, service dependencies, or a specific trace id.",
		Parameters: map[string]any{
			"trace_id": map[string]any{
				"type":        "string",
				"description": "Specific trace identifier to look up.",
			},
			"min_duration_ms": map[string]any{
				"type":        "number",
				"description": "Only include traces slower than this many milliseconds.",
			},
		},
	},
}

type mapping struct {
	Type   Type
	Target Capability
}

// routing maps oracle capability names to intent outcomes. Any name absent
// from this table is treated identically to "no capability selected".
var routing = map[string]mapping{
	"query_logs":      {Type: TypeLogs, Target: CapabilityLogs},
	"query_analytics": {Type: TypeAnalytics, Target: CapabilityAnalytics},
	"query_traces":    {Type: TypeTraces, Target: CapabilityTraces},
}

// ValidateTable checks that the descriptor table and routing table agree.
// Called at startup; an inconsistency here is a programming error.
func ValidateTable() error {
	if len(routing) != len(Descriptors) {
		return fmt.Errorf("intent table: %d descriptors but %d routing rows", len(Descriptors), len(routing))
	}
	for _, d := range Descriptors {
		m, ok := routing[d.Name]
		if !ok {
			return fmt.Errorf("intent table: descriptor %q has no routing row", d.Name)
		}
		if m.Target == CapabilityNone {
			return fmt.Errorf("intent table: descriptor %q routes to no capability", d.Name)
		}
	}
	return nil
}
