package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/oankit/cf-ai-observability-agent/internal/provider"
)

type fakeOracle struct {
	sel *provider.Selection
	err error
}

func (f fakeOracle) Classify(context.Context, *provider.ClassifyRequest) (*provider.Selection, error) {
	return f.sel, f.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		oracle         fakeOracle
		wantType       Type
		wantTarget     Capability
		wantConfidence float64
	}{
		{
			name:           "logs_selected",
			oracle:         fakeOracle{sel: &provider.Selection{Capability: "query_logs", Arguments: map[string]any{"level": "error"}}},
			wantType:       TypeLogs,
			wantTarget:     CapabilityLogs,
			wantConfidence: 0.9,
		},
		{
			name:           "analytics_selected",
			oracle:         fakeOracle{sel: &provider.Selection{Capability: "query_analytics"}},
			wantType:       TypeAnalytics,
			wantTarget:     CapabilityAnalytics,
			wantConfidence: 0.9,
		},
		{
			name:           "traces_selected",
			oracle:         fakeOracle{sel: &provider.Selection{Capability: "query_traces"}},
			wantType:       TypeTraces,
			wantTarget:     CapabilityTraces,
			wantConfidence: 0.9,
		},
		{
			name:           "no_selection",
			oracle:         fakeOracle{sel: nil},
			wantType:       TypeGeneral,
			wantTarget:     CapabilityNone,
			wantConfidence: 0.5,
		},
		{
			name:           "unknown_capability_name",
			oracle:         fakeOracle{sel: &provider.Selection{Capability: "query_billing"}},
			wantType:       TypeGeneral,
			wantTarget:     CapabilityNone,
			wantConfidence: 0.5,
		},
		{
			name:           "oracle_failure_degrades",
			oracle:         fakeOracle{err: errors.New("timeout")},
			wantType:       TypeGeneral,
			wantTarget:     CapabilityNone,
			wantConfidence: 0.3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(tc.oracle, nil)
			got := c.Classify(context.Background(), "some query")
			if got.Type != tc.wantType {
				t.Fatalf("Type = %q, want %q", got.Type, tc.wantType)
			}
			if got.Target != tc.wantTarget {
				t.Fatalf("Target = %q, want %q", got.Target, tc.wantTarget)
			}
			if got.Confidence != tc.wantConfidence {
				t.Fatalf("Confidence = %v, want %v", got.Confidence, tc.wantConfidence)
			}
			if got.Parameters == nil {
				t.Fatal("Parameters must never be nil")
			}
		})
	}
}

func TestClassifyPassesOracleArguments(t *testing.T) {
	c := NewClassifier(fakeOracle{sel: &provider.Selection{
		Capability: "query_logs",
		Arguments:  map[string]any{"level": "error", "window": "1h"},
	}}, nil)

	got := c.Classify(context.Background(), "show error logs")
	if got.Parameters["level"] != "error" || got.Parameters["window"] != "1h" {
		t.Fatalf("Parameters = %v, want oracle arguments passed through", got.Parameters)
	}
}

func TestValidateTable(t *testing.T) {
	if err := ValidateTable(); err != nil {
		t.Fatalf("static table inconsistent: %v", err)
	}
}
