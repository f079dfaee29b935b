// Package intent classifies a user query into an intent and the backend
// capability (if any) needed to answer it.
package intent

// Type is the inferred goal category for a query.
type Type string

const (
	TypeGeneral   Type = "general"
	TypeLogs      Type = "logs_query"
	TypeAnalytics Type = "analytics_query"
	TypeTraces    Type = "traces_query"
)

// Capability names one backend data source the router can invoke.
type Capability string

const (
	CapabilityNone      Capability = ""
	CapabilityLogs      Capability = "logs"
	CapabilityAnalytics Capability = "analytics"
	CapabilityTraces    Capability = "traces"
)

// Capabilities lists every routable capability.
var Capabilities = []Capability{CapabilityLogs, CapabilityAnalytics, CapabilityTraces}

// Intent is the classifier's structured decision for one query. Transient:
// produced per query, never persisted.
type Intent struct {
	Type       Type
	Confidence float64
	Target     Capability
	Parameters map[string]any
}
