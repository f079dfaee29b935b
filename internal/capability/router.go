// Package capability routes a classified intent to one backend data
// source and shields callers from every provider failure: Route always
// returns usable structured data, degrading errors into an in-band payload
// the synthesizer can explain conversationally.
package capability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/intent"
)

// Provider is one backend data source. Calls must be read-only and
// side-effect-free on the underlying system.
type Provider interface {
	Name() intent.Capability
	Call(ctx context.Context, query string, params map[string]any) (map[string]any, error)
}

// RoutedResult is the routing outcome for one query. Data is nil when no
// backend call was needed.
type RoutedResult struct {
	Source          string
	Data            map[string]any
	Timestamp       time.Time
	ServedFromCache bool
}

// DefaultSource tags results that needed no backend call.
const DefaultSource = "general"

// Router dispatches intents to capability providers.
type Router struct {
	providers map[intent.Capability]Provider
	log       *zap.Logger
}

// NewRouter builds a router over the given providers. Registering two
// providers under the same capability is a programming error.
func NewRouter(log *zap.Logger, providers ...Provider) (*Router, error) {
	if log == nil {
		log = zap.NewNop()
	}
	byName := make(map[intent.Capability]Provider, len(providers))
	for _, p := range providers {
		if _, dup := byName[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate capability provider %q", p.Name())
		}
		byName[p.Name()] = p
	}
	return &Router{providers: byName, log: log}, nil
}

// Route invokes the provider named by the intent's target capability.
// It never returns an error: provider failures and unknown capabilities
// both produce a RoutedResult carrying a structured error payload tagged
// with the capability that failed.
func (r *Router) Route(ctx context.Context, it intent.Intent, query string) RoutedResult {
	now := time.Now()
	if it.Target == intent.CapabilityNone {
		return RoutedResult{Source: DefaultSource, Data: nil, Timestamp: now}
	}

	p, ok := r.providers[it.Target]
	if !ok {
		// Unreachable when the static intent table and the registered
		// providers agree; degraded identically to a provider failure.
		r.log.Error("no provider registered for capability", zap.String("capability", string(it.Target)))
		return RoutedResult{
			Source:    string(it.Target),
			Data:      errorPayload(fmt.Sprintf("no provider registered for %q", it.Target)),
			Timestamp: now,
		}
	}

	data, err := p.Call(ctx, query, it.Parameters)
	if err != nil {
		r.log.Warn("capability provider failed",
			zap.String("capability", string(it.Target)),
			zap.Error(err))
		return RoutedResult{
			Source:    string(it.Target),
			Data:      errorPayload(err.Error()),
			Timestamp: now,
		}
	}

	return RoutedResult{Source: string(it.Target), Data: data, Timestamp: now}
}

// IsErrorPayload reports whether routed data is the degraded error shape.
func IsErrorPayload(data map[string]any) bool {
	if data == nil {
		return false
	}
	v, ok := data["error"].(bool)
	return ok && v
}

func errorPayload(message string) map[string]any {
	return map[string]any{
		"error":      true,
		"message":    message,
		"suggestion": "The data source may be temporarily unavailable. Try rephrasing the question or check that the integration has the required permissions.",
	}
}
