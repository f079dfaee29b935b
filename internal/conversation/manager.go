package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/capability"
	"github.com/oankit/cf-ai-observability-agent/internal/intent"
	"github.com/oankit/cf-ai-observability-agent/internal/memory"
	"github.com/oankit/cf-ai-observability-agent/internal/observability"
	"github.com/oankit/cf-ai-observability-agent/internal/synth"
)

// errorAnswer is the fixed-shape reply for failures that escape every
// inner degradation path. Callers always receive a text answer.
const errorAnswer = "I'm sorry — something went wrong while handling that question. Please try again, or rephrase it."

// Stats is the read-only counter view for one session.
type Stats struct {
	TotalQueries    int            `json:"total_queries"`
	CacheHits       int            `json:"cache_hits"`
	CapabilityCalls map[string]int `json:"capability_calls"`
	LastActivity    time.Time      `json:"last_activity"`
}

// Manager orchestrates the query pipeline and owns all session state
// mutation. Operations on the same session id are serialized through a
// per-session lock; sessions are otherwise fully independent.
type Manager struct {
	store       Store
	cache       *memory.Cache
	classifier  *intent.Classifier
	router      *capability.Router
	synthesizer *synth.Synthesizer
	metrics     *observability.Metrics
	log         *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, cache *memory.Cache, classifier *intent.Classifier, router *capability.Router, synthesizer *synth.Synthesizer, metrics *observability.Metrics, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store:       store,
		cache:       cache,
		classifier:  classifier,
		router:      router,
		synthesizer: synthesizer,
		metrics:     metrics,
		log:         log,
		locks:       make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing operations for one session id.
func (m *Manager) sessionLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// loadOrCreate fetches session state or creates defaults. A load failure
// degrades to a fresh session rather than failing the query.
func (m *Manager) loadOrCreate(ctx context.Context, id string) *SessionState {
	state, err := m.store.Load(ctx, id)
	if err != nil {
		m.log.Warn("session load failed, starting fresh", zap.String("session", id), zap.Error(err))
	}
	if state == nil {
		state = NewSessionState(id)
	}
	return state
}

// persist writes the full session state. Failures are logged and
// swallowed: persistence must never surface to the caller.
func (m *Manager) persist(ctx context.Context, state *SessionState) {
	if err := m.store.Save(ctx, state); err != nil {
		m.log.Error("session persist failed", zap.String("session", state.ID), zap.Error(err))
	}
}

// HandleQuery runs the full pipeline for one query and always returns a
// text answer, never an error.
func (m *Manager) HandleQuery(ctx context.Context, sessionID, query string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("query handling panicked", zap.String("session", sessionID), zap.Any("panic", r))
			m.metrics.RecordQuery(observability.OutcomeError)
			answer = errorAnswer
		}
	}()

	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state := m.loadOrCreate(ctx, sessionID)
	state.LastActivity = time.Now()
	state.Counters.TotalQueries++

	// Cache lookup: a hit short-circuits the whole pipeline and does not
	// touch history.
	lookupStart := time.Now()
	match, hit := m.cache.Search(ctx, query)
	m.metrics.ObserveCacheLookup(time.Since(lookupStart))
	if hit {
		state.Counters.CacheHits++
		m.persist(ctx, state)
		m.metrics.RecordQuery(observability.OutcomeCacheHit)
		m.log.Info("query served from cache",
			zap.String("session", sessionID),
			zap.String("source", match.Source),
			zap.Float64("score", match.Score))
		return fmt.Sprintf("%s\n\n[cached · %s · %.1f%% match]", match.Answer, match.Source, match.Score*100)
	}

	it := m.classifier.Classify(ctx, query)

	var source string
	if it.Target != intent.CapabilityNone {
		routed := m.router.Route(ctx, it, query)
		source = routed.Source
		state.Counters.CapabilityCalls[source]++
		if capability.IsErrorPayload(routed.Data) {
			state.ConnectionFlags[source] = false
			m.metrics.RecordCapabilityCall(source, "error")
		} else {
			state.ConnectionFlags[source] = true
			m.metrics.RecordCapabilityCall(source, "ok")
		}
		answer = m.synthesizer.Synthesize(ctx, query, routed, state.FormatContext())
		m.metrics.RecordQuery(observability.OutcomeRouted)
	} else {
		source = capability.DefaultSource
		answer = m.synthesizer.GenerateDirect(ctx, query)
		m.metrics.RecordQuery(observability.OutcomeDirect)
	}

	// Best-effort: never blocks or fails the response.
	m.cache.Store(ctx, query, answer, source)

	now := time.Now()
	state.Append(RoleUser, query, now)
	state.Append(RoleAssistant, answer, now)
	m.persist(ctx, state)

	m.log.Info("query answered",
		zap.String("session", sessionID),
		zap.String("intent", string(it.Type)),
		zap.String("source", source),
		zap.Float64("confidence", it.Confidence))
	return answer
}

// History returns the most recent messages for a session.
func (m *Manager) History(ctx context.Context, sessionID string) ([]Message, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return []Message{}, nil
	}
	return state.RecentHistory(), nil
}

// ClearHistory drops a session's conversation history but keeps counters.
func (m *Manager) ClearHistory(ctx context.Context, sessionID string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	state.History = nil
	state.LastActivity = time.Now()
	return m.store.Save(ctx, state)
}

// Stats returns the counter view for a session.
func (m *Manager) Stats(ctx context.Context, sessionID string) (Stats, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return Stats{}, err
	}
	if state == nil {
		return Stats{CapabilityCalls: map[string]int{}}, nil
	}
	calls := make(map[string]int, len(state.Counters.CapabilityCalls))
	for k, v := range state.Counters.CapabilityCalls {
		calls[k] = v
	}
	return Stats{
		TotalQueries:    state.Counters.TotalQueries,
		CacheHits:       state.Counters.CacheHits,
		CapabilityCalls: calls,
		LastActivity:    state.LastActivity,
	}, nil
}
