// Package conversation owns per-session state and the query orchestration
// that ties the semantic cache, intent classifier, capability router, and
// response synthesizer together.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/oankit/cf-ai-observability-agent/internal/intent"
)

const (
	// maxHistory is the hard cap on stored history; the oldest messages
	// are dropped on every append past the cap.
	maxHistory = 20

	// contextWindow and contextSnippet bound what recent history is fed
	// back into the generation prompt.
	contextWindow  = 4
	contextSnippet = 200

	// historyView is how many messages the read-only history accessor
	// returns.
	historyView = 10
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn. Immutable once appended.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Counters holds per-session usage counters.
type Counters struct {
	TotalQueries    int            `json:"total_queries"`
	CacheHits       int            `json:"cache_hits"`
	CapabilityCalls map[string]int `json:"capability_calls"`
}

// SessionState is the full durable state for one session. It is owned
// exclusively by the manager's per-session lock; storage is a full-state
// overwrite keyed by session id.
type SessionState struct {
	ID              string          `json:"id"`
	History         []Message       `json:"history"`
	Counters        Counters        `json:"counters"`
	LastActivity    time.Time       `json:"last_activity"`
	ConnectionFlags map[string]bool `json:"connection_flags"`
}

// NewSessionState creates a session with default state.
func NewSessionState(id string) *SessionState {
	flags := make(map[string]bool, len(intent.Capabilities))
	for _, c := range intent.Capabilities {
		flags[string(c)] = false
	}
	return &SessionState{
		ID:              id,
		Counters:        Counters{CapabilityCalls: make(map[string]int)},
		LastActivity:    time.Now(),
		ConnectionFlags: flags,
	}
}

// Append adds a message, enforcing the history cap by dropping oldest.
func (s *SessionState) Append(role, content string, now time.Time) {
	s.History = append(s.History, Message{Role: role, Content: content, Timestamp: now})
	if n := len(s.History); n > maxHistory {
		s.History = append(s.History[:0:0], s.History[n-maxHistory:]...)
	}
}

// ConversationContext returns the most recent messages used as LLM
// context: at most contextWindow of them, content truncated to
// contextSnippet characters each.
func (s *SessionState) ConversationContext() []Message {
	start := len(s.History) - contextWindow
	if start < 0 {
		start = 0
	}
	out := make([]Message, 0, len(s.History)-start)
	for _, m := range s.History[start:] {
		m.Content = truncate(m.Content, contextSnippet)
		out = append(out, m)
	}
	return out
}

// FormatContext renders the context window as prompt text. Empty when the
// session has no history.
func (s *SessionState) FormatContext() string {
	msgs := s.ConversationContext()
	if len(msgs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RecentHistory returns up to historyView most recent messages.
func (s *SessionState) RecentHistory() []Message {
	start := len(s.History) - historyView
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(s.History)-start)
	copy(out, s.History[start:])
	return out
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
