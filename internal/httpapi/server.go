// Package httpapi exposes the query pipeline over HTTP. Thin by design:
// all interesting behavior lives in the conversation manager.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/conversation"
	"github.com/oankit/cf-ai-observability-agent/internal/observability"
)

const maxQueryBytes = 1 << 16

type Server struct {
	manager *conversation.Manager
	log     *zap.Logger
}

func New(manager *conversation.Manager, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{manager: manager, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/query", s.handleQuery)
	r.Get("/v1/sessions/{id}/history", s.handleHistory)
	r.Delete("/v1/sessions/{id}/history", s.handleClearHistory)
	r.Get("/v1/sessions/{id}/stats", s.handleStats)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type queryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type queryResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	// The manager never fails: every internal error is already degraded
	// into answer text.
	answer := s.manager.HandleQuery(r.Context(), req.SessionID, req.Query)
	respondJSON(w, http.StatusOK, queryResponse{SessionID: req.SessionID, Answer: answer})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := s.manager.History(r.Context(), id)
	if err != nil {
		s.log.Error("history read failed", zap.String("session", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "history": history})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.ClearHistory(r.Context(), id); err != nil {
		s.log.Error("history clear failed", zap.String("session", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not clear history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "cleared": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stats, err := s.manager.Stats(r.Context(), id)
	if err != nil {
		s.log.Error("stats read failed", zap.String("session", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not read stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// corsMiddleware allows browser clients from any origin. The API carries
// no credentials, so a permissive policy is acceptable here.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message})
}
