// Package httpapi is the ingress/egress adapter for the engine: a
// minimal net/http server exposing POST /traversals, GET
// /results/latest, and DELETE /results/latest, instrumented with
// OpenTelemetry spans the way internal/compact/haiku.go traces each
// Anthropic call.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Hidde-Heijnen/know-your-rights/internal/decisionlog"
	"github.com/Hidde-Heijnen/know-your-rights/internal/engine"
	"github.com/Hidde-Heijnen/know-your-rights/internal/telemetry"
)

// Server exposes the engine over HTTP.
type Server struct {
	Engine *engine.Engine
	Store  *decisionlog.Store
	mux    *http.ServeMux
}

// NewServer builds a Server ready to be passed to http.ListenAndServe.
func NewServer(eng *engine.Engine, store *decisionlog.Store) *Server {
	s := &Server{Engine: eng, Store: store, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /traversals", s.handleStartTraversal)
	s.mux.HandleFunc("GET /results/latest", s.handleGetLatest)
	s.mux.HandleFunc("DELETE /results/latest", s.handleDeleteLatest)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type startTraversalRequest struct {
	Document []byte         `json:"document"`
	CaseInfo map[string]any `json:"caseInfo"`
	MaxDepth *int           `json:"maxDepth,omitempty"`
}

func (s *Server) handleStartTraversal(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.Tracer("httpapi").Start(r.Context(), "POST /traversals")
	defer span.End()

	var req startTraversalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.Engine.Run(ctx, req.Document, req.CaseInfo, req.MaxDepth)
	if err != nil {
		span.SetAttributes(attribute.Bool("error", true))
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	_, span := telemetry.Tracer("httpapi").Start(r.Context(), "GET /results/latest")
	defer span.End()

	result, ok, err := s.Store.Get()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if !ok {
		http.Error(w, "no result available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteLatest(w http.ResponseWriter, r *http.Request) {
	_, span := telemetry.Tracer("httpapi").Start(r.Context(), "DELETE /results/latest")
	defer span.End()

	if err := s.Store.Clear(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// shutdownContext bounds how long graceful shutdown waits, matching the
// teacher's general preference for explicit deadlines over unbounded
// blocking on shutdown paths.
func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
