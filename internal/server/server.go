// Package server exposes the game over HTTP: a websocket endpoint carrying
// the action envelope, plus health and metrics endpoints.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"cribbage/internal/session"
	"cribbage/internal/storage"
)

// Server routes HTTP traffic to the orchestrator and the metrics store.
type Server struct {
	handler http.Handler
	manager *session.Manager
	store   *storage.Store
	log     zerolog.Logger
}

// New creates a server with all routes registered.
func New(manager *session.Manager, store *storage.Store, log zerolog.Logger) *Server {
	s := &Server{manager: manager, store: store, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	s.handler = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	}).Handler(mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Metrics(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("read metrics")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "metrics unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
