// Package server exposes tutor sessions over HTTP. Replies stream to the
// client as server-sent events.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/logger"
	"github.com/comigor/tutor-go/internal/tutor"
)

// Server routes HTTP requests to the sessions of a registry.
type Server struct {
	registry *tutor.Registry
	mux      *http.ServeMux
}

// New creates a Server for registry.
func New(registry *tutor.Registry) *Server {
	s := &Server{registry: registry, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /suggestions", s.handleSuggestions)
	s.mux.HandleFunc("POST /sessions", s.handleCreateSession)
	s.mux.HandleFunc("DELETE /sessions/{id}", s.handleEndSession)
	s.mux.HandleFunc("PUT /sessions/{id}/credential", s.handleSetCredential)
	s.mux.HandleFunc("GET /sessions/{id}/turns", s.handleListTurns)
	s.mux.HandleFunc("DELETE /sessions/{id}/turns", s.handleResetTurns)
	s.mux.HandleFunc("POST /sessions/{id}/prompt", s.handlePrompt)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.L.Info("starting server", "address", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.L.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

type sessionResponse struct {
	ID string `json:"id"`
}

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.registry.Len()})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tutor.SuggestedQuestions)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.registry.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID()})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.End(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var body credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}
	sess.SetCredential(body.APIKey)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTurns(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	turns, err := sess.Turns()
	if err != nil {
		writeError(w, err)
		return
	}
	if turns == nil {
		turns = []conversation.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) handleResetTurns(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.ResetConversation(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var body promptRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}
	logger.L.Info("prompt request", "session", sess.ID(), "prompt_len", len(body.Prompt))

	// The stream only sees this exchange; headers go out with its first event.
	events := newEventStream(w)
	err = sess.SubmitPrompt(r.Context(), body.Prompt, events)
	if err != nil && !events.Started() {
		// Rejected before any event was produced, e.g. a concurrent exchange.
		writeError(w, err)
		return
	}
	if err != nil {
		logger.L.Debug("prompt failed", "session", sess.ID(), "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tutor.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, tutor.ErrExchangeInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.L.Error("request failed", "error", err)
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Warn("failed to write response", "error", err)
	}
}
