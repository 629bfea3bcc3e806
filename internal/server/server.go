// Package server is the JSON facade the host UI talks to. It adapts HTTP to
// the coordinator components and maps the standard error taxonomy onto
// status codes. Rendering stays on the host side.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"engagement-coordinator/internal/common/errors"
	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/conversation"
	"engagement-coordinator/internal/matching"
	"engagement-coordinator/internal/models"
	"engagement-coordinator/internal/proposal"
	"engagement-coordinator/internal/role"
	"engagement-coordinator/internal/submission"
)

const (
	sessionHeader = "X-Session-ID"
	roleHeader    = "X-Active-Role"
)

// Server wires the coordinator components behind an HTTP listener.
type Server struct {
	resolver    *role.Resolver
	matching    *matching.Gateway
	proposals   *proposal.Manager
	submissions *submission.Manager
	deriver     *conversation.Deriver
	logger      logger.Logger
	httpServer  *http.Server
}

func New(addr string, resolver *role.Resolver, gw *matching.Gateway, pm *proposal.Manager, sm *submission.Manager, deriver *conversation.Deriver, log logger.Logger) *Server {
	s := &Server{
		resolver:    resolver,
		matching:    gw,
		proposals:   pm,
		submissions: sm,
		deriver:     deriver,
		logger:      log.WithFields(map[string]interface{}{"component": "server"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /role/resolve", s.handleResolveRole)
	mux.HandleFunc("POST /role/select", s.handleSelectRole)

	mux.HandleFunc("GET /projects/{id}/recommendations", s.handleRecommendations)
	mux.HandleFunc("POST /projects/{id}/recommendations/recalculate", s.handleRecalculate)

	mux.HandleFunc("POST /proposals", s.handleCreateProposal)
	mux.HandleFunc("GET /proposals", s.handleListProposals)
	mux.HandleFunc("POST /proposals/{id}/accept", s.handleAcceptProposal)
	mux.HandleFunc("POST /proposals/{id}/reject", s.handleRejectProposal)
	mux.HandleFunc("POST /proposals/{id}/cancel", s.handleCancelProposal)

	mux.HandleFunc("POST /submissions", s.handleCreateSubmission)
	mux.HandleFunc("GET /submissions", s.handleListSubmissions)
	mux.HandleFunc("PUT /submissions/{id}", s.handleEditSubmission)
	mux.HandleFunc("POST /submissions/{id}/cancel", s.handleCancelSubmission)
	mux.HandleFunc("POST /submissions/{id}/accept", s.handleAcceptSubmission)
	mux.HandleFunc("POST /submissions/{id}/reject", s.handleRejectSubmission)

	mux.HandleFunc("GET /conversations", s.handleConversations)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("facade listening", map[string]interface{}{"addr": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ==========================
// Helpers
// ==========================

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps the error taxonomy onto HTTP status codes. Upstream
// messages pass through verbatim.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch errors.CodeOf(err) {
	case errors.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	case errors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case errors.ErrCodeRoleMismatch:
		status = http.StatusForbidden
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidTransition:
		status = http.StatusConflict
	}

	var stdErr *errors.StandardError
	if e, ok := err.(*errors.StandardError); ok {
		stdErr = e
	} else {
		stdErr = errors.NewServerError(status, err.Error())
	}
	s.writeJSON(w, status, stdErr)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeError(w, errors.NewValidationError("malformed request body: "+err.Error()))
		return false
	}
	return true
}

func activeRole(r *http.Request) models.Role {
	return models.Role(r.Header.Get(roleHeader))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
