package server

import (
	"net/http"

	"engagement-coordinator/internal/common/errors"
	"engagement-coordinator/internal/conversation"
	"engagement-coordinator/internal/matching"
	"engagement-coordinator/internal/models"
	"engagement-coordinator/internal/proposal"
	"engagement-coordinator/internal/submission"
)

// ==========================
// Role resolution
// ==========================

type resolveRequest struct {
	Member models.Member `json:"member"`
}

func (s *Server) handleResolveRole(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		s.writeError(w, errors.NewValidationError(sessionHeader+" header is required"))
		return
	}

	var req resolveRequest
	if !s.decode(w, r, &req) {
		return
	}

	resolution, err := s.resolver.Resolve(r.Context(), sessionID, &req.Member)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resolution)
}

type selectRequest struct {
	Member models.Member `json:"member"`
	Role   models.Role   `json:"role"`
}

func (s *Server) handleSelectRole(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		s.writeError(w, errors.NewValidationError(sessionHeader+" header is required"))
		return
	}

	var req selectRequest
	if !s.decode(w, r, &req) {
		return
	}

	resolution, err := s.resolver.Select(r.Context(), sessionID, &req.Member, req.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resolution)
}

// ==========================
// Recommendations
// ==========================

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	s.matching.SetTarget(projectID)

	list, err := s.matching.Recommendations(r.Context(), projectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": list})
}

type recalculateBody struct {
	Scope matching.Scope `json:"scope"`
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	var req recalculateBody
	if !s.decode(w, r, &req) {
		return
	}

	// A freelancer may only recompute their own score.
	if activeRole(r) == models.RoleFreelancer && req.Scope != matching.ScopeSelf {
		s.writeError(w, errors.NewRoleMismatchError("recalculate-full", string(models.RolePM), string(models.RoleFreelancer)))
		return
	}

	if err := s.matching.Recalculate(r.Context(), r.PathValue("id"), req.Scope); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "recalculated"})
}

// ==========================
// Proposals
// ==========================

type createProposalRequest struct {
	Project models.Project       `json:"project"`
	Input   proposal.CreateInput `json:"input"`
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if !s.decode(w, r, &req) {
		return
	}

	created, err := s.proposals.Create(r.Context(), activeRole(r), &req.Project, req.Input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := s.proposals.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, proposals)
}

type proposalActionRequest struct {
	Current         models.Proposal `json:"current"`
	ResponseMessage string          `json:"responseMessage,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
}

func (s *Server) handleAcceptProposal(w http.ResponseWriter, r *http.Request) {
	var req proposalActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	updated, err := s.proposals.Accept(r.Context(), activeRole(r), &req.Current, req.ResponseMessage)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRejectProposal(w http.ResponseWriter, r *http.Request) {
	var req proposalActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	updated, err := s.proposals.Reject(r.Context(), activeRole(r), &req.Current, req.ResponseMessage, req.RejectionReason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleCancelProposal(w http.ResponseWriter, r *http.Request) {
	var req proposalActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.proposals.Cancel(r.Context(), activeRole(r), &req.Current); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// ==========================
// Submissions
// ==========================

type createSubmissionRequest struct {
	Project models.Project         `json:"project"`
	Input   submission.CreateInput `json:"input"`
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if !s.decode(w, r, &req) {
		return
	}

	created, err := s.submissions.Create(r.Context(), activeRole(r), &req.Project, req.Input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := s.submissions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, submissions)
}

type submissionActionRequest struct {
	Current models.Submission    `json:"current"`
	Input   submission.EditInput `json:"input,omitempty"`
}

func (s *Server) handleEditSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	updated, err := s.submissions.Edit(r.Context(), activeRole(r), &req.Current, req.Input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleCancelSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.submissions.Cancel(r.Context(), activeRole(r), &req.Current); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAcceptSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	updated, err := s.submissions.Accept(r.Context(), activeRole(r), &req.Current)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRejectSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	updated, err := s.submissions.Reject(r.Context(), activeRole(r), &req.Current)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// ==========================
// Conversations
// ==========================

// handleConversations is the explicit Refresh entry point: it re-fetches
// both engagement lists and re-derives the thread list on every call.
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	proposals, err := s.proposals.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	submissions, err := s.submissions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	list := s.deriver.Derive(r.Context(), activeRole(r), proposals, submissions)

	if q := r.URL.Query().Get("q"); q != "" {
		list = conversation.Filter(list, q)
	}
	if r.URL.Query().Get("unread") == "true" {
		list = conversation.FilterUnread(list)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": list})
}
