// Package proposal owns the PM-initiated engagement state machine:
// PENDING -> {ACCEPTED, REJECTED, CANCELED}, no exit from any terminal
// state. All truth lives server-side; local state is only ever updated from
// the server response.
package proposal

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"engagement-coordinator/internal/common/api"
	"engagement-coordinator/internal/common/errors"
	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/common/metrics"
	"engagement-coordinator/internal/models"
)

const entityName = "proposal"

// CreateInput is the payload for a new proposal.
type CreateInput struct {
	ProjectID    string `json:"projectId"`
	FreelancerID string `json:"freelancerId"`
	Message      string `json:"message"`
}

func (in CreateInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.ProjectID, validation.Required),
		validation.Field(&in.FreelancerID, validation.Required),
		validation.Field(&in.Message, validation.Required, validation.RuneLength(models.ProposalMessageMinLen, 0)),
	)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

// transitionRequest carries the expected current status so the persistence
// layer can compare-and-set instead of trusting the client's view.
type transitionRequest struct {
	ResponseMessage string                  `json:"responseMessage,omitempty"`
	RejectionReason string                  `json:"rejectionReason,omitempty"`
	ExpectedStatus  models.EngagementStatus `json:"expectedStatus"`
}

// Manager drives the proposal lifecycle against the upstream API.
type Manager struct {
	client *api.Client
	logger logger.Logger
}

func NewManager(client *api.Client, log logger.Logger) *Manager {
	return &Manager{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "proposal-manager"}),
	}
}

// Create sends a proposal to a ranked freelancer. PM-only; the target
// project must still be recruiting. Input validation happens before any
// network call.
func (m *Manager) Create(ctx context.Context, actor models.Role, project *models.Project, input CreateInput) (*models.Proposal, error) {
	if actor != models.RolePM {
		metrics.TransitionsRefused.WithLabelValues(entityName, string(errors.ErrCodeRoleMismatch)).Inc()
		return nil, errors.NewRoleMismatchError("create-proposal", string(models.RolePM), string(actor))
	}
	if project == nil {
		return nil, errors.NewNotFoundError("project", input.ProjectID)
	}
	if !project.AcceptsEngagements() {
		metrics.TransitionsRefused.WithLabelValues(entityName, string(errors.ErrCodeInvalidTransition)).Inc()
		return nil, errors.NewInvalidTransitionError(entityName, string(project.Status), string(models.StatusPending))
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created models.Proposal
	if err := m.client.Do(ctx, "create-proposal", http.MethodPost, "/proposals", input, &created); err != nil {
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues(entityName, string(models.StatusPending)).Inc()
	m.logger.Info("proposal created", map[string]interface{}{
		"proposalId":   created.ID,
		"projectId":    created.ProjectID,
		"freelancerId": created.FreelancerID,
	})
	return &created, nil
}

// Accept moves a pending proposal to ACCEPTED. Freelancer-only. An empty
// response message falls back to a canned acceptance string.
func (m *Manager) Accept(ctx context.Context, actor models.Role, current *models.Proposal, responseMessage string) (*models.Proposal, error) {
	if err := m.guard(actor, models.RoleFreelancer, "accept-proposal", current, models.StatusAccepted); err != nil {
		return nil, err
	}
	if responseMessage == "" {
		responseMessage = models.DefaultAcceptMessage
	}

	return m.transition(ctx, "accept-proposal", current, "/proposals/"+current.ID+"/accept", transitionRequest{
		ResponseMessage: responseMessage,
		ExpectedStatus:  models.StatusPending,
	}, models.StatusAccepted)
}

// Reject moves a pending proposal to REJECTED. Freelancer-only; a response
// message is required, the rejection reason is optional.
func (m *Manager) Reject(ctx context.Context, actor models.Role, current *models.Proposal, responseMessage, rejectionReason string) (*models.Proposal, error) {
	if err := m.guard(actor, models.RoleFreelancer, "reject-proposal", current, models.StatusRejected); err != nil {
		return nil, err
	}
	if responseMessage == "" {
		return nil, errors.NewValidationError("a response message is required to reject a proposal")
	}

	return m.transition(ctx, "reject-proposal", current, "/proposals/"+current.ID+"/reject", transitionRequest{
		ResponseMessage: responseMessage,
		RejectionReason: rejectionReason,
		ExpectedStatus:  models.StatusPending,
	}, models.StatusRejected)
}

// Cancel withdraws a pending proposal. PM-only.
func (m *Manager) Cancel(ctx context.Context, actor models.Role, current *models.Proposal) error {
	if err := m.guard(actor, models.RolePM, "cancel-proposal", current, models.StatusCanceled); err != nil {
		return err
	}

	if err := m.client.Do(ctx, "cancel-proposal", http.MethodDelete, "/proposals/"+current.ID, nil, nil); err != nil {
		return err
	}

	metrics.LifecycleTransitions.WithLabelValues(entityName, string(models.StatusCanceled)).Inc()
	m.logger.Info("proposal canceled", map[string]interface{}{"proposalId": current.ID})
	return nil
}

// List returns the proposals visible to the caller; upstream scopes the
// result to the caller's role.
func (m *Manager) List(ctx context.Context) ([]models.Proposal, error) {
	var proposals []models.Proposal
	if err := m.client.Do(ctx, "list-proposals", http.MethodGet, "/proposals", nil, &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

// guard enforces actor role and the transition table locally, before any
// network call. A refused transition never mutates state.
func (m *Manager) guard(actor, required models.Role, action string, current *models.Proposal, to models.EngagementStatus) error {
	if actor != required {
		metrics.TransitionsRefused.WithLabelValues(entityName, string(errors.ErrCodeRoleMismatch)).Inc()
		return errors.NewRoleMismatchError(action, string(required), string(actor))
	}
	if current == nil {
		return errors.NewNotFoundError(entityName, "")
	}
	if !models.CanTransition(current.Status, to) {
		metrics.TransitionsRefused.WithLabelValues(entityName, string(errors.ErrCodeInvalidTransition)).Inc()
		return errors.NewInvalidTransitionError(entityName, string(current.Status), string(to))
	}
	return nil
}

func (m *Manager) transition(ctx context.Context, operation string, current *models.Proposal, path string, req transitionRequest, to models.EngagementStatus) (*models.Proposal, error) {
	var updated models.Proposal
	if err := m.client.Do(ctx, operation, http.MethodPut, path, req, &updated); err != nil {
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues(entityName, string(to)).Inc()
	m.logger.Info("proposal transitioned", map[string]interface{}{
		"proposalId": current.ID,
		"from":       current.Status,
		"to":         updated.Status,
	})
	return &updated, nil
}
