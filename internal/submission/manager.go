// Package submission owns the freelancer-initiated engagement state machine,
// mirror-symmetric to proposals: PENDING -> {ACCEPTED, REJECTED, CANCELED}.
// Edit and Cancel are only legal while PENDING; the persistence layer
// re-checks the precondition via expectedStatus on every mutation.
package submission

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

const entityName = "submission"

// CreateInput is the payload for a new application.
type CreateInput struct {
	ProjectID         string `json:"projectId"`
	CoverLetter       string `json:"coverLetter"`
	ProposedRate      int64  `json:"proposedRate"`
	EstimatedDuration int    `json:"estimatedDuration"`
}

func (in CreateInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.ProjectID, validation.Required),
		validation.Field(&in.CoverLetter, validation.Required),
		validation.Field(&in.ProposedRate, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.EstimatedDuration, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

// EditInput updates a still-pending submission in place; no status change.
type EditInput struct {
	CoverLetter       string `json:"coverLetter"`
	ProposedRate      int64  `json:"proposedRate"`
	EstimatedDuration int    `json:"estimatedDuration"`
}

func (in EditInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.CoverLetter, validation.Required),
		validation.Field(&in.ProposedRate, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.EstimatedDuration, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

type transitionRequest struct {
	ExpectedStatus models.EngagementStatus `json:"expectedStatus"`
}

type editRequest struct {
	EditInput
	ExpectedStatus models.EngagementStatus `json:"expectedStatus"`
}

// Manager drives the submission lifecycle against the upstream API.
type Manager struct {
	client *api.Client
	logger logger.Logger
}

func NewManager(client *api.Client, log logger.Logger) *Manager {
	return &Manager{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "submission-manager"}),
	}
}

// Create applies to an open project. Freelancer-only.
func (m *Manager) Create(ctx context.Context, actor models.Role, project *models.Project, input CreateInput) (*models.Submission, error) {
	if actor != models.RoleFreelancer {
		metrics.TransitionsRefused.WithLabelValues(entityName, string(errors.ErrCodeRoleMismatch)).Inc()
		return nil, errors.NewRoleMismatchError("create-submission", string(models.RoleFreelancer), string(actor))
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

	var created models.Submission
	if err := m.client.Do(ctx, "create-submission", http.MethodPost, "/submissions", input, &created); err != nil {
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues(entityName, string(models.StatusPending)).Inc()
	m.logger.Info("submission created", map[string]interface{}{
		"submissionId": created.ID,
		"projectId":    created.ProjectID,
	})
	return &created, nil
}

// Edit updates the cover letter, rate or duration of a still-pending
// submission. Rejected defensively once status has left PENDING, even though
// the UI hides the affordance.
func (m *Manager) Edit(ctx context.Context, actor models.Role, current *models.Submission, input EditInput) (*models.Submission, error) {
	if actor != models.RoleFreelancer {
		metrics.TransitionsRefused.WithLabelValues(entityName, string(errors.ErrCodeRoleMismatch)).Inc()
		return nil, errors.NewRoleMismatchError("edit-submission", string(models.RoleFreelancer), string(actor))
	}
	if current == nil {
		return nil, errors.NewNotFoundError(entityName, "")
	}
	if current.Status != models.StatusPending {
		metrics.TransitionsRefused.WithLabelValues(entityName, string(errors.ErrCodeInvalidTransition)).Inc()
		return nil, errors.NewInvalidTransitionError(entityName, string(current.Status), string(models.StatusPending))
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated models.Submission
	err := m.client.Do(ctx, "edit-submission", http.MethodPut, "/submissions/"+current.ID, editRequest{
		EditInput:      input,
		ExpectedStatus: models.StatusPending,
	}, &updated)
	if err != nil {
		return nil, err
	}

	m.logger.Info("submission edited", map[string]interface{}{"submissionId": current.ID})
	return &updated, nil
}

// Cancel withdraws a pending submission. Freelancer-only.
func (m *Manager) Cancel(ctx context.Context, actor models.Role, current *models.Submission) error {
	if err := m.guard(actor, models.RoleFreelancer, "cancel-submission", current, models.StatusCanceled); err != nil {
		return err
	}

	if err := m.client.Do(ctx, "cancel-submission", http.MethodDelete, "/submissions/"+current.ID, nil, nil); err != nil {
		return err
	}

	metrics.LifecycleTransitions.WithLabelValues(entityName, string(models.StatusCanceled)).Inc()
	m.logger.Info("submission canceled", map[string]interface{}{"submissionId": current.ID})
	return nil
}

// Accept moves a pending submission to ACCEPTED. PM-only.
func (m *Manager) Accept(ctx context.Context, actor models.Role, current *models.Submission) (*models.Submission, error) {
	if err := m.guard(actor, models.RolePM, "accept-submission", current, models.StatusAccepted); err != nil {
		return nil, err
	}
	return m.transition(ctx, "accept-submission", current, "/submissions/"+current.ID+"/accept", models.StatusAccepted)
}

// Reject moves a pending submission to REJECTED. PM-only.
func (m *Manager) Reject(ctx context.Context, actor models.Role, current *models.Submission) (*models.Submission, error) {
	if err := m.guard(actor, models.RolePM, "reject-submission", current, models.StatusRejected); err != nil {
		return nil, err
	}
	return m.transition(ctx, "reject-submission", current, "/submissions/"+current.ID+"/reject", models.StatusRejected)
}

// List returns the submissions visible to the caller.
func (m *Manager) List(ctx context.Context) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := m.client.Do(ctx, "list-submissions", http.MethodGet, "/submissions", nil, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (m *Manager) guard(actor, required models.Role, action string, current *models.Submission, to models.EngagementStatus) error {
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

func (m *Manager) transition(ctx context.Context, operation string, current *models.Submission, path string, to models.EngagementStatus) (*models.Submission, error) {
	var updated models.Submission
	err := m.client.Do(ctx, operation, http.MethodPut, path, transitionRequest{
		ExpectedStatus: models.StatusPending,
	}, &updated)
	if err != nil {
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues(entityName, string(to)).Inc()
	m.logger.Info("submission transitioned", map[string]interface{}{
		"submissionId": current.ID,
		"from":         current.Status,
		"to":           updated.Status,
	})
	return &updated, nil
}
