package models

import "time"

// Submission is a freelancer-initiated application to a project.
type Submission struct {
	ID                string           `json:"id"`
	ProjectID         string           `json:"projectId"`
	FreelancerID      string           `json:"freelancerId"`
	CoverLetter       string           `json:"coverLetter"`
	ProposedRate      int64            `json:"proposedRate"`
	EstimatedDuration int              `json:"estimatedDuration"` // days
	Status            EngagementStatus `json:"status"`
	AppliedAt         time.Time        `json:"appliedAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// ActivityAt is the most recent mutation timestamp, used for conversation
// dedup ordering.
func (s *Submission) ActivityAt() time.Time {
	if s.UpdatedAt.After(s.AppliedAt) {
		return s.UpdatedAt
	}
	return s.AppliedAt
}
