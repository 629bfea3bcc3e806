package models

import "time"

// Minimum length of a proposal message, enforced at creation time only.
const ProposalMessageMinLen = 10

// DefaultAcceptMessage is used when a freelancer accepts without writing a
// response.
const DefaultAcceptMessage = "Thank you for the proposal. I would be glad to work on this project."

// Proposal is a PM-initiated invitation to a specific freelancer for a
// specific project.
type Proposal struct {
	ID              string           `json:"id"`
	ProjectID       string           `json:"projectId"`
	PMID            string           `json:"pmId"`
	FreelancerID    string           `json:"freelancerId"`
	Message         string           `json:"message"`
	Status          EngagementStatus `json:"status"`
	ResponseMessage string           `json:"responseMessage,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ActivityAt is the most recent mutation timestamp, used for conversation
// dedup ordering.
func (p *Proposal) ActivityAt() time.Time {
	if p.UpdatedAt.After(p.CreatedAt) {
		return p.UpdatedAt
	}
	return p.CreatedAt
}
