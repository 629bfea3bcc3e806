package models

import "time"

// RelatedType names the engagement a conversation was derived from.
type RelatedType string

const (
	RelatedProposal   RelatedType = "PROPOSAL"
	RelatedSubmission RelatedType = "SUBMISSION"
)

// Conversation is a derived messaging thread. It exists only while its
// related proposal or submission is ACCEPTED and is never persisted by this
// core.
type Conversation struct {
	ProjectID          string      `json:"projectId"`
	FreelancerID       string      `json:"freelancerId"`
	PMID               string      `json:"pmId"`
	FreelancerMemberID string      `json:"freelancerMemberId"`
	RelatedType        RelatedType `json:"relatedType"`
	RelatedID          string      `json:"relatedId"`
	ProjectTitle       string      `json:"projectTitle,omitempty"`
	FreelancerName     string      `json:"freelancerName,omitempty"`
	PMName             string      `json:"pmName,omitempty"`
	LastMessage        string      `json:"lastMessage,omitempty"`
	LastMessageAt      time.Time   `json:"lastMessageAt"`
	UnreadCount        int         `json:"unreadCount"`

	// Degraded is set when the freelancer member identity could not be
	// resolved and the profile id was used instead.
	Degraded bool `json:"degraded,omitempty"`
}

// Key identifies the thread: one conversation per (project, freelancer)
// pair.
func (c *Conversation) Key() string {
	return c.ProjectID + ":" + c.FreelancerID
}
