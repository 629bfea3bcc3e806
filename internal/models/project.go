package models

import "time"

// ProjectStatus drives proposal/submission eligibility.
type ProjectStatus string

const (
	ProjectRecruiting ProjectStatus = "RECRUITING"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectCompleted  ProjectStatus = "COMPLETED"
	ProjectClosed     ProjectStatus = "CLOSED"
)

// Project is a PM-owned unit of work freelancers engage with.
type Project struct {
	ID        string        `json:"id"`
	ManagerID string        `json:"managerId"`
	Title     string        `json:"title"`
	Status    ProjectStatus `json:"status"`
	Budget    int64         `json:"budget,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AcceptsEngagements reports whether new proposals or submissions may be
// created against the project.
func (p *Project) AcceptsEngagements() bool {
	return p.Status == ProjectRecruiting
}
