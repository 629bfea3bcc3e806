package models

import (
	"context"
	"time"
)

// FreelancerProfile is the public profile of a member holding the FREELANCER
// role. Its ID lives in a different identity space than the owning member's
// ID; conversation routing always goes through OwnerMemberID.
type FreelancerProfile struct {
	ID            string    `json:"id"`
	OwnerMemberID string    `json:"ownerMemberId"`
	Title         string    `json:"title"`
	HourlyRate    int64     `json:"hourlyRate"`
	Skills        []string  `json:"skills"`
	Introduction  string    `json:"introduction,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProfileGateway resolves the calling member's own freelancer profile.
// A NOT_FOUND error signals the member holds the role but has not completed
// onboarding.
type ProfileGateway interface {
	OwnProfile(ctx context.Context) (*FreelancerProfile, error)
}
