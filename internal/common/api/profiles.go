// internal/common/api/profiles.go
package api

import (
	"context"
	"net/http"

	"engagement-coordinator/internal/common/errors"
	"engagement-coordinator/internal/models"
)

// ProfileAPI resolves the calling member's freelancer profile. A 404 from
// GET /freelancers/me means the member has not completed onboarding.
type ProfileAPI struct {
	client *Client
}

func NewProfileAPI(client *Client) *ProfileAPI {
	return &ProfileAPI{client: client}
}

func (p *ProfileAPI) OwnProfile(ctx context.Context) (*models.FreelancerProfile, error) {
	var profile models.FreelancerProfile
	err := p.client.Do(ctx, "get-own-profile", http.MethodGet, "/freelancers/me", nil, &profile)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("freelancer profile", "me")
		}
		return nil, err
	}
	return &profile, nil
}
