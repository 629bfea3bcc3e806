package conversation

import (
	"context"
	"net/http"

	"engagement-coordinator/internal/common/api"
)

// apiMetadataSource reads thread metadata from the external messaging store
// over REST.
type apiMetadataSource struct {
	client *api.Client
}

// NewAPIMetadataSource returns a MetadataSource backed by the upstream API.
func NewAPIMetadataSource(client *api.Client) MetadataSource {
	return &apiMetadataSource{client: client}
}

func (s *apiMetadataSource) ThreadMeta(ctx context.Context, projectID, freelancerID string) (*ThreadMeta, error) {
	var meta ThreadMeta
	path := "/messages/threads/" + projectID + "/" + freelancerID
	if err := s.client.Do(ctx, "get-thread-meta", http.MethodGet, path, nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// apiIdentityMapper resolves a freelancer profile to its owning member via
// the freelancer endpoint.
type apiIdentityMapper struct {
	client *api.Client
}

// NewAPIIdentityMapper returns an IdentityMapper backed by the upstream API.
func NewAPIIdentityMapper(client *api.Client) IdentityMapper {
	return &apiIdentityMapper{client: client}
}

func (m *apiIdentityMapper) MemberID(ctx context.Context, freelancerProfileID string) (string, error) {
	var profile struct {
		ID            string `json:"id"`
		OwnerMemberID string `json:"ownerMemberId"`
	}
	if err := m.client.Do(ctx, "get-freelancer", http.MethodGet, "/freelancers/"+freelancerProfileID, nil, &profile); err != nil {
		return "", err
	}
	return profile.OwnerMemberID, nil
}
