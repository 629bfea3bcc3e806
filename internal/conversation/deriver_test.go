package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var baseTime = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

type fakeIdentityMapper struct {
	memberIDs map[string]string // profile id -> member id
	err       error
}

func (f *fakeIdentityMapper) MemberID(_ context.Context, profileID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.memberIDs[profileID], nil
}

type fakeMetadataSource struct {
	metas   map[string]*ThreadMeta // "projectID:freelancerID"
	failFor map[string]bool
}

func (f *fakeMetadataSource) ThreadMeta(_ context.Context, projectID, freelancerID string) (*ThreadMeta, error) {
	key := projectID + ":" + freelancerID
	if f.failFor[key] {
		return nil, fmt.Errorf("thread store unavailable")
	}
	if meta, ok := f.metas[key]; ok {
		return meta, nil
	}
	return &ThreadMeta{LastMessageAt: baseTime}, nil
}

func newTestDeriver(identities *fakeIdentityMapper, meta *fakeMetadataSource) *Deriver {
	if identities == nil {
		identities = &fakeIdentityMapper{memberIDs: map[string]string{
			"freelancer-001": "member-001",
			"freelancer-002": "member-002",
		}}
	}
	if meta == nil {
		meta = &fakeMetadataSource{}
	}
	return NewDeriver(identities, meta, logger.NewNoOpLogger())
}

func proposalWith(id, projectID, freelancerID string, status models.EngagementStatus, updatedAt time.Time) models.Proposal {
	return models.Proposal{
		ID:           id,
		ProjectID:    projectID,
		PMID:         "member-pm",
		FreelancerID: freelancerID,
		Status:       status,
		CreatedAt:    updatedAt.Add(-time.Hour),
		UpdatedAt:    updatedAt,
	}
}

func submissionWith(id, projectID, freelancerID string, status models.EngagementStatus, updatedAt time.Time) models.Submission {
	return models.Submission{
		ID:           id,
		ProjectID:    projectID,
		FreelancerID: freelancerID,
		Status:       status,
		AppliedAt:    updatedAt.Add(-time.Hour),
		UpdatedAt:    updatedAt,
	}
}

// ==========================
// Derivation Tests
// ==========================

func TestDerive_OnlyAcceptedEngagementsBecomeConversations(t *testing.T) {
	d := newTestDeriver(nil, nil)

	proposals := []models.Proposal{
		proposalWith("proposal-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
		proposalWith("proposal-002", "project-002", "freelancer-001", models.StatusPending, baseTime),
		proposalWith("proposal-003", "project-003", "freelancer-001", models.StatusRejected, baseTime),
	}
	submissions := []models.Submission{
		submissionWith("submission-001", "project-004", "freelancer-002", models.StatusAccepted, baseTime),
		submissionWith("submission-002", "project-005", "freelancer-002", models.StatusCanceled, baseTime),
	}

	conversations := d.Derive(context.Background(), models.RolePM, proposals, submissions)

	assert.Len(t, conversations, 2)
	for _, c := range conversations {
		assert.Contains(t, []string{"project-001", "project-004"}, c.ProjectID)
	}
}

func TestDerive_DedupPrefersLatestActivity(t *testing.T) {
	d := newTestDeriver(nil, nil)

	// Same pair engaged twice: the older proposal loses to the newer
	// submission, but the PM identity from the proposal is preserved.
	proposals := []models.Proposal{
		proposalWith("proposal-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime.Add(-2*time.Hour)),
	}
	submissions := []models.Submission{
		submissionWith("submission-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
	}

	conversations := d.Derive(context.Background(), models.RolePM, proposals, submissions)

	assert.Len(t, conversations, 1)
	assert.Equal(t, models.RelatedSubmission, conversations[0].RelatedType)
	assert.Equal(t, "submission-001", conversations[0].RelatedID)
	assert.Equal(t, "member-pm", conversations[0].PMID)
}

func TestDerive_DedupKeepsNewerProposal(t *testing.T) {
	d := newTestDeriver(nil, nil)

	proposals := []models.Proposal{
		proposalWith("proposal-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
	}
	submissions := []models.Submission{
		submissionWith("submission-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime.Add(-3*time.Hour)),
	}

	conversations := d.Derive(context.Background(), models.RolePM, proposals, submissions)

	assert.Len(t, conversations, 1)
	assert.Equal(t, models.RelatedProposal, conversations[0].RelatedType)
}

func TestDerive_SubmissionConversationBackfillsPMIDFromThread(t *testing.T) {
	meta := &fakeMetadataSource{metas: map[string]*ThreadMeta{
		"project-001:freelancer-001": {LastMessageAt: baseTime, PMID: "member-pm-thread"},
	}}
	d := newTestDeriver(nil, meta)

	submissions := []models.Submission{
		submissionWith("submission-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
	}

	conversations := d.Derive(context.Background(), models.RoleFreelancer, nil, submissions)

	assert.Len(t, conversations, 1)
	assert.Equal(t, "member-pm-thread", conversations[0].PMID)
}

func TestDerive_EngagementPMIDWinsOverThread(t *testing.T) {
	meta := &fakeMetadataSource{metas: map[string]*ThreadMeta{
		"project-001:freelancer-001": {LastMessageAt: baseTime, PMID: "member-pm-thread"},
	}}
	d := newTestDeriver(nil, meta)

	proposals := []models.Proposal{
		proposalWith("proposal-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
	}

	conversations := d.Derive(context.Background(), models.RolePM, proposals, nil)

	assert.Len(t, conversations, 1)
	assert.Equal(t, "member-pm", conversations[0].PMID)
}

func TestDerive_IdentityFailureFallsBackDegraded(t *testing.T) {
	identities := &fakeIdentityMapper{err: fmt.Errorf("identity service down")}
	d := newTestDeriver(identities, nil)

	proposals := []models.Proposal{
		proposalWith("proposal-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
	}

	conversations := d.Derive(context.Background(), models.RolePM, proposals, nil)

	assert.Len(t, conversations, 1)
	assert.True(t, conversations[0].Degraded)
	assert.Equal(t, "freelancer-001", conversations[0].FreelancerMemberID)
}

func TestDerive_ResolvedIdentityIsMemberID(t *testing.T) {
	d := newTestDeriver(nil, nil)

	proposals := []models.Proposal{
		proposalWith("proposal-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
	}

	conversations := d.Derive(context.Background(), models.RolePM, proposals, nil)

	assert.Len(t, conversations, 1)
	assert.False(t, conversations[0].Degraded)
	assert.Equal(t, "member-001", conversations[0].FreelancerMemberID)
}

func TestDerive_MetadataFailureDropsOnlyThatEntry(t *testing.T) {
	meta := &fakeMetadataSource{failFor: map[string]bool{"project-002:freelancer-002": true}}
	d := newTestDeriver(nil, meta)

	proposals := []models.Proposal{
		proposalWith("proposal-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
		proposalWith("proposal-002", "project-002", "freelancer-002", models.StatusAccepted, baseTime),
	}

	conversations := d.Derive(context.Background(), models.RolePM, proposals, nil)

	assert.Len(t, conversations, 1)
	assert.Equal(t, "project-001", conversations[0].ProjectID)
}

func TestDerive_SortedByMostRecentMessage(t *testing.T) {
	meta := &fakeMetadataSource{metas: map[string]*ThreadMeta{
		"project-001:freelancer-001": {LastMessageAt: baseTime.Add(-time.Hour)},
		"project-002:freelancer-001": {LastMessageAt: baseTime},
		"project-003:freelancer-001": {LastMessageAt: baseTime.Add(-2 * time.Hour)},
	}}
	d := newTestDeriver(nil, meta)

	proposals := []models.Proposal{
		proposalWith("proposal-001", "project-001", "freelancer-001", models.StatusAccepted, baseTime),
		proposalWith("proposal-002", "project-002", "freelancer-001", models.StatusAccepted, baseTime),
		proposalWith("proposal-003", "project-003", "freelancer-001", models.StatusAccepted, baseTime),
	}

	conversations := d.Derive(context.Background(), models.RoleFreelancer, proposals, nil)

	assert.Len(t, conversations, 3)
	assert.Equal(t, "project-002", conversations[0].ProjectID)
	assert.Equal(t, "project-001", conversations[1].ProjectID)
	assert.Equal(t, "project-003", conversations[2].ProjectID)
}

// ==========================
// Filter Tests
// ==========================

func sampleList() []models.Conversation {
	return []models.Conversation{
		{ProjectTitle: "Search Rework", FreelancerName: "Kim Minji", PMName: "Lee Haneul", UnreadCount: 2},
		{ProjectTitle: "Billing Pipeline", FreelancerName: "Park Jisoo", PMName: "Lee Haneul", UnreadCount: 0},
		{ProjectTitle: "Mobile App", FreelancerName: "Choi Dongwook", PMName: "Jung Sera", UnreadCount: 5},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"empty query keeps everything", "", 3},
		{"whitespace query keeps everything", "   ", 3},
		{"matches freelancer name", "minji", 1},
		{"matches pm name", "haneul", 2},
		{"matches project title", "billing", 1},
		{"case insensitive", "MOBILE", 1},
		{"no match", "zzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Filter(sampleList(), tt.query), tt.want)
		})
	}
}

func TestFilterUnread(t *testing.T) {
	unread := FilterUnread(sampleList())

	assert.Len(t, unread, 2)
	for _, c := range unread {
		assert.Greater(t, c.UnreadCount, 0)
	}
}

// ==========================
// Relative Time Tests
// ==========================

func TestRelativeLabel(t *testing.T) {
	now := baseTime

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"seconds ago", now.Add(-30 * time.Second), "just now"},
		{"one minute", now.Add(-90 * time.Second), "1 minute ago"},
		{"minutes", now.Add(-45 * time.Minute), "45 minutes ago"},
		{"one hour", now.Add(-time.Hour), "1 hour ago"},
		{"hours", now.Add(-5 * time.Hour), "5 hours ago"},
		{"one day", now.Add(-26 * time.Hour), "1 day ago"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"a week or older is absolute", now.Add(-8 * 24 * time.Hour), "Aug 23, 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeLabel(tt.at, now))
		})
	}
}
