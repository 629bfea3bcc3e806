// Package conversation derives the message thread list from confirmed
// engagements. A conversation exists exactly while its related proposal or
// submission is ACCEPTED; nothing here is persisted.
package conversation

import (
	"context"
	"sort"
	"strings"
	"time"

	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/common/metrics"
	"engagement-coordinator/internal/models"
)

// ThreadMeta is the raw message-thread metadata supplied by the external
// messaging store, including participant display names. PMID backfills the
// PM participant for submission-derived conversations, where the engagement
// itself does not carry it.
type ThreadMeta struct {
	LastMessage    string    `json:"lastMessage"`
	LastMessageAt  time.Time `json:"lastMessageAt"`
	UnreadCount    int       `json:"unreadCount"`
	ProjectTitle   string    `json:"projectTitle"`
	FreelancerName string    `json:"freelancerName"`
	PMID           string    `json:"pmId"`
	PMName         string    `json:"pmName"`
}

// MetadataSource fetches thread metadata for one (project, freelancer) pair.
type MetadataSource interface {
	ThreadMeta(ctx context.Context, projectID, freelancerID string) (*ThreadMeta, error)
}

// IdentityMapper is the injective mapping from FreelancerProfile id to the
// owning Member id. Conversation participants are member identities; the
// profile id is only a flagged fallback when the mapping is unavailable.
type IdentityMapper interface {
	MemberID(ctx context.Context, freelancerProfileID string) (string, error)
}

// candidate is an accepted engagement before metadata resolution.
type candidate struct {
	conv       models.Conversation
	activityAt time.Time
}

// Deriver builds the visible conversation list.
type Deriver struct {
	identities IdentityMapper
	meta       MetadataSource
	logger     logger.Logger
}

func NewDeriver(identities IdentityMapper, meta MetadataSource, log logger.Logger) *Deriver {
	return &Deriver{
		identities: identities,
		meta:       meta,
		logger:     log.WithFields(map[string]interface{}{"component": "conversation-deriver"}),
	}
}

// Derive filters the viewer's engagements to ACCEPTED ones, collapses a PM
// and a freelancer to a single thread per project, resolves participant
// identities and thread metadata, and orders by most recent message. A
// metadata failure drops that single entry; the rest of the list still
// renders.
func (d *Deriver) Derive(ctx context.Context, viewer models.Role, proposals []models.Proposal, submissions []models.Submission) []models.Conversation {
	candidates := make(map[string]candidate)

	for _, p := range proposals {
		if p.Status != models.StatusAccepted {
			continue
		}
		keep(candidates, candidate{
			conv: models.Conversation{
				ProjectID:    p.ProjectID,
				FreelancerID: p.FreelancerID,
				PMID:         p.PMID,
				RelatedType:  models.RelatedProposal,
				RelatedID:    p.ID,
			},
			activityAt: p.ActivityAt(),
		})
	}
	for _, s := range submissions {
		if s.Status != models.StatusAccepted {
			continue
		}
		keep(candidates, candidate{
			conv: models.Conversation{
				ProjectID:    s.ProjectID,
				FreelancerID: s.FreelancerID,
				RelatedType:  models.RelatedSubmission,
				RelatedID:    s.ID,
			},
			activityAt: s.ActivityAt(),
		})
	}

	conversations := make([]models.Conversation, 0, len(candidates))
	for _, c := range candidates {
		conv, ok := d.resolve(ctx, c)
		if !ok {
			continue
		}
		conversations = append(conversations, conv)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})

	metrics.ConversationsDerived.WithLabelValues(string(viewer)).Set(float64(len(conversations)))
	return conversations
}

// keep dedups by (projectID, freelancerID), preferring the engagement with
// the most recent activity when both a proposal and a submission exist for
// the same pair.
func keep(candidates map[string]candidate, c candidate) {
	key := c.conv.Key()
	if existing, ok := candidates[key]; ok {
		if !c.activityAt.After(existing.activityAt) {
			return
		}
		if c.conv.PMID == "" {
			c.conv.PMID = existing.conv.PMID
		}
	}
	candidates[key] = c
}

func (d *Deriver) resolve(ctx context.Context, c candidate) (models.Conversation, bool) {
	conv := c.conv

	memberID, err := d.identities.MemberID(ctx, conv.FreelancerID)
	if err != nil || memberID == "" {
		// Degraded mode: route by profile id until the mapping recovers.
		conv.FreelancerMemberID = conv.FreelancerID
		conv.Degraded = true
		d.logger.Warn("freelancer member identity unavailable, using profile id", map[string]interface{}{
			"projectId":    conv.ProjectID,
			"freelancerId": conv.FreelancerID,
		})
	} else {
		conv.FreelancerMemberID = memberID
	}

	meta, err := d.meta.ThreadMeta(ctx, conv.ProjectID, conv.FreelancerID)
	if err != nil {
		d.logger.Warn("dropping conversation with failed metadata fetch", map[string]interface{}{
			"projectId":    conv.ProjectID,
			"freelancerId": conv.FreelancerID,
			"error":        err.Error(),
		})
		return models.Conversation{}, false
	}

	conv.LastMessage = meta.LastMessage
	conv.LastMessageAt = meta.LastMessageAt
	conv.UnreadCount = meta.UnreadCount
	conv.ProjectTitle = meta.ProjectTitle
	conv.FreelancerName = meta.FreelancerName
	conv.PMName = meta.PMName
	if conv.PMID == "" {
		conv.PMID = meta.PMID
	}
	return conv, true
}

// Filter keeps conversations whose freelancer name, PM name or project title
// contains the query, case-insensitive. An empty query keeps everything.
func Filter(list []models.Conversation, query string) []models.Conversation {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	out := make([]models.Conversation, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.FreelancerName), query) ||
			strings.Contains(strings.ToLower(c.PMName), query) ||
			strings.Contains(strings.ToLower(c.ProjectTitle), query) {
			out = append(out, c)
		}
	}
	return out
}

// FilterUnread keeps conversations with unread messages.
func FilterUnread(list []models.Conversation) []models.Conversation {
	out := make([]models.Conversation, 0, len(list))
	for _, c := range list {
		if c.UnreadCount > 0 {
			out = append(out, c)
		}
	}
	return out
}
