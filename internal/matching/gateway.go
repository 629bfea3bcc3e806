// Package matching is the gateway to the external recommendation service.
// Scores and ranks are computed upstream; this side validates shape and
// invariants at the boundary and keeps reads consistent with recalculation.
package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"engagement-coordinator/internal/common/api"
	"engagement-coordinator/internal/common/database"
	"engagement-coordinator/internal/common/errors"
	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/models"
)

// Scope selects how much of a project's candidate set a recalculation
// touches.
type Scope string

const (
	// ScopeFull recomputes and re-ranks every candidate (PM-triggered).
	ScopeFull Scope = "FULL"
	// ScopeSelf recomputes only the calling freelancer's score and leaves
	// other candidates untouched.
	ScopeSelf Scope = "SELF"
)

// recommendationEnvelope is the upstream response shape for a ranked list.
type recommendationEnvelope struct {
	Recommendations []models.MatchingRecommendation `json:"recommendations"`
}

type recalculateRequest struct {
	Scope Scope `json:"scope"`
}

// Gateway fetches and recalculates ranked matches. A short-lived Redis read
// cache is invalidated on every recalculation, so reads after a recalculate
// always see the new scores.
type Gateway struct {
	client   *api.Client
	cache    *database.RedisClient
	cacheTTL time.Duration
	logger   logger.Logger

	mu     sync.RWMutex
	target string // project currently being viewed; stale fetches are discarded
}

func NewGateway(client *api.Client, cache *database.RedisClient, cacheTTL time.Duration, log logger.Logger) *Gateway {
	return &Gateway{
		client:   client,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "matching-gateway"}),
	}
}

// SetTarget records which project the host is currently viewing. Reads for
// any other project, cached or in flight, are discarded as stale.
func (g *Gateway) SetTarget(projectID string) {
	g.mu.Lock()
	g.target = projectID
	g.mu.Unlock()
}

func (g *Gateway) isStale(projectID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.target != "" && g.target != projectID
}

func cacheKey(projectID string) string {
	return "recommend:" + projectID
}

// Recommendations returns the project's ranked list, capped at the top 10
// entries with deterministic ordering. Fails NOT_FOUND when the project has
// no computed recommendations yet.
func (g *Gateway) Recommendations(ctx context.Context, projectID string) (models.RankedList, error) {
	if g.isStale(projectID) {
		return nil, errors.NewStaleResponseError(projectID)
	}

	if cached, ok := g.readCache(ctx, projectID); ok {
		return cached, nil
	}

	raw, err := g.client.DoRaw(ctx, "get-recommendations", http.MethodGet, "/matching/recommend/"+projectID, nil)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("recommendations", projectID)
		}
		return nil, err
	}

	list, err := decodeRankedList(raw)
	if err != nil {
		return nil, err
	}

	if g.isStale(projectID) {
		return nil, errors.NewStaleResponseError(projectID)
	}

	g.writeCache(ctx, projectID, list)
	return list, nil
}

// Recalculate triggers recomputation upstream and invalidates the read cache
// before returning, guaranteeing read-after-write consistency for the next
// Recommendations call. Recalculation is idempotent upstream: unchanged
// inputs yield identical scores and ranks.
func (g *Gateway) Recalculate(ctx context.Context, projectID string, scope Scope) error {
	if scope != ScopeFull && scope != ScopeSelf {
		return errors.NewValidationError("unknown recalculate scope: " + string(scope))
	}

	err := g.client.Do(ctx, "recalculate", http.MethodPost,
		"/matching/recommend/"+projectID+"/recalculate", recalculateRequest{Scope: scope}, nil)
	if err != nil {
		return err
	}

	if g.cache != nil {
		if delErr := g.cache.Del(ctx, cacheKey(projectID)); delErr != nil {
			g.logger.Warn("failed to invalidate recommendation cache", map[string]interface{}{
				"projectId": projectID,
				"error":     delErr.Error(),
			})
		}
	}

	g.logger.Info("recalculation triggered", map[string]interface{}{
		"projectId": projectID,
		"scope":     scope,
	})
	return nil
}

func decodeRankedList(raw []byte) (models.RankedList, error) {
	if err := validateEnvelope(raw); err != nil {
		return nil, err
	}

	var envelope recommendationEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.NewValidationError("malformed recommendation payload: " + err.Error())
	}
	if len(envelope.Recommendations) == 0 {
		return nil, errors.NewNotFoundError("recommendations", "empty list")
	}

	for i := range envelope.Recommendations {
		if err := envelope.Recommendations[i].Validate(); err != nil {
			return nil, errors.NewValidationError(
				fmt.Sprintf("recommendation for freelancer %s violates score invariants: %s",
					envelope.Recommendations[i].FreelancerID, err.Error()))
		}
	}

	return models.RankedList(envelope.Recommendations).Normalize(), nil
}

func (g *Gateway) readCache(ctx context.Context, projectID string) (models.RankedList, bool) {
	if g.cache == nil {
		return nil, false
	}
	val, err := g.cache.Get(ctx, cacheKey(projectID))
	if err != nil {
		return nil, false
	}
	var list models.RankedList
	if err := json.Unmarshal([]byte(val), &list); err != nil {
		return nil, false
	}
	return list, true
}

func (g *Gateway) writeCache(ctx context.Context, projectID string, list models.RankedList) {
	if g.cache == nil {
		return
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, cacheKey(projectID), payload, g.cacheTTL); err != nil {
		g.logger.Warn("failed to cache recommendations", map[string]interface{}{
			"projectId": projectID,
			"error":     err.Error(),
		})
	}
}
