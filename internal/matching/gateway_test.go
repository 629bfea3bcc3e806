package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"engagement-coordinator/internal/common/api"
	"engagement-coordinator/internal/common/database"
	"engagement-coordinator/internal/common/errors"
	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeUpstream serves recommendation payloads and counts hits per path.
type fakeUpstream struct {
	srv        *httptest.Server
	getHits    atomic.Int64
	recalcHits atomic.Int64
	payload    atomic.Value // string, current GET body
	status     atomic.Int64
}

func newFakeUpstream(t *testing.T, payload string) *fakeUpstream {
	f := &fakeUpstream{}
	f.payload.Store(payload)
	f.status.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /matching/recommend/{projectID}", func(w http.ResponseWriter, r *http.Request) {
		f.getHits.Add(1)
		status := int(f.status.Load())
		w.WriteHeader(status)
		if status == http.StatusOK {
			w.Write([]byte(f.payload.Load().(string)))
		}
	})
	mux.HandleFunc("POST /matching/recommend/{projectID}/recalculate", func(w http.ResponseWriter, r *http.Request) {
		f.recalcHits.Add(1)
		var body struct {
			Scope string `json:"scope"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Contains(t, []string{"FULL", "SELF"}, body.Scope)
		w.WriteHeader(http.StatusAccepted)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newGateway(t *testing.T, upstream *fakeUpstream, withCache bool) *Gateway {
	client := api.NewClient(upstream.srv.URL, "", 5*time.Second, logger.NewNoOpLogger(), nil)

	var cache *database.RedisClient
	if withCache {
		mr, err := miniredis.Run()
		assert.NoError(t, err)
		t.Cleanup(mr.Close)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		cache = &database.RedisClient{Client: rdb}
	}

	return NewGateway(client, cache, time.Minute, logger.NewNoOpLogger())
}

func envelopeJSON(recs ...models.MatchingRecommendation) string {
	raw, _ := json.Marshal(recommendationEnvelope{Recommendations: recs})
	return string(raw)
}

func rec(freelancerID string, skill, exp, budget int) models.MatchingRecommendation {
	return models.MatchingRecommendation{
		ProjectID:       "project-001",
		FreelancerID:    freelancerID,
		SkillScore:      skill,
		ExperienceScore: exp,
		BudgetScore:     budget,
		TotalScore:      skill + exp + budget,
	}
}

// ==========================
// Recommendations Tests
// ==========================

func TestRecommendations_NormalizesAndCaps(t *testing.T) {
	var recs []models.MatchingRecommendation
	for i := 0; i < 12; i++ {
		recs = append(recs, rec(fmt.Sprintf("freelancer-%02d", i), 20+i, 10, 5))
	}
	upstream := newFakeUpstream(t, envelopeJSON(recs...))
	gw := newGateway(t, upstream, false)

	list, err := gw.Recommendations(context.Background(), "project-001")

	assert.NoError(t, err)
	assert.Len(t, list, models.RankedListCap)
	assert.Equal(t, "freelancer-11", list[0].FreelancerID)
	for i, r := range list {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, list[i-1].TotalScore, r.TotalScore)
		}
	}
}

func TestRecommendations_ScoreInvariantViolationFailsValidation(t *testing.T) {
	bad := rec("freelancer-001", 40, 20, 10)
	bad.SkillScore = 55
	bad.TotalScore = 55 + 20 + 10
	upstream := newFakeUpstream(t, envelopeJSON(bad))
	gw := newGateway(t, upstream, false)

	_, err := gw.Recommendations(context.Background(), "project-001")

	assert.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestRecommendations_ShapeMismatchFailsValidation(t *testing.T) {
	upstream := newFakeUpstream(t, `{"recommendations":[{"freelancerId":"freelancer-001"}]}`)
	gw := newGateway(t, upstream, false)

	_, err := gw.Recommendations(context.Background(), "project-001")

	assert.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestRecommendations_EmptyListIsNotFound(t *testing.T) {
	upstream := newFakeUpstream(t, `{"recommendations":[]}`)
	gw := newGateway(t, upstream, false)

	_, err := gw.Recommendations(context.Background(), "project-001")

	assert.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRecommendations_Upstream404IsNotFound(t *testing.T) {
	upstream := newFakeUpstream(t, "")
	upstream.status.Store(http.StatusNotFound)
	gw := newGateway(t, upstream, false)

	_, err := gw.Recommendations(context.Background(), "project-001")

	assert.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRecommendations_CacheServesRepeatReads(t *testing.T) {
	upstream := newFakeUpstream(t, envelopeJSON(rec("freelancer-001", 40, 20, 10)))
	gw := newGateway(t, upstream, true)
	ctx := context.Background()

	first, err := gw.Recommendations(ctx, "project-001")
	assert.NoError(t, err)
	second, err := gw.Recommendations(ctx, "project-001")
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), upstream.getHits.Load(), "second read must come from cache")
}

func TestRecommendations_StaleFetchDiscarded(t *testing.T) {
	upstream := newFakeUpstream(t, envelopeJSON(rec("freelancer-001", 40, 20, 10)))
	gw := newGateway(t, upstream, true)

	// The viewer moved to another project while the fetch was in flight.
	gw.SetTarget("project-002")

	_, err := gw.Recommendations(context.Background(), "project-001")

	assert.Error(t, err)
	assert.True(t, errors.IsStaleResponse(err))

	// A stale result must not have been cached for its own project either.
	_, ok := gw.readCache(context.Background(), "project-001")
	assert.False(t, ok)
}

func TestRecommendations_CachedReadForAbandonedProjectDiscarded(t *testing.T) {
	upstream := newFakeUpstream(t, envelopeJSON(rec("freelancer-001", 40, 20, 10)))
	gw := newGateway(t, upstream, true)
	ctx := context.Background()

	_, err := gw.Recommendations(ctx, "project-001")
	assert.NoError(t, err)

	// The viewer left for another project; the warm cache entry must not
	// resurface the old list.
	gw.SetTarget("project-002")

	_, err = gw.Recommendations(ctx, "project-001")
	assert.Error(t, err)
	assert.True(t, errors.IsStaleResponse(err))
	assert.Equal(t, int64(1), upstream.getHits.Load())
}

// ==========================
// Recalculate Tests
// ==========================

func TestRecalculate_UnknownScopeRefusedWithoutRequest(t *testing.T) {
	upstream := newFakeUpstream(t, "")
	gw := newGateway(t, upstream, false)

	err := gw.Recalculate(context.Background(), "project-001", Scope("PARTIAL"))

	assert.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, int64(0), upstream.recalcHits.Load())
}

func TestRecalculate_InvalidatesCacheForReadAfterWrite(t *testing.T) {
	upstream := newFakeUpstream(t, envelopeJSON(rec("freelancer-001", 30, 15, 10)))
	gw := newGateway(t, upstream, true)
	ctx := context.Background()

	before, err := gw.Recommendations(ctx, "project-001")
	assert.NoError(t, err)
	assert.Equal(t, 55, before[0].TotalScore)

	// Upstream recomputes to new scores.
	upstream.payload.Store(envelopeJSON(rec("freelancer-001", 45, 25, 15)))
	assert.NoError(t, gw.Recalculate(ctx, "project-001", ScopeFull))

	after, err := gw.Recommendations(ctx, "project-001")
	assert.NoError(t, err)
	assert.Equal(t, 85, after[0].TotalScore, "read after recalculate must see new scores")
	assert.Equal(t, int64(2), upstream.getHits.Load())
}

func TestRecalculate_IdempotentForUnchangedInputs(t *testing.T) {
	upstream := newFakeUpstream(t, envelopeJSON(
		rec("freelancer-001", 40, 20, 10),
		rec("freelancer-002", 35, 18, 12),
	))
	gw := newGateway(t, upstream, true)
	ctx := context.Background()

	first, err := gw.Recommendations(ctx, "project-001")
	assert.NoError(t, err)

	assert.NoError(t, gw.Recalculate(ctx, "project-001", ScopeSelf))

	second, err := gw.Recommendations(ctx, "project-001")
	assert.NoError(t, err)
	assert.Equal(t, first, second, "unchanged inputs yield identical ranking")
}
