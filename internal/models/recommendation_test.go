package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRecommendation(freelancerID string, skill, exp, budget int) MatchingRecommendation {
	return MatchingRecommendation{
		ProjectID:       "project-001",
		FreelancerID:    freelancerID,
		SkillScore:      skill,
		ExperienceScore: exp,
		BudgetScore:     budget,
		TotalScore:      skill + exp + budget,
	}
}

func TestMatchingRecommendation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MatchingRecommendation)
		wantErr bool
	}{
		{"valid full scores", func(r *MatchingRecommendation) {}, false},
		{"skill above ceiling", func(r *MatchingRecommendation) {
			r.SkillScore = 51
			r.TotalScore = 51 + r.ExperienceScore + r.BudgetScore
		}, true},
		{"experience above ceiling", func(r *MatchingRecommendation) {
			r.ExperienceScore = 31
			r.TotalScore = r.SkillScore + 31 + r.BudgetScore
		}, true},
		{"budget above ceiling", func(r *MatchingRecommendation) {
			r.BudgetScore = 21
			r.TotalScore = r.SkillScore + r.ExperienceScore + 21
		}, true},
		{"negative sub-score", func(r *MatchingRecommendation) {
			r.SkillScore = -1
			r.TotalScore = -1 + r.ExperienceScore + r.BudgetScore
		}, true},
		{"total not equal to sum", func(r *MatchingRecommendation) {
			r.TotalScore = r.TotalScore - 5
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecommendation("freelancer-001", 40, 20, 15)
			tt.mutate(&rec)
			err := rec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRankedList_Normalize_OrderAndRanks(t *testing.T) {
	list := RankedList{
		validRecommendation("freelancer-b", 30, 20, 10), // 60, tied
		validRecommendation("freelancer-c", 45, 25, 15), // 85
		validRecommendation("freelancer-a", 30, 20, 10), // 60, tied
	}

	normalized := list.Normalize()

	assert.Len(t, normalized, 3)
	assert.Equal(t, "freelancer-c", normalized[0].FreelancerID)
	// Ties broken by ascending freelancer id.
	assert.Equal(t, "freelancer-a", normalized[1].FreelancerID)
	assert.Equal(t, "freelancer-b", normalized[2].FreelancerID)

	for i, rec := range normalized {
		assert.Equal(t, i+1, rec.Rank, "ranks are dense starting at 1")
	}

	// Input is left untouched.
	assert.Equal(t, "freelancer-b", list[0].FreelancerID)
}

func TestRankedList_Normalize_CapsAtTen(t *testing.T) {
	var list RankedList
	for i := 0; i < 15; i++ {
		list = append(list, validRecommendation(fmt.Sprintf("freelancer-%02d", i), 20+i, 10, 5))
	}

	normalized := list.Normalize()

	assert.Len(t, normalized, RankedListCap)
	assert.Equal(t, 1, normalized[0].Rank)
	assert.Equal(t, RankedListCap, normalized[len(normalized)-1].Rank)
	// Highest scorer survives the cap.
	assert.Equal(t, "freelancer-14", normalized[0].FreelancerID)
}

func TestRankedList_Normalize_Deterministic(t *testing.T) {
	shuffled := RankedList{
		validRecommendation("freelancer-02", 25, 15, 10),
		validRecommendation("freelancer-01", 40, 20, 10),
		validRecommendation("freelancer-03", 25, 15, 10),
	}
	reversed := RankedList{shuffled[2], shuffled[0], shuffled[1]}

	assert.Equal(t, shuffled.Normalize(), reversed.Normalize())
}
