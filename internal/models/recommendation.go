package models

import (
	"fmt"
	"sort"
)

// Sub-score ceilings declared by the external scorer. Total maxes out at 100.
const (
	SkillScoreMax      = 50
	ExperienceScoreMax = 30
	BudgetScoreMax     = 20
)

// RankedListCap limits a project's recommendation list to the top entries.
const RankedListCap = 10

// MatchingRecommendation is a scored candidate match produced by the
// external recommendation service. Read-only to this core.
type MatchingRecommendation struct {
	ProjectID       string `json:"projectId"`
	FreelancerID    string `json:"freelancerId"`
	FreelancerName  string `json:"freelancerName,omitempty"`
	Rank            int    `json:"rank"`
	TotalScore      int    `json:"totalScore"`
	SkillScore      int    `json:"skillScore"`
	ExperienceScore int    `json:"experienceScore"`
	BudgetScore     int    `json:"budgetScore"`
}

// Validate enforces the score invariants at the boundary: non-negative
// sub-scores under their ceilings, and total equal to the sum.
func (r *MatchingRecommendation) Validate() error {
	if r.SkillScore < 0 || r.SkillScore > SkillScoreMax {
		return fmt.Errorf("skillScore %d outside [0, %d]", r.SkillScore, SkillScoreMax)
	}
	if r.ExperienceScore < 0 || r.ExperienceScore > ExperienceScoreMax {
		return fmt.Errorf("experienceScore %d outside [0, %d]", r.ExperienceScore, ExperienceScoreMax)
	}
	if r.BudgetScore < 0 || r.BudgetScore > BudgetScoreMax {
		return fmt.Errorf("budgetScore %d outside [0, %d]", r.BudgetScore, BudgetScoreMax)
	}
	if sum := r.SkillScore + r.ExperienceScore + r.BudgetScore; r.TotalScore != sum {
		return fmt.Errorf("totalScore %d != sub-score sum %d", r.TotalScore, sum)
	}
	return nil
}

// RankedList is a project's recommendation list, capped at the top
// RankedListCap entries.
type RankedList []MatchingRecommendation

// Normalize sorts by descending total score with ties broken by ascending
// freelancer id, assigns dense ranks starting at 1, and caps the list.
// Ordering is deterministic regardless of upstream ordering.
func (l RankedList) Normalize() RankedList {
	out := make(RankedList, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].FreelancerID < out[j].FreelancerID
	})
	if len(out) > RankedListCap {
		out = out[:RankedListCap]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
