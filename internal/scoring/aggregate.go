package scoring

import (
	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/rubric"
)

// Aggregate turns a violation list into category scores and a final score.
// Each category floors at zero on its own, so the final score stays within
// [rubric.Baseline, rubric.MaxScore()].
func Aggregate(violations []domain.Violation) domain.ScoringResult {
	deductions := make(map[domain.Category]int, len(rubric.Categories))
	for _, v := range violations {
		deductions[v.Category] += v.Deduction
	}

	score := func(c domain.Category) int {
		return max(0, rubric.Cap(c)-deductions[c])
	}

	res := domain.ScoringResult{
		InitialScore:      rubric.InitialScore,
		VerificationScore: score(domain.CategoryVerification),
		NeutralityScore:   score(domain.CategoryNeutrality),
		FairnessScore:     score(domain.CategoryFairness),
		Violations:        violations,
	}
	res.FinalScore = min(rubric.MaxScore(), rubric.Baseline+res.VerificationScore+res.NeutralityScore+res.FairnessScore)
	res.NeedsRedraft = res.FinalScore < rubric.RedraftThreshold

	if res.Violations == nil {
		res.Violations = []domain.Violation{}
	}
	return res
}
