package domain

// CategoryScore summarises one topic category of an outlet.
type CategoryScore struct {
	Score     float64 `json:"score"`
	Count     int     `json:"count"`
	Deviation float64 `json:"deviation"`
}

// HighSkewCategory flags a category whose average strays from the outlet mean.
type HighSkewCategory struct {
	Category  string  `json:"category"`
	Score     float64 `json:"score"`
	Deviation float64 `json:"deviation"`
}

// SkewResult describes how unevenly an outlet scores across topic categories.
// The zero value is the defined result for an outlet with no categorized articles.
type SkewResult struct {
	GlobalScore        float64                  `json:"global_score"`
	CategoryScores     map[string]CategoryScore `json:"category_scores"`
	SkewPenalty        int                      `json:"skew_penalty"`
	HighSkewCategories []HighSkewCategory       `json:"high_skew_categories"`
}
