package domain

// Category groups violations into the three capped rubric buckets.
type Category string

const (
	CategoryVerification Category = "verification"
	CategoryNeutrality   Category = "neutrality"
	CategoryFairness     Category = "fairness"
)

// ViolationType names a single rubric rule.
type ViolationType string

const (
	ViolationLoadedLanguage        ViolationType = "Loaded Language"
	ViolationSingleSource          ViolationType = "Single-Source Reporting"
	ViolationUnchallengedNarrative ViolationType = "Unchallenged Official Narrative"
	ViolationUnverifiedStatistics  ViolationType = "Unverified Statistics"
	ViolationAnonymousSourcing     ViolationType = "Anonymous Sourcing Abuse"
	ViolationStrawMan              ViolationType = "Straw Man Arguments"
	ViolationOpinionAsNews         ViolationType = "Opinion as News"
	ViolationLackOfReply           ViolationType = "Lack of Right of Reply"
	ViolationHeadlineBait          ViolationType = "Headline Bait"
)

// Violation is one detected deviation from the rubric.
type Violation struct {
	Type        ViolationType `json:"type"`
	Category    Category      `json:"category"`
	Description string        `json:"description"`
	Deduction   int           `json:"deduction"`
	Instances   []string      `json:"instances"`
}

// ViolationList is the serialized shape stored alongside an article.
type ViolationList struct {
	Violations []Violation `json:"violations"`
}

// NewViolationList wraps violations, never producing a null array.
func NewViolationList(v []Violation) ViolationList {
	if v == nil {
		v = []Violation{}
	}
	return ViolationList{Violations: v}
}

// ScoringResult is the write-once output of the scoring step.
type ScoringResult struct {
	InitialScore      int         `json:"initial_score"`
	FinalScore        int         `json:"final_score"`
	VerificationScore int         `json:"verification_score"`
	NeutralityScore   int         `json:"neutrality_score"`
	FairnessScore     int         `json:"fairness_score"`
	Violations        []Violation `json:"violations"`
	NeedsRedraft      bool        `json:"needs_redraft"`
	ProcessingTimeMS  int64       `json:"processing_time_ms"`
}

// ClassificationRequest is sent to the text-classification collaborator.
type ClassificationRequest struct {
	Headline          string
	Body              string
	OutletName        string
	HistoricalContext string
}

// RedraftRequest is sent to the text-generation collaborator.
type RedraftRequest struct {
	Headline   string
	Body       string
	Violations []Violation
}

// RedraftResponse is the collaborator's structured answer.
type RedraftResponse struct {
	RedraftHeadline string   `json:"redraft_headline"`
	RedraftBody     string   `json:"redraft_body"`
	ChangesMade     []string `json:"changes_made"`
}
