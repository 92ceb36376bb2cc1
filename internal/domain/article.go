package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when an article or outlet is absent.
var ErrNotFound = errors.New("not found")

// Article is a harvested news article. Headline and Body are never rewritten
// by the pipeline; scoring only fills the output fields.
type Article struct {
	ID          uuid.UUID
	OutletID    uuid.UUID
	Headline    string
	Body        string
	URL         string
	CategoryTag string
	PublishedAt time.Time
	ScrapedAt   time.Time

	Score      *int
	Violations []Violation
	Redraft    *Redraft
	ScoredAt   *time.Time
}

// Scored reports whether the article carries a score.
func (a Article) Scored() bool {
	return a.Score != nil
}

// Redraft is the persisted neutral rewrite of an article.
type Redraft struct {
	Headline string
	Body     string
	Diff     RedraftDiff
}

// Outlet is a monitored news organisation.
type Outlet struct {
	ID             uuid.UUID
	Name           string
	Domain         string
	IsWireService  bool
	BattingAverage float64
	BiasTilt       float64
	TotalArticles  int
	UpdatedAt      time.Time
}

// OutletAggregate is the output of one rollup run.
type OutletAggregate struct {
	OutletID       uuid.UUID `json:"outlet_id"`
	BattingAverage float64   `json:"batting_average"`
	TotalArticles  int       `json:"total_articles"`
	SkewPenalty    int       `json:"skew_penalty"`
}

// ScoringAudit records how a score was produced.
type ScoringAudit struct {
	ID                uuid.UUID
	ArticleID         uuid.UUID
	InitialScore      int
	FinalScore        int
	VerificationScore int
	NeutralityScore   int
	FairnessScore     int
	Violations        []Violation
	ModelUsed         string
	ProcessingTimeMS  int64
	ProcessedAt       time.Time
}

// ScoreRecord is everything one scoring pass writes for an article.
// Repositories must persist it atomically.
type ScoreRecord struct {
	ArticleID  uuid.UUID
	Score      int
	Violations []Violation
	Redraft    *RedraftResult
	ScoredAt   time.Time
	Audit      ScoringAudit
}
