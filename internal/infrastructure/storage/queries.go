package storage

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"a.id",
	"a.outlet_id",
	"a.headline",
	"a.body",
	"a.url",
	"COALESCE(a.category_tag, '')",
	"COALESCE(a.published_at, a.scraped_at)",
	"a.scraped_at",
	"a.score",
	"a.violations",
	"a.redraft_headline",
	"a.redraft_body",
	"a.redraft_diff",
	"a.scored_at",
}

var outletColumns = []string{
	"id",
	"name",
	"domain",
	"is_wire_service",
	"batting_average",
	"bias_tilt",
	"total_articles",
	"updated_at",
}

func getArticleQuery(id uuid.UUID) (string, []any, error) {
	return psql.Select(articleColumns...).
		From("articles a").
		Where(sq.Eq{"a.id": id}).
		ToSql()
}

func listUnscoredQuery(limit int) (string, []any, error) {
	q := psql.Select(articleColumns...).
		From("articles a").
		Join("outlets o ON o.id = a.outlet_id").
		Where(sq.Eq{"a.score": nil}).
		Where(sq.Eq{"o.is_wire_service": false}).
		OrderBy("a.scraped_at ASC", "a.id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q.ToSql()
}

func listScoredQuery(outletID uuid.UUID) (string, []any, error) {
	return psql.Select(articleColumns...).
		From("articles a").
		Where(sq.Eq{"a.outlet_id": outletID}).
		Where(sq.NotEq{"a.score": nil}).
		OrderBy("a.scraped_at ASC", "a.id ASC").
		ToSql()
}

type scoreUpdate struct {
	articleID       uuid.UUID
	score           int
	violations      []byte
	redraftHeadline *string
	redraftBody     *string
	redraftDiff     []byte
	scoredAt        any
}

func saveScoreQuery(u scoreUpdate) (string, []any, error) {
	return psql.Update("articles").
		SetMap(map[string]any{
			"score":            u.score,
			"violations":       u.violations,
			"redraft_headline": u.redraftHeadline,
			"redraft_body":     u.redraftBody,
			"redraft_diff":     u.redraftDiff,
			"scored_at":        u.scoredAt,
		}).
		Where(sq.Eq{"id": u.articleID}).
		ToSql()
}

type auditRow struct {
	id                uuid.UUID
	articleID         uuid.UUID
	initialScore      int
	finalScore        int
	verificationScore int
	neutralityScore   int
	fairnessScore     int
	violations        []byte
	modelUsed         string
	processingTimeMS  int64
	processedAt       any
}

func insertAuditQuery(a auditRow) (string, []any, error) {
	return psql.Insert("scoring_audits").
		Columns(
			"id",
			"article_id",
			"initial_score",
			"final_score",
			"verification_score",
			"neutrality_score",
			"fairness_score",
			"violations_detail",
			"model_used",
			"processing_time_ms",
			"processed_at",
		).
		Values(
			a.id,
			a.articleID,
			a.initialScore,
			a.finalScore,
			a.verificationScore,
			a.neutralityScore,
			a.fairnessScore,
			a.violations,
			a.modelUsed,
			a.processingTimeMS,
			a.processedAt,
		).
		ToSql()
}

func getOutletQuery(id uuid.UUID) (string, []any, error) {
	return psql.Select(outletColumns...).
		From("outlets").
		Where(sq.Eq{"id": id}).
		ToSql()
}

func listRollupTargetsQuery() (string, []any, error) {
	return psql.Select(outletColumns...).
		From("outlets").
		Where(sq.Eq{"is_wire_service": false}).
		OrderBy("name ASC", "id ASC").
		ToSql()
}

func updateAggregateQuery(id uuid.UUID, battingAverage float64, totalArticles int) (string, []any, error) {
	return psql.Update("outlets").
		Set("batting_average", battingAverage).
		Set("total_articles", totalArticles).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
}
