package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/logging"
	"NewsIntegrity/internal/ports"
	"NewsIntegrity/internal/redraft"
	"NewsIntegrity/internal/rollup"
	"NewsIntegrity/internal/scoring"
	"NewsIntegrity/internal/skew"
	"NewsIntegrity/internal/taxonomy"
)

const (
	defaultBatchSize   = 50
	defaultConcurrency = 4
	unknownOutlet      = "Unknown"
	lexicalOnlyModel   = "lexical-only"
)

var tracer = otel.Tracer("NewsIntegrity/internal/usecase")

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Articles  ports.ArticleRepository
	Outlets   ports.OutletRepository
	Scorer    *scoring.Scorer
	Redrafter *redraft.Generator
	Rollup    *rollup.Service
	Skew      *skew.Calculator
	History   ports.ContextProvider
	Index     ports.ArticleIndex
	Notifier  ports.Notifier

	// ModelUsed is recorded in the scoring audit.
	ModelUsed   string
	BatchSize   int
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Pipeline implements the article-scoring workflow.
type Pipeline struct {
	articles    ports.ArticleRepository
	outlets     ports.OutletRepository
	scorer      *scoring.Scorer
	redrafter   *redraft.Generator
	rollup      *rollup.Service
	skew        *skew.Calculator
	history     ports.ContextProvider
	index       ports.ArticleIndex
	notifier    ports.Notifier
	modelUsed   string
	batchSize   int
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline constructs the orchestration component. Missing scorer,
// redrafter, rollup and skew components are built from the repositories.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		articles:    deps.Articles,
		outlets:     deps.Outlets,
		scorer:      deps.Scorer,
		redrafter:   deps.Redrafter,
		rollup:      deps.Rollup,
		skew:        deps.Skew,
		history:     deps.History,
		index:       deps.Index,
		notifier:    deps.Notifier,
		modelUsed:   deps.ModelUsed,
		batchSize:   deps.BatchSize,
		concurrency: deps.Concurrency,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.scorer == nil {
		p.scorer = scoring.NewScorer(nil, p.logger)
	}
	if p.redrafter == nil {
		p.redrafter = redraft.NewGenerator(nil, 0, p.logger)
	}
	if p.rollup == nil {
		p.rollup = rollup.NewService(p.articles, p.outlets, nil, p.logger)
	}
	if p.skew == nil {
		p.skew = skew.NewCalculator(p.articles)
	}
	if p.modelUsed == "" {
		p.modelUsed = lexicalOnlyModel
	}
	if p.batchSize <= 0 {
		p.batchSize = defaultBatchSize
	}
	if p.concurrency <= 0 {
		p.concurrency = defaultConcurrency
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// ScoreOutcome is the result of scoring one stored article.
type ScoreOutcome struct {
	ArticleID uuid.UUID             `json:"article_id"`
	OutletID  uuid.UUID             `json:"outlet_id"`
	Result    domain.ScoringResult  `json:"result"`
	Redraft   *domain.RedraftResult `json:"redraft,omitempty"`
}

// ScoreArticle scores one stored article, redrafts it when the score is
// below the threshold and persists everything in one write.
func (p *Pipeline) ScoreArticle(ctx context.Context, articleID uuid.UUID) (ScoreOutcome, error) {
	ctx, span := tracer.Start(ctx, "usecase.ScoreArticle")
	defer span.End()
	ctx = logging.WithArticle(ctx, articleID)

	article, err := p.articles.GetArticle(ctx, articleID)
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("load article: %w", err)
	}
	ctx = logging.WithOutlet(ctx, article.OutletID)

	outlet, err := p.outlets.GetOutlet(ctx, article.OutletID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		outlet = domain.Outlet{ID: article.OutletID, Name: unknownOutlet}
	case err != nil:
		return ScoreOutcome{}, fmt.Errorf("load outlet: %w", err)
	}

	result := p.scorer.Score(ctx, domain.ClassificationRequest{
		Headline:          article.Headline,
		Body:              article.Body,
		OutletName:        outlet.Name,
		HistoricalContext: p.historicalContext(ctx, outlet, article),
	})

	var rewrite *domain.RedraftResult
	if result.NeedsRedraft {
		r := p.redrafter.Redraft(ctx, article.Headline, article.Body, result.Violations)
		rewrite = &r
	}

	now := p.now().UTC()
	record := domain.ScoreRecord{
		ArticleID:  article.ID,
		Score:      result.FinalScore,
		Violations: result.Violations,
		Redraft:    rewrite,
		ScoredAt:   now,
		Audit: domain.ScoringAudit{
			ID:                uuid.New(),
			ArticleID:         article.ID,
			InitialScore:      result.InitialScore,
			FinalScore:        result.FinalScore,
			VerificationScore: result.VerificationScore,
			NeutralityScore:   result.NeutralityScore,
			FairnessScore:     result.FairnessScore,
			Violations:        result.Violations,
			ModelUsed:         p.modelUsed,
			ProcessingTimeMS:  result.ProcessingTimeMS,
			ProcessedAt:       now,
		},
	}
	if err := p.articles.SaveScore(ctx, record); err != nil {
		return ScoreOutcome{}, fmt.Errorf("save score: %w", err)
	}

	if p.index != nil {
		if err := p.index.Index(ctx, outlet, article, result.FinalScore); err != nil {
			p.logger.WarnContext(ctx, "index article failed", "error", err)
		}
	}

	span.SetAttributes(
		attribute.String("article.id", article.ID.String()),
		attribute.Int("score.final", result.FinalScore),
		attribute.Bool("score.redrafted", rewrite != nil),
	)
	p.logger.InfoContext(ctx, "article scored",
		"final_score", result.FinalScore,
		"violations", len(result.Violations),
		"redrafted", rewrite != nil)

	return ScoreOutcome{ArticleID: article.ID, OutletID: article.OutletID, Result: result, Redraft: rewrite}, nil
}

func (p *Pipeline) historicalContext(ctx context.Context, outlet domain.Outlet, article domain.Article) string {
	if p.history == nil {
		return ""
	}
	text, err := p.history.HistoricalContext(ctx, outlet, article)
	if err != nil {
		p.logger.WarnContext(ctx, "historical context unavailable", "error", err)
		return ""
	}
	return text
}

// BatchReport summarises one ScorePending run.
type BatchReport struct {
	Scored     int                      `json:"scored"`
	Failed     int                      `json:"failed"`
	Aggregates []domain.OutletAggregate `json:"aggregates"`
}

// ScorePending scores the oldest unscored articles, then rolls up every
// outlet that received a new score. Per-article and per-outlet failures are
// logged and skipped.
func (p *Pipeline) ScorePending(ctx context.Context) (BatchReport, error) {
	return p.scorePending(ctx, true)
}

func (p *Pipeline) scorePending(ctx context.Context, rollupAffected bool) (BatchReport, error) {
	ctx, span := tracer.Start(ctx, "usecase.ScorePending")
	defer span.End()

	pending, err := p.articles.ListUnscored(ctx, p.batchSize)
	if err != nil {
		return BatchReport{}, fmt.Errorf("list unscored: %w", err)
	}

	var (
		mu       sync.Mutex
		report   BatchReport
		affected = map[uuid.UUID]struct{}{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, a := range pending {
		g.Go(func() error {
			outcome, err := p.ScoreArticle(gctx, a.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				p.logger.ErrorContext(gctx, "score article failed", "article_id", a.ID, "error", err)
				return nil
			}
			report.Scored++
			affected[outcome.OutletID] = struct{}{}
			return nil
		})
	}
	_ = g.Wait()

	if rollupAffected {
		report.Aggregates = p.rollupOutlets(ctx, affected)
	}

	span.SetAttributes(
		attribute.Int("batch.scored", report.Scored),
		attribute.Int("batch.failed", report.Failed),
	)
	p.logger.InfoContext(ctx, "batch scored",
		"scored", report.Scored,
		"failed", report.Failed,
		"outlets", len(report.Aggregates))

	return report, nil
}

func (p *Pipeline) rollupOutlets(ctx context.Context, affected map[uuid.UUID]struct{}) []domain.OutletAggregate {
	outletIDs := make([]uuid.UUID, 0, len(affected))
	for id := range affected {
		outletIDs = append(outletIDs, id)
	}
	sort.Slice(outletIDs, func(i, j int) bool {
		return outletIDs[i].String() < outletIDs[j].String()
	})

	var aggregates []domain.OutletAggregate
	for _, id := range outletIDs {
		agg, err := p.rollup.Rollup(ctx, id)
		if err != nil {
			p.logger.ErrorContext(ctx, "outlet rollup failed", "outlet_id", id, "error", err)
			continue
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates
}

// Rollup recomputes one outlet's batting average.
func (p *Pipeline) Rollup(ctx context.Context, outletID uuid.UUID) (domain.OutletAggregate, error) {
	return p.rollup.Rollup(ctx, outletID)
}

// RollupAll recomputes every non-wire outlet and publishes the standings
// digest when a notifier is configured.
func (p *Pipeline) RollupAll(ctx context.Context) ([]domain.OutletAggregate, error) {
	aggregates, rollupErr := p.rollup.RollupAll(ctx)

	if p.notifier != nil && len(aggregates) > 0 {
		if err := p.notifier.PublishDigest(ctx, p.buildDigestMessage(ctx, aggregates)); err != nil {
			p.logger.WarnContext(ctx, "publish digest failed", "error", err)
		}
	}

	return aggregates, rollupErr
}

// Skew reports the topic skew of one outlet.
func (p *Pipeline) Skew(ctx context.Context, outletID uuid.UUID) (domain.SkewResult, error) {
	if _, err := p.outlets.GetOutlet(ctx, outletID); err != nil {
		return domain.SkewResult{}, fmt.Errorf("get outlet %s: %w", outletID, err)
	}
	return p.skew.ForOutlet(ctx, outletID)
}

// AnalyzeInput is an article that is not stored anywhere.
type AnalyzeInput struct {
	Headline   string
	Body       string
	OutletName string
}

// AnalyzeResult is the offline scoring output.
type AnalyzeResult struct {
	Category string                `json:"category,omitempty"`
	Result   domain.ScoringResult  `json:"result"`
	Redraft  *domain.RedraftResult `json:"redraft,omitempty"`
}

// Analyze scores and, when needed, redrafts an article without persisting it.
func (p *Pipeline) Analyze(ctx context.Context, in AnalyzeInput) AnalyzeResult {
	outletName := in.OutletName
	if outletName == "" {
		outletName = unknownOutlet
	}

	result := p.scorer.Score(ctx, domain.ClassificationRequest{
		Headline:   in.Headline,
		Body:       in.Body,
		OutletName: outletName,
	})

	out := AnalyzeResult{
		Category: taxonomy.Classify(in.Headline, in.Body),
		Result:   result,
	}
	if result.NeedsRedraft {
		r := p.redrafter.Redraft(ctx, in.Headline, in.Body, result.Violations)
		out.Redraft = &r
	}
	return out
}

// markdownEscaper neutralises the entity markers of Telegram's Markdown mode.
var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func (p *Pipeline) buildDigestMessage(ctx context.Context, aggregates []domain.OutletAggregate) string {
	type line struct {
		name string
		agg  domain.OutletAggregate
	}

	lines := make([]line, 0, len(aggregates))
	for _, agg := range aggregates {
		name := agg.OutletID.String()
		if o, err := p.outlets.GetOutlet(ctx, agg.OutletID); err == nil {
			name = o.Name
		}
		lines = append(lines, line{name: name, agg: agg})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].agg.BattingAverage > lines[j].agg.BattingAverage
	})

	var b strings.Builder
	b.WriteString("*Outlet standings*\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s: %.1f (%d articles", markdownEscaper.Replace(l.name), l.agg.BattingAverage, l.agg.TotalArticles)
		if l.agg.SkewPenalty > 0 {
			fmt.Fprintf(&b, ", skew -%d", l.agg.SkewPenalty)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
