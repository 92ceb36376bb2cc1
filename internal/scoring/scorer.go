package scoring

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"NewsIntegrity/internal/domain"
)

var tracer = otel.Tracer("NewsIntegrity/internal/scoring")

// Scorer runs the lexical scan and the semantic classification side by side
// and aggregates both into one result.
type Scorer struct {
	semantic *SemanticClassifier
	logger   *slog.Logger
}

// NewScorer wires the semantic classifier; nil means lexical-only scoring.
func NewScorer(semantic *SemanticClassifier, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{semantic: semantic, logger: logger}
}

// Score never fails; collaborator problems only reduce the violation set.
func (s *Scorer) Score(ctx context.Context, req domain.ClassificationRequest) domain.ScoringResult {
	ctx, span := tracer.Start(ctx, "scoring.Score")
	defer span.End()

	start := time.Now()

	var lexical, semantic []domain.Violation
	var g errgroup.Group
	g.Go(func() error {
		lexical = ScanLoadedLanguage(req.Headline, req.Body)
		return nil
	})
	g.Go(func() error {
		semantic = s.semantic.Classify(ctx, req)
		return nil
	})
	_ = g.Wait()

	all := make([]domain.Violation, 0, len(lexical)+len(semantic))
	all = append(all, lexical...)
	all = append(all, semantic...)

	res := Aggregate(all)
	res.ProcessingTimeMS = time.Since(start).Milliseconds()

	span.SetAttributes(
		attribute.Int("score.final", res.FinalScore),
		attribute.Int("score.violations", len(res.Violations)),
		attribute.Bool("score.needs_redraft", res.NeedsRedraft),
	)
	s.logger.DebugContext(ctx, "article scored",
		"final_score", res.FinalScore,
		"lexical", len(lexical),
		"semantic", len(semantic),
		"duration_ms", res.ProcessingTimeMS)

	return res
}
