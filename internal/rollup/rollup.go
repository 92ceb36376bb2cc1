// Package rollup recomputes outlet batting averages from their scored articles.
package rollup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/logging"
	"NewsIntegrity/internal/ports"
	"NewsIntegrity/internal/skew"
)

var tracer = otel.Tracer("NewsIntegrity/internal/rollup")

// Service owns the per-outlet aggregate. Runs for the same outlet are
// serialized through the locker.
type Service struct {
	articles ports.ArticleRepository
	outlets  ports.OutletRepository
	locker   ports.Locker
	logger   *slog.Logger
}

// NewService wires repositories; a nil locker falls back to an in-process one.
func NewService(articles ports.ArticleRepository, outlets ports.OutletRepository, locker ports.Locker, logger *slog.Logger) *Service {
	if locker == nil {
		locker = NewKeyedLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{articles: articles, outlets: outlets, locker: locker, logger: logger}
}

// Rollup recomputes and stores one outlet's aggregate. It returns
// domain.ErrNotFound when the outlet does not exist.
func (s *Service) Rollup(ctx context.Context, outletID uuid.UUID) (domain.OutletAggregate, error) {
	ctx, span := tracer.Start(ctx, "rollup.Rollup")
	defer span.End()
	ctx = logging.WithOutlet(ctx, outletID)

	release, err := s.locker.Lock(ctx, "rollup:outlet:"+outletID.String())
	if err != nil {
		return domain.OutletAggregate{}, fmt.Errorf("lock outlet %s: %w", outletID, err)
	}
	defer release()

	outlet, err := s.outlets.GetOutlet(ctx, outletID)
	if err != nil {
		return domain.OutletAggregate{}, fmt.Errorf("get outlet %s: %w", outletID, err)
	}

	articles, err := s.articles.ListScored(ctx, outletID)
	if err != nil {
		return domain.OutletAggregate{}, fmt.Errorf("list scored articles: %w", err)
	}

	agg := Compute(outletID, articles)
	if err := s.outlets.UpdateAggregate(ctx, agg); err != nil {
		return domain.OutletAggregate{}, fmt.Errorf("update outlet %s: %w", outletID, err)
	}

	span.SetAttributes(
		attribute.Float64("rollup.batting_average", agg.BattingAverage),
		attribute.Int("rollup.total_articles", agg.TotalArticles),
		attribute.Int("rollup.skew_penalty", agg.SkewPenalty),
	)
	s.logger.InfoContext(ctx, "outlet rolled up",
		"outlet", outlet.Domain,
		"batting_average", agg.BattingAverage,
		"total_articles", agg.TotalArticles,
		"skew_penalty", agg.SkewPenalty)

	return agg, nil
}

// RollupAll rolls up every non-wire outlet. A failing outlet does not stop
// the others; failures are joined into the returned error.
func (s *Service) RollupAll(ctx context.Context) ([]domain.OutletAggregate, error) {
	outlets, err := s.outlets.ListRollupTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outlets: %w", err)
	}

	aggregates := make([]domain.OutletAggregate, 0, len(outlets))
	var errs []error
	for _, o := range outlets {
		agg, err := s.Rollup(ctx, o.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "outlet rollup failed", "outlet", o.Domain, "error", err)
			errs = append(errs, err)
			continue
		}
		aggregates = append(aggregates, agg)
	}

	return aggregates, errors.Join(errs...)
}

// Compute derives an outlet aggregate from its articles. Unscored articles
// are ignored; the result depends only on the scored set.
func Compute(outletID uuid.UUID, articles []domain.Article) domain.OutletAggregate {
	total, n := 0, 0
	for _, a := range articles {
		if a.Score == nil {
			continue
		}
		total += *a.Score
		n++
	}

	raw := 0.0
	if n > 0 {
		raw = float64(total) / float64(n)
	}

	penalty := skew.Calculate(articles).SkewPenalty
	final := math.Min(100, math.Max(0, raw-float64(penalty)))

	return domain.OutletAggregate{
		OutletID:       outletID,
		BattingAverage: math.RoundToEven(final*10) / 10,
		TotalArticles:  n,
		SkewPenalty:    penalty,
	}
}
