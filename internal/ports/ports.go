package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"NewsIntegrity/internal/domain"
)

// ArticleRepository loads articles and persists scoring passes.
type ArticleRepository interface {
	GetArticle(ctx context.Context, id uuid.UUID) (domain.Article, error)
	// ListUnscored returns articles without a score, oldest first, skipping wire services.
	ListUnscored(ctx context.Context, limit int) ([]domain.Article, error)
	// ListScored returns every scored article of an outlet.
	ListScored(ctx context.Context, outletID uuid.UUID) ([]domain.Article, error)
	// SaveScore writes score, violations, redraft and audit under one transaction.
	SaveScore(ctx context.Context, record domain.ScoreRecord) error
}

// OutletRepository reads outlets and stores their rolled-up metrics.
type OutletRepository interface {
	GetOutlet(ctx context.Context, id uuid.UUID) (domain.Outlet, error)
	// ListRollupTargets returns every outlet that is not a wire service.
	ListRollupTargets(ctx context.Context) ([]domain.Outlet, error)
	UpdateAggregate(ctx context.Context, agg domain.OutletAggregate) error
}

// Classifier is the text-classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, req domain.ClassificationRequest) ([]domain.Violation, error)
}

// Generator is the text-generation collaborator.
type Generator interface {
	Redraft(ctx context.Context, req domain.RedraftRequest) (domain.RedraftResponse, error)
}

// ContextProvider summarises how an outlet covered similar stories before.
type ContextProvider interface {
	HistoricalContext(ctx context.Context, outlet domain.Outlet, article domain.Article) (string, error)
}

// ArticleIndex stores scored articles for future context lookups.
type ArticleIndex interface {
	Index(ctx context.Context, outlet domain.Outlet, article domain.Article, score int) error
}

// Locker serializes work per key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
